package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/radworks/reportassist/internal/application/services"
	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/infrastructure/clients/reportapi"
	apperrors "github.com/radworks/reportassist/pkg/errors"
)

func enhanceResponse(pending bool) *reportapi.EnhanceResponse {
	return &reportapi.EnhanceResponse{
		Findings: []entities.Finding{
			{Finding: "5mm nodule in the right upper lobe", Location: "right upper lobe"},
		},
		Guidelines: []entities.Guideline{
			{ID: "g-1", Condition: "Pulmonary nodule", Summary: "Fleischner follow-up criteria"},
		},
		CompletenessPending: pending,
	}
}

func TestEnhancementService_Load_ServesSecondCallFromCache(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	service := services.NewEnhancementService(api, nil, nil, nil, nil)

	api.On("Enhance", mock.Anything, "rep-1", false).Return(enhanceResponse(false), nil)

	first, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)
	assert.Len(t, first.Findings, 1)

	second, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)
	assert.Equal(t, first.Findings, second.Findings)

	api.AssertNumberOfCalls(t, "Enhance", 1)
}

func TestEnhancementService_Load_ForceBypassesCache(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	service := services.NewEnhancementService(api, nil, nil, nil, nil)

	api.On("Enhance", mock.Anything, "rep-1", false).Return(enhanceResponse(false), nil)

	_, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)
	_, err = service.Load(ctx, "rep-1", true)
	assert.NoError(t, err)

	api.AssertNumberOfCalls(t, "Enhance", 2)
}

func TestEnhancementService_Invalidate_ForcesReload(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	service := services.NewEnhancementService(api, nil, nil, nil, nil)

	api.On("Enhance", mock.Anything, "rep-1", false).Return(enhanceResponse(false), nil)

	_, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)

	service.Invalidate("rep-1")
	_, cached := service.Get(ctx, "rep-1")
	assert.False(t, cached)

	_, err = service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)
	api.AssertNumberOfCalls(t, "Enhance", 2)
}

func TestEnhancementService_Load_DiscardsResponseWhenInvalidatedMidFlight(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	service := services.NewEnhancementService(api, nil, nil, nil, nil)

	// The report is edited while the enhance call is still in flight, so
	// the response describes a snapshot that no longer exists.
	api.On("Enhance", mock.Anything, "rep-1", false).
		Run(func(args mock.Arguments) {
			service.Invalidate("rep-1")
		}).
		Return(enhanceResponse(false), nil)

	_, err := service.Load(ctx, "rep-1", false)
	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	_, cached := service.Get(ctx, "rep-1")
	assert.False(t, cached)
}

func TestEnhancementService_Load_CachesFailureButRetries(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	service := services.NewEnhancementService(api, nil, nil, nil, nil)

	api.On("Enhance", mock.Anything, "rep-1", false).
		Return(nil, apperrors.NewUpstreamError("model overloaded")).Once()
	api.On("Enhance", mock.Anything, "rep-1", false).
		Return(enhanceResponse(false), nil).Once()

	_, err := service.Load(ctx, "rep-1", false)
	assert.Error(t, err)

	entry, cached := service.Get(ctx, "rep-1")
	assert.True(t, cached)
	assert.Contains(t, entry.Error, "model overloaded")

	recovered, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)
	assert.Empty(t, recovered.Error)
	api.AssertNumberOfCalls(t, "Enhance", 2)
}

func TestEnhancementService_CompletenessPoll_ResolvesAfterPendingPolls(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	bus := new(MockEventBus)
	poller := services.NewPoller("completeness", 5*time.Millisecond, time.Second, nil)
	service := services.NewEnhancementService(api, bus, poller, nil, nil)

	bus.On("Publish", mock.Anything, "report:rep-1", mock.Anything).Return(nil)

	api.On("Enhance", mock.Anything, "rep-1", false).Return(enhanceResponse(true), nil)
	api.On("PollCompleteness", mock.Anything, "rep-1").
		Return(&reportapi.CompletenessPollResponse{Pending: true}, nil).Twice()
	api.On("PollCompleteness", mock.Anything, "rep-1").
		Return(&reportapi.CompletenessPollResponse{
			Pending: false,
			Completeness: &entities.CompletenessAnalysis{
				Analysis: "missing impression section",
				SuggestedActions: []entities.SuggestedAction{
					{ID: "act-1", Title: "Add impression"},
				},
			},
		}, nil).Once()

	entry, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)
	assert.True(t, entry.Pending)
	assert.Nil(t, entry.Completeness)

	assert.Eventually(t, func() bool {
		current, cached := service.Get(ctx, "rep-1")
		return cached && !current.Pending && current.Completeness != nil
	}, time.Second, 5*time.Millisecond)

	api.AssertNumberOfCalls(t, "PollCompleteness", 3)

	resolved, _ := service.Get(ctx, "rep-1")
	assert.Equal(t, "missing impression section", resolved.Completeness.Analysis)
}

func TestEnhancementService_SendChat_AccumulatesHistory(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	service := services.NewEnhancementService(api, nil, nil, nil, nil)

	api.On("Enhance", mock.Anything, "rep-1", false).Return(enhanceResponse(false), nil)
	_, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)

	api.On("SendChatMessage", mock.Anything, "rep-1", mock.MatchedBy(func(req reportapi.ChatRequest) bool {
		return req.Message == "is the nodule size significant?" && len(req.History) == 0
	})).Return(&reportapi.ChatResponse{Response: "At 5mm it falls under Fleischner low-risk follow-up."}, nil)

	reply, err := service.SendChat(ctx, "rep-1", "is the nodule size significant?")
	assert.NoError(t, err)
	assert.Equal(t, entities.ChatRoleAssistant, reply.Role)

	api.On("SendChatMessage", mock.Anything, "rep-1", mock.MatchedBy(func(req reportapi.ChatRequest) bool {
		return len(req.History) == 2
	})).Return(&reportapi.ChatResponse{Response: "No prior imaging was referenced."}, nil)

	_, err = service.SendChat(ctx, "rep-1", "any priors?")
	assert.NoError(t, err)

	entry, cached := service.Get(ctx, "rep-1")
	assert.True(t, cached)
	assert.Len(t, entry.ChatMessages, 4)
}

func TestEnhancementService_UnappliedActions_FiltersAppliedSet(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	service := services.NewEnhancementService(api, nil, nil, nil, nil)

	api.On("Enhance", mock.Anything, "rep-1", false).Return(enhanceResponse(false), nil)
	_, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)

	actions := []entities.SuggestedAction{
		{ID: "act-1", Title: "Add impression"},
		{ID: "act-2", Title: "Describe comparison"},
	}

	assert.Len(t, service.UnappliedActions("rep-1", actions), 2)

	service.MarkActionsApplied("rep-1", []string{"act-1"})
	remaining := service.UnappliedActions("rep-1", actions)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "act-2", remaining[0].ID)

	service.MarkActionsApplied("rep-1", []string{"act-2"})
	assert.Empty(t, service.UnappliedActions("rep-1", actions))
}

func TestEnhancementService_Load_IndexesReturnedGuidelines(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	index := new(MockGuidelineIndex)
	service := services.NewEnhancementService(api, nil, nil, index, nil)

	resp := enhanceResponse(false)
	// No stable id, so upserting would duplicate the entry on every load.
	resp.Guidelines = append(resp.Guidelines, entities.Guideline{
		Condition: "Incidental finding",
		Summary:   "unmatched upstream entry",
	})
	api.On("Enhance", mock.Anything, "rep-1", false).Return(resp, nil)

	indexed := make(chan struct{})
	index.On("Index", mock.Anything, mock.MatchedBy(func(g *entities.Guideline) bool {
		return g.ID == "g-1" && g.Condition == "Pulmonary nodule"
	})).Run(func(args mock.Arguments) {
		close(indexed)
	}).Return(nil)

	_, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)

	select {
	case <-indexed:
	case <-time.After(time.Second):
		t.Fatal("guideline was never indexed")
	}
	index.AssertNumberOfCalls(t, "Index", 1)
}

func TestEnhancementService_Load_IndexFailureDoesNotFailLoad(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	index := new(MockGuidelineIndex)
	service := services.NewEnhancementService(api, nil, nil, index, nil)

	api.On("Enhance", mock.Anything, "rep-1", false).Return(enhanceResponse(false), nil)
	index.On("Index", mock.Anything, mock.Anything).Return(assert.AnError)

	entry, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)
	assert.Len(t, entry.Guidelines, 1)
}

func TestEnhancementService_CompletenessPoll_TimeoutMarksEntryAndNotifies(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	bus := new(MockEventBus)
	poller := services.NewPoller("completeness", 5*time.Millisecond, 30*time.Millisecond, nil)
	service := services.NewEnhancementService(api, bus, poller, nil, nil)

	notified := make(chan struct{})
	bus.On("Publish", mock.Anything, "report:rep-1", mock.MatchedBy(func(event *entities.ReportEvent) bool {
		return event.EventType == entities.ReportEventTypeCompletenessUpdate &&
			event.Payload["timed_out"] == true
	})).Run(func(args mock.Arguments) {
		close(notified)
	}).Return(nil)
	bus.On("Publish", mock.Anything, "report:rep-1", mock.Anything).Return(nil)

	api.On("Enhance", mock.Anything, "rep-1", false).Return(enhanceResponse(true), nil)
	api.On("PollCompleteness", mock.Anything, "rep-1").
		Return(&reportapi.CompletenessPollResponse{Pending: true}, nil)

	entry, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)
	assert.True(t, entry.Pending)
	assert.False(t, entry.TimedOut)

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("no timeout notification was published")
	}

	assert.Eventually(t, func() bool {
		current, cached := service.Get(ctx, "rep-1")
		return cached && current.TimedOut
	}, time.Second, 5*time.Millisecond)

	// Still pending upstream: the entry keeps waiting state, only flagged.
	current, _ := service.Get(ctx, "rep-1")
	assert.True(t, current.Pending)
}

func TestEnhancementService_ResumeCompleteness_ClearsTimedOutFlag(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	poller := services.NewPoller("completeness", 5*time.Millisecond, 30*time.Millisecond, nil)
	service := services.NewEnhancementService(api, nil, poller, nil, nil)

	api.On("Enhance", mock.Anything, "rep-1", false).Return(enhanceResponse(true), nil)
	api.On("PollCompleteness", mock.Anything, "rep-1").
		Return(&reportapi.CompletenessPollResponse{Pending: true}, nil)

	_, err := service.Load(ctx, "rep-1", false)
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		current, cached := service.Get(ctx, "rep-1")
		return cached && current.TimedOut
	}, time.Second, 5*time.Millisecond)

	service.ResumeCompleteness("rep-1")
	service.SwitchReport("rep-1")

	current, _ := service.Get(ctx, "rep-1")
	assert.False(t, current.TimedOut)
	assert.True(t, current.Pending)
}
