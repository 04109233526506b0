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
	"github.com/radworks/reportassist/internal/unfilled"
)

func updateResponse(content string) *reportapi.UpdateResponse {
	resp := &reportapi.UpdateResponse{}
	resp.Report.ReportContent = content
	return resp
}

func TestReportService_UpdateContent_PersistsUpstreamEcho(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	repo := new(MockReportRepository)
	revisions := new(MockRevisionRepository)
	bus := new(MockEventBus)

	service := services.NewReportService(repo, revisions, api, nil, bus, nil, nil)

	// The upstream may normalize the submitted body; its echo wins.
	api.On("UpdateReport", mock.Anything, "rep-1", reportapi.UpdateRequest{
		Content:    "FINDINGS: clear lungs",
		EditSource: entities.EditSourceManual,
	}).Return(updateResponse("FINDINGS: Clear lungs."), nil)

	repo.On("UpdateContent", mock.Anything, "rep-1", "FINDINGS: Clear lungs.", entities.EditSourceManual).Return(nil)
	revisions.On("Append", mock.Anything, mock.MatchedBy(func(rev *entities.ReportRevision) bool {
		return rev.ReportID == "rep-1" &&
			rev.Content == "FINDINGS: Clear lungs." &&
			rev.EditSource == entities.EditSourceManual &&
			rev.ID != ""
	})).Return(nil)
	bus.On("Publish", mock.Anything, "report:rep-1", mock.MatchedBy(func(event *entities.ReportEvent) bool {
		return event.EventType == entities.ReportEventTypeContentUpdate
	})).Return(nil)
	repo.On("GetByID", mock.Anything, "rep-1").Return(&entities.Report{
		ID:            "rep-1",
		ReportContent: "FINDINGS: Clear lungs.",
	}, nil)

	report, err := service.UpdateContent(ctx, "rep-1", "FINDINGS: clear lungs", entities.EditSourceManual)

	assert.NoError(t, err)
	assert.Equal(t, "FINDINGS: Clear lungs.", report.ReportContent)
	repo.AssertExpectations(t)
	revisions.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestReportService_UpdateContent_UpstreamErrorSkipsPersistence(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	repo := new(MockReportRepository)

	service := services.NewReportService(repo, nil, api, nil, nil, nil, nil)

	api.On("UpdateReport", mock.Anything, "rep-1", mock.Anything).
		Return(nil, assert.AnError)

	_, err := service.UpdateContent(ctx, "rep-1", "new body", entities.EditSourceManual)

	assert.Error(t, err)
	repo.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportService_ApplyUnfilledEdits_PatchesAndPersists(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	repo := new(MockReportRepository)

	service := services.NewReportService(repo, nil, api, nil, nil, nil, nil)

	original := "FINDINGS:\nNodule measures ____ in the {{lobe}}."
	repo.On("GetByID", mock.Anything, "rep-1").Return(&entities.Report{
		ID:            "rep-1",
		ReportContent: original,
	}, nil)

	scan := unfilled.Scan(original)
	items := scan.All()
	assert.Len(t, items, 2)

	edits := []entities.UnfilledEdit{
		{
			ItemID:       items[0].ID,
			Type:         items[0].Type,
			OriginalText: items[0].Text,
			NewValue:     "5 mm",
			Position:     items[0].Index,
		},
		{
			ItemID:       items[1].ID,
			Type:         items[1].Type,
			OriginalText: items[1].Text,
			NewValue:     "right upper lobe",
			Position:     items[1].Index,
		},
	}

	patched := "FINDINGS:\nNodule measures 5 mm in the right upper lobe."
	api.On("UpdateReport", mock.Anything, "rep-1", reportapi.UpdateRequest{
		Content:    patched,
		EditSource: entities.EditSourceUnfilled,
	}).Return(updateResponse(patched), nil)
	repo.On("UpdateContent", mock.Anything, "rep-1", patched, entities.EditSourceUnfilled).Return(nil)

	result, report, err := service.ApplyUnfilledEdits(ctx, "rep-1", edits)

	assert.NoError(t, err)
	assert.Equal(t, 2, result.AppliedCount)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, patched, report.ReportContent)
}

func TestReportService_ApplyUnfilledEdits_AllStaleSkipsUpstream(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	repo := new(MockReportRepository)

	service := services.NewReportService(repo, nil, api, nil, nil, nil, nil)

	repo.On("GetByID", mock.Anything, "rep-1").Return(&entities.Report{
		ID:            "rep-1",
		ReportContent: "FINDINGS: already resolved text.",
	}, nil)

	edits := []entities.UnfilledEdit{
		{ItemID: "measurement-0-aaaa", OriginalText: "____", NewValue: "5 mm", Position: 20},
	}

	result, report, err := service.ApplyUnfilledEdits(ctx, "rep-1", edits)

	assert.NoError(t, err)
	assert.Equal(t, 0, result.AppliedCount)
	assert.Len(t, result.Skipped, 1)
	assert.Equal(t, "FINDINGS: already resolved text.", report.ReportContent)
	api.AssertNotCalled(t, "UpdateReport", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportService_ApplySuggestedActions_DeduplicatesAcrossCalls(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	repo := new(MockReportRepository)
	enhancement := services.NewEnhancementService(api, nil, nil, nil, nil)

	service := services.NewReportService(repo, nil, api, enhancement, nil, nil, nil)

	api.On("Enhance", mock.Anything, "rep-1", false).Return(enhanceResponse(false), nil)
	_, err := enhancement.Load(ctx, "rep-1", false)
	assert.NoError(t, err)

	actions := []entities.SuggestedAction{
		{ID: "act-1", Title: "Add impression", Patch: "IMPRESSION: No acute findings."},
	}

	api.On("ApplyActions", mock.Anything, "rep-1", mock.MatchedBy(func(req reportapi.ApplyActionsRequest) bool {
		return len(req.Actions) == 1 && req.Actions[0].ID == "act-1"
	})).Return(updateResponse("body with impression"), nil).Once()
	repo.On("UpdateContent", mock.Anything, "rep-1", "body with impression", entities.EditSourceActions).Return(nil)
	repo.On("GetByID", mock.Anything, "rep-1").Return(&entities.Report{
		ID:            "rep-1",
		ReportContent: "body with impression",
	}, nil)

	_, applied, err := service.ApplySuggestedActions(ctx, "rep-1", actions)
	assert.NoError(t, err)
	assert.Equal(t, []string{"act-1"}, applied)

	// Same batch again: everything is already applied, upstream not called.
	_, applied, err = service.ApplySuggestedActions(ctx, "rep-1", actions)
	assert.NoError(t, err)
	assert.Empty(t, applied)
	api.AssertNumberOfCalls(t, "ApplyActions", 1)

	// The enhancement entry survives action application.
	entry, cached := enhancement.Get(ctx, "rep-1")
	assert.True(t, cached)
	assert.Len(t, entry.AppliedActionIDs, 1)
}

func TestReportService_UpdateContent_StartsValidationPoll(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	repo := new(MockReportRepository)
	bus := new(MockEventBus)
	poller := services.NewPoller("validation", 5*time.Millisecond, time.Second, nil)

	service := services.NewReportService(repo, nil, api, nil, bus, nil, poller)

	api.On("UpdateReport", mock.Anything, "rep-1", mock.Anything).Return(updateResponse("body"), nil)
	repo.On("UpdateContent", mock.Anything, "rep-1", "body", entities.EditSourceManual).Return(nil)
	repo.On("GetByID", mock.Anything, "rep-1").Return(&entities.Report{ID: "rep-1"}, nil)
	bus.On("Publish", mock.Anything, "report:rep-1", mock.Anything).Return(nil)

	pendingResp := &reportapi.ValidationStatusResponse{
		ValidationStatus: entities.ValidationStatus{Status: entities.ValidationStatePending},
	}
	passedResp := &reportapi.ValidationStatusResponse{
		ValidationStatus: entities.ValidationStatus{Status: entities.ValidationStatePassed},
	}
	api.On("ValidationStatus", mock.Anything, "rep-1").Return(pendingResp, nil).Twice()
	api.On("ValidationStatus", mock.Anything, "rep-1").Return(passedResp, nil).Once()

	_, err := service.UpdateContent(ctx, "rep-1", "body", entities.EditSourceManual)
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		return poller.State("rep-1") == services.PollStateResolved
	}, time.Second, 5*time.Millisecond)

	api.AssertNumberOfCalls(t, "ValidationStatus", 3)
	bus.AssertCalled(t, "Publish", mock.Anything, "report:rep-1", mock.MatchedBy(func(event *entities.ReportEvent) bool {
		return event.EventType == entities.ReportEventTypeValidationUpdate &&
			event.Payload["status"] == "passed"
	}))
}

func TestReportService_ValidationPoll_TimeoutPublishesEvent(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	repo := new(MockReportRepository)
	bus := new(MockEventBus)
	poller := services.NewPoller("validation", 5*time.Millisecond, 30*time.Millisecond, nil)

	service := services.NewReportService(repo, nil, api, nil, bus, nil, poller)

	api.On("UpdateReport", mock.Anything, "rep-1", mock.Anything).Return(updateResponse("body"), nil)
	repo.On("UpdateContent", mock.Anything, "rep-1", "body", entities.EditSourceManual).Return(nil)
	repo.On("GetByID", mock.Anything, "rep-1").Return(&entities.Report{ID: "rep-1"}, nil)

	notified := make(chan struct{})
	bus.On("Publish", mock.Anything, "report:rep-1", mock.MatchedBy(func(event *entities.ReportEvent) bool {
		return event.EventType == entities.ReportEventTypeValidationUpdate &&
			event.Payload["timed_out"] == true
	})).Run(func(args mock.Arguments) {
		close(notified)
	}).Return(nil)
	bus.On("Publish", mock.Anything, "report:rep-1", mock.Anything).Return(nil)

	pendingResp := &reportapi.ValidationStatusResponse{
		ValidationStatus: entities.ValidationStatus{Status: entities.ValidationStatePending},
	}
	api.On("ValidationStatus", mock.Anything, "rep-1").Return(pendingResp, nil)

	_, err := service.UpdateContent(ctx, "rep-1", "body", entities.EditSourceManual)
	assert.NoError(t, err)

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("no timeout notification was published")
	}
	assert.Equal(t, services.PollStateTimedOut, poller.State("rep-1"))
}
