package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/domain/providers"
	"github.com/radworks/reportassist/internal/domain/repositories"
	"github.com/radworks/reportassist/internal/infrastructure/clients/reportapi"
	"github.com/radworks/reportassist/internal/infrastructure/observability"
	"github.com/radworks/reportassist/internal/unfilled"
)

// ReportService handles report lifecycle and content edits. Every content
// change flows through the upstream report API first, then is persisted
// locally with an append-only revision, and finally fans out as events.
type ReportService struct {
	repo             repositories.ReportRepository
	revisions        repositories.ReportRevisionRepository
	client           reportapi.Client
	enhancement      *EnhancementService
	eventBus         providers.EventBus
	httpCache        providers.CacheProvider
	validationPoller *Poller
}

// NewReportService creates a new report service. eventBus, httpCache and
// validationPoller may be nil; the corresponding side effects are skipped.
func NewReportService(
	repo repositories.ReportRepository,
	revisions repositories.ReportRevisionRepository,
	client reportapi.Client,
	enhancement *EnhancementService,
	eventBus providers.EventBus,
	httpCache providers.CacheProvider,
	validationPoller *Poller,
) *ReportService {
	return &ReportService{
		repo:             repo,
		revisions:        revisions,
		client:           client,
		enhancement:      enhancement,
		eventBus:         eventBus,
		httpCache:        httpCache,
		validationPoller: validationPoller,
	}
}

// Create creates a new report with an initial revision
func (s *ReportService) Create(ctx context.Context, report *entities.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = entities.ReportStatusDraft
	}
	now := time.Now()
	report.CreatedAt = now
	report.UpdatedAt = now

	if err := s.repo.Create(ctx, report); err != nil {
		return err
	}

	if report.ReportContent != "" {
		s.appendRevision(ctx, report.ID, report.ReportContent, entities.EditSourceGeneration)
	}
	return nil
}

// GetByID retrieves a report by ID
func (s *ReportService) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves reports matching the filter
func (s *ReportService) List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error) {
	return s.repo.List(ctx, filter)
}

// SetPinned pins or unpins a report
func (s *ReportService) SetPinned(ctx context.Context, id string, pinned bool) error {
	return s.repo.SetPinned(ctx, id, pinned)
}

// Delete removes a report, its revisions and its cached state
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.enhancement != nil {
		s.enhancement.Invalidate(id)
	}
	s.invalidateHTTPCache(id)
	return nil
}

// Revisions lists the edit history of a report, newest first
func (s *ReportService) Revisions(ctx context.Context, reportID string, limit int) ([]*entities.ReportRevision, error) {
	return s.revisions.ListByReport(ctx, reportID, limit)
}

// UpdateContent replaces the report body. The upstream API is the write
// authority; its echoed content is what gets persisted locally.
func (s *ReportService) UpdateContent(ctx context.Context, reportID, content string, source entities.EditSource) (*entities.Report, error) {
	resp, err := s.client.UpdateReport(ctx, reportID, reportapi.UpdateRequest{
		Content:    content,
		EditSource: source,
	})
	if err != nil {
		return nil, err
	}

	return s.persistContent(ctx, reportID, resp.Content(), source, true)
}

// ScanUnfilled locates placeholders and structural gaps in the current
// report body. Items are only valid against the returned content snapshot.
func (s *ReportService) ScanUnfilled(ctx context.Context, reportID string) (*unfilled.ScanResult, string, error) {
	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, "", err
	}
	return unfilled.Scan(report.ReportContent), report.ReportContent, nil
}

// ApplyUnfilledEdits applies a batch of placeholder resolutions to the
// report. Edits whose target text moved since the scan are skipped and
// reported back; the rest are applied in one pass.
func (s *ReportService) ApplyUnfilledEdits(ctx context.Context, reportID string, edits []entities.UnfilledEdit) (*entities.PatchResult, *entities.Report, error) {
	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}

	result := unfilled.ApplyEdits(report.ReportContent, edits)
	if result.AppliedCount == 0 {
		return &result, report, nil
	}

	updated, err := s.UpdateContent(ctx, reportID, result.NewText, entities.EditSourceUnfilled)
	if err != nil {
		return nil, nil, err
	}
	return &result, updated, nil
}

// ApplySuggestedActions applies completeness-driven actions to the report.
// Actions already applied for this report are silently dropped, so
// resubmitting the same batch cannot edit the report twice.
func (s *ReportService) ApplySuggestedActions(ctx context.Context, reportID string, actions []entities.SuggestedAction) (*entities.Report, []string, error) {
	if s.enhancement != nil {
		actions = s.enhancement.UnappliedActions(reportID, actions)
	}
	if len(actions) == 0 {
		report, err := s.repo.GetByID(ctx, reportID)
		return report, nil, err
	}

	payloads := make([]reportapi.ActionPayload, 0, len(actions))
	appliedIDs := make([]string, 0, len(actions))
	for _, action := range actions {
		payloads = append(payloads, reportapi.ActionPayload{
			ID:      action.ID,
			Title:   action.Title,
			Details: action.Details,
			Patch:   action.Patch,
		})
		appliedIDs = append(appliedIDs, action.ID)
	}

	resp, err := s.client.ApplyActions(ctx, reportID, reportapi.ApplyActionsRequest{Actions: payloads})
	if err != nil {
		return nil, nil, err
	}

	if s.enhancement != nil {
		s.enhancement.MarkActionsApplied(reportID, appliedIDs)
	}

	// The enhancement entry is kept: the completeness analysis the actions
	// came from stays valid, with the applied set marking progress.
	report, err := s.persistContent(ctx, reportID, resp.Content(), entities.EditSourceActions, false)
	if err != nil {
		return nil, appliedIDs, err
	}
	return report, appliedIDs, nil
}

// ValidationStatus fetches the current state of the asynchronous validation
// pass for a report.
func (s *ReportService) ValidationStatus(ctx context.Context, reportID string) (*entities.ValidationStatus, error) {
	resp, err := s.client.ValidationStatus(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return &resp.ValidationStatus, nil
}

// persistContent writes the authoritative content locally, appends a
// revision, invalidates caches and kicks off the validation poll.
func (s *ReportService) persistContent(ctx context.Context, reportID, content string, source entities.EditSource, invalidateEnhancement bool) (*entities.Report, error) {
	if err := s.repo.UpdateContent(ctx, reportID, content, source); err != nil {
		return nil, err
	}
	s.appendRevision(ctx, reportID, content, source)

	if invalidateEnhancement && s.enhancement != nil {
		s.enhancement.Invalidate(reportID)
	}
	s.invalidateHTTPCache(reportID)

	s.publish(reportID, entities.ReportEventTypeContentUpdate, map[string]interface{}{
		"edit_source": string(source),
	})
	s.startValidationPoll(reportID)

	return s.repo.GetByID(ctx, reportID)
}

func (s *ReportService) appendRevision(ctx context.Context, reportID, content string, source entities.EditSource) {
	if s.revisions == nil {
		return
	}
	revision := &entities.ReportRevision{
		ID:         uuid.NewString(),
		ReportID:   reportID,
		Content:    content,
		EditSource: source,
		CreatedAt:  time.Now(),
	}
	if err := s.revisions.Append(ctx, revision); err != nil {
		observability.GetLogger().Warn().
			Err(err).
			Str("report_id", reportID).
			Msg("Failed to append report revision")
	}
}

// startValidationPoll polls the upstream validation state until it reaches
// a terminal value, then publishes the outcome. Restarting while a poll is
// pending is a no-op.
func (s *ReportService) startValidationPoll(reportID string) {
	if s.validationPoller == nil {
		return
	}

	fn := func(ctx context.Context) (bool, error) {
		resp, err := s.client.ValidationStatus(ctx, reportID)
		if err != nil {
			return false, err
		}
		if !resp.ValidationStatus.Status.Terminal() {
			return false, nil
		}

		s.publish(reportID, entities.ReportEventTypeValidationUpdate, map[string]interface{}{
			"status":           string(resp.ValidationStatus.Status),
			"violations_count": resp.ValidationStatus.ViolationsCount,
		})
		return true, nil
	}

	onTimeout := func() {
		s.publish(reportID, entities.ReportEventTypeValidationUpdate, map[string]interface{}{
			"status":    string(entities.ValidationStatePending),
			"timed_out": true,
		})
	}

	s.validationPoller.StartWithTimeout(reportID, fn, onTimeout)
}

func (s *ReportService) invalidateHTTPCache(reportID string) {
	if s.httpCache == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		pattern := fmt.Sprintf("http:cache:*reports/%s*", reportID)
		if err := s.httpCache.DeletePattern(ctx, pattern); err != nil {
			observability.GetLogger().Warn().
				Err(err).
				Str("report_id", reportID).
				Msg("Failed to invalidate report response cache")
		}
	}()
}

func (s *ReportService) publish(reportID string, eventType entities.ReportEventType, payload map[string]interface{}) {
	if s.eventBus == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := entities.NewReportEvent(reportID, eventType, payload)
	if err := s.eventBus.Publish(ctx, providers.GetReportChannel(reportID), event); err != nil {
		observability.GetLogger().Warn().
			Err(err).
			Str("report_id", reportID).
			Str("event_type", string(eventType)).
			Msg("Failed to publish report event")
	}
}
