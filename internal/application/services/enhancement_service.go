package services

import (
	"context"
	"sync"
	"time"

	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/domain/providers"
	"github.com/radworks/reportassist/internal/domain/repositories"
	"github.com/radworks/reportassist/internal/infrastructure/clients/reportapi"
	"github.com/radworks/reportassist/internal/infrastructure/observability"
	apperrors "github.com/radworks/reportassist/pkg/errors"
)

// EnhancementService owns the per-report enhancement cache and the
// asynchronous completeness poll. At most one entry exists per report id.
// Entries survive switching between reports, so returning to a recently
// viewed report is served from memory without another upstream call.
type EnhancementService struct {
	client     reportapi.Client
	eventBus   providers.EventBus
	poller     *Poller
	guidelines repositories.GuidelineSearchRepository
	metrics    *observability.Metrics

	mu          sync.Mutex
	entries     map[string]*entities.EnhancementEntry
	generations map[string]uint64
	loading     map[string]chan struct{}
}

// NewEnhancementService creates the enhancement cache controller. eventBus
// and guidelines may be nil; events and index upserts are then skipped.
func NewEnhancementService(client reportapi.Client, eventBus providers.EventBus, poller *Poller, guidelines repositories.GuidelineSearchRepository, metrics *observability.Metrics) *EnhancementService {
	return &EnhancementService{
		client:      client,
		eventBus:    eventBus,
		poller:      poller,
		guidelines:  guidelines,
		metrics:     metrics,
		entries:     make(map[string]*entities.EnhancementEntry),
		generations: make(map[string]uint64),
		loading:     make(map[string]chan struct{}),
	}
}

// Get returns the cached entry for a report without triggering a load. The
// second return is false when nothing is cached.
func (s *EnhancementService) Get(ctx context.Context, reportID string) (*entities.EnhancementEntry, bool) {
	s.mu.Lock()
	entry, ok := s.entries[reportID]
	s.mu.Unlock()

	if !ok {
		return nil, false
	}
	observability.RecordCacheHit(ctx, s.metrics, reportID)
	return entry.Clone(), true
}

// Load returns the enhancement entry for a report, calling upstream on a
// cache miss. With force set the cached entry is bypassed and refreshed.
// Concurrent loads for the same report share a single upstream call.
func (s *EnhancementService) Load(ctx context.Context, reportID string, force bool) (*entities.EnhancementEntry, error) {
	s.mu.Lock()
	if !force {
		if entry, ok := s.entries[reportID]; ok && entry.Error == "" {
			s.mu.Unlock()
			observability.RecordCacheHit(ctx, s.metrics, reportID)
			return entry.Clone(), nil
		}
	}

	if ch, inFlight := s.loading[reportID]; inFlight {
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		s.mu.Lock()
		entry, ok := s.entries[reportID]
		s.mu.Unlock()
		if !ok {
			return nil, apperrors.NewInternalError("enhancement load failed", nil)
		}
		return entry.Clone(), nil
	}

	ch := make(chan struct{})
	s.loading[reportID] = ch
	generation := s.generations[reportID]
	s.mu.Unlock()

	observability.RecordCacheMiss(ctx, s.metrics, reportID)
	resp, err := s.client.Enhance(ctx, reportID, false)

	s.mu.Lock()
	delete(s.loading, reportID)
	close(ch)

	if s.generations[reportID] != generation {
		// The report changed while the call was in flight. The response
		// describes a superseded snapshot and must not be cached.
		s.mu.Unlock()
		return nil, apperrors.NewConflictError("report changed while enhancement was running")
	}

	if err != nil {
		// The failure is cached so readers can see it, but a later Load
		// will retry rather than serve it as a hit.
		s.entries[reportID] = &entities.EnhancementEntry{
			ReportID:         reportID,
			Timestamp:        time.Now(),
			Error:            err.Error(),
			AppliedActionIDs: make(map[string]struct{}),
		}
		s.mu.Unlock()
		return nil, err
	}

	entry := &entities.EnhancementEntry{
		ReportID:         reportID,
		Findings:         resp.Findings,
		Guidelines:       resp.Guidelines,
		Completeness:     resp.Completeness,
		Timestamp:        time.Now(),
		Pending:          resp.CompletenessPending,
		AppliedActionIDs: make(map[string]struct{}),
	}
	s.entries[reportID] = entry
	result := entry.Clone()
	s.mu.Unlock()

	s.publish(reportID, entities.ReportEventTypeEnhancementReady, map[string]interface{}{
		"findings_count":       len(resp.Findings),
		"guidelines_count":     len(resp.Guidelines),
		"completeness_pending": resp.CompletenessPending,
	})

	if len(resp.Guidelines) > 0 {
		go s.indexGuidelines(resp.Guidelines)
	}

	if resp.CompletenessPending {
		s.startCompletenessPoll(reportID, generation)
	}

	return result, nil
}

// indexGuidelines upserts upstream guidelines into the lookup index so
// sidebar search finds them without another upstream round trip. Failures
// only degrade search, so they are logged and skipped.
func (s *EnhancementService) indexGuidelines(guidelines []entities.Guideline) {
	if s.guidelines == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := range guidelines {
		guideline := guidelines[i]
		if guideline.ID == "" {
			// Without a stable id an upsert would duplicate the entry on
			// every load.
			continue
		}
		if err := s.guidelines.Index(ctx, &guideline); err != nil {
			observability.GetLogger().Warn().
				Err(err).
				Str("guideline_id", guideline.ID).
				Str("condition", guideline.Condition).
				Msg("Failed to index guideline")
		}
	}
}

// Invalidate drops the cached entry for a report and stops its completeness
// poll. An in-flight load for the report will discard its response.
func (s *EnhancementService) Invalidate(reportID string) {
	s.mu.Lock()
	s.generations[reportID]++
	delete(s.entries, reportID)
	s.mu.Unlock()

	if s.poller != nil {
		s.poller.Stop(reportID)
	}
}

// SwitchReport stops background polling for the report being navigated away
// from. Its cache entry is kept so switching back is instant.
func (s *EnhancementService) SwitchReport(previousID string) {
	if previousID == "" || s.poller == nil {
		return
	}
	s.poller.Stop(previousID)
}

// ResumeCompleteness restarts the completeness poll for a report whose
// cached entry is still pending, typically after switching back to it.
func (s *EnhancementService) ResumeCompleteness(reportID string) {
	s.mu.Lock()
	entry, ok := s.entries[reportID]
	generation := s.generations[reportID]
	s.mu.Unlock()

	if ok && entry.Pending {
		s.startCompletenessPoll(reportID, generation)
	}
}

// SendChat sends a user chat message for a report and records both sides of
// the exchange on the cached entry.
func (s *EnhancementService) SendChat(ctx context.Context, reportID, message string) (*entities.ChatMessage, error) {
	s.mu.Lock()
	var history []entities.ChatMessage
	if entry, ok := s.entries[reportID]; ok {
		history = append([]entities.ChatMessage(nil), entry.ChatMessages...)
	}
	s.mu.Unlock()

	resp, err := s.client.SendChatMessage(ctx, reportID, reportapi.ChatRequest{
		Message: message,
		History: history,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMsg := entities.ChatMessage{Role: entities.ChatRoleUser, Content: message, Timestamp: now}
	assistantMsg := entities.ChatMessage{
		Role:         entities.ChatRoleAssistant,
		Content:      resp.Response,
		Sources:      resp.Sources,
		EditProposal: resp.EditProposal,
		Timestamp:    now,
	}

	s.mu.Lock()
	if entry, ok := s.entries[reportID]; ok {
		entry.ChatMessages = append(entry.ChatMessages, userMsg, assistantMsg)
	}
	s.mu.Unlock()

	return &assistantMsg, nil
}

// UnappliedActions filters a set of suggested actions down to those not yet
// applied for the report.
func (s *EnhancementService) UnappliedActions(reportID string, actions []entities.SuggestedAction) []entities.SuggestedAction {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[reportID]
	if !ok {
		return actions
	}

	remaining := make([]entities.SuggestedAction, 0, len(actions))
	for _, action := range actions {
		if _, applied := entry.AppliedActionIDs[action.ID]; !applied {
			remaining = append(remaining, action)
		}
	}
	return remaining
}

// MarkActionsApplied records suggested actions as applied on the cached
// entry so reapplying the same batch is a no-op.
func (s *EnhancementService) MarkActionsApplied(reportID string, actionIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[reportID]
	if !ok {
		return
	}
	if entry.AppliedActionIDs == nil {
		entry.AppliedActionIDs = make(map[string]struct{})
	}
	for _, id := range actionIDs {
		entry.AppliedActionIDs[id] = struct{}{}
	}
}

func (s *EnhancementService) startCompletenessPoll(reportID string, generation uint64) {
	if s.poller == nil {
		return
	}

	fn := func(ctx context.Context) (bool, error) {
		resp, err := s.client.PollCompleteness(ctx, reportID)
		if err != nil {
			return false, err
		}
		if resp.Pending {
			return false, nil
		}

		s.mu.Lock()
		if s.generations[reportID] != generation {
			s.mu.Unlock()
			return true, nil
		}
		if entry, ok := s.entries[reportID]; ok {
			entry.Completeness = resp.Completeness
			entry.Pending = false
			entry.TimedOut = false
			entry.Timestamp = time.Now()
		}
		s.mu.Unlock()

		s.publish(reportID, entities.ReportEventTypeCompletenessUpdate, map[string]interface{}{
			"pending": false,
		})
		return true, nil
	}

	// The budget elapsing is surfaced rather than swallowed: the entry is
	// marked and an event tells the client to stop waiting.
	onTimeout := func() {
		s.mu.Lock()
		if s.generations[reportID] != generation {
			s.mu.Unlock()
			return
		}
		if entry, ok := s.entries[reportID]; ok && entry.Pending {
			entry.TimedOut = true
		}
		s.mu.Unlock()

		s.publish(reportID, entities.ReportEventTypeCompletenessUpdate, map[string]interface{}{
			"pending":   true,
			"timed_out": true,
		})
	}

	if !s.poller.StartWithTimeout(reportID, fn, onTimeout) {
		return
	}

	s.mu.Lock()
	if entry, ok := s.entries[reportID]; ok {
		entry.TimedOut = false
	}
	s.mu.Unlock()
}

func (s *EnhancementService) publish(reportID string, eventType entities.ReportEventType, payload map[string]interface{}) {
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
