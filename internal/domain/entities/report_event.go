package entities

import (
	"time"

	"github.com/google/uuid"
)

// ReportEventType represents the type of report event
type ReportEventType string

const (
	ReportEventTypeContentUpdate      ReportEventType = "content_update"
	ReportEventTypeCompletenessUpdate ReportEventType = "completeness_update"
	ReportEventTypeValidationUpdate   ReportEventType = "validation_update"
	ReportEventTypeEnhancementReady   ReportEventType = "enhancement_ready"
)

// ReportEvent is a real-time update event for a report
type ReportEvent struct {
	ID        string                 `json:"id"`
	ReportID  string                 `json:"report_id"`
	EventType ReportEventType        `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// NewReportEvent creates a new report event
func NewReportEvent(reportID string, eventType ReportEventType, payload map[string]interface{}) *ReportEvent {
	return &ReportEvent{
		ID:        uuid.NewString(),
		ReportID:  reportID,
		EventType: eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}
