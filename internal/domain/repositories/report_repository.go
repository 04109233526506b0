package repositories

import (
	"context"

	"github.com/radworks/reportassist/internal/domain/entities"
)

// ReportFilter defines filtering options for listing reports
type ReportFilter struct {
	Status   entities.ReportStatus
	ScanType string
	Pinned   *bool
	Limit    int
	Offset   int
}

// ReportRepository defines the interface for report persistence
type ReportRepository interface {
	// Create creates a new report
	Create(ctx context.Context, report *entities.Report) error

	// GetByID retrieves a report by ID
	GetByID(ctx context.Context, id string) (*entities.Report, error)

	// List retrieves reports matching the filter
	List(ctx context.Context, filter ReportFilter) ([]*entities.Report, error)

	// UpdateContent replaces the report body and records the edit source
	UpdateContent(ctx context.Context, id, content string, source entities.EditSource) error

	// SetPinned toggles the pinned flag
	SetPinned(ctx context.Context, id string, pinned bool) error

	// Delete deletes a report and its revisions
	Delete(ctx context.Context, id string) error
}

// ReportRevisionRepository defines the interface for the append-only
// revision history of a report.
type ReportRevisionRepository interface {
	// Append records a new revision snapshot
	Append(ctx context.Context, revision *entities.ReportRevision) error

	// ListByReport returns revisions for a report, newest first
	ListByReport(ctx context.Context, reportID string, limit int) ([]*entities.ReportRevision, error)
}
