package entities

import "time"

// ReportStatus represents the lifecycle state of a report
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusGenerated ReportStatus = "generated"
	ReportStatusFinalized ReportStatus = "finalized"
)

// EditSource identifies what produced a report content change
type EditSource string

const (
	EditSourceManual       EditSource = "manual"
	EditSourceUnfilled     EditSource = "unfilled_patch"
	EditSourceActions      EditSource = "suggested_actions"
	EditSourceComparison   EditSource = "comparison_revision"
	EditSourceGeneration   EditSource = "generation"
	EditSourceChatProposal EditSource = "chat_proposal"
)

// Report represents a radiology report under authoring
type Report struct {
	ID            string       `json:"id" db:"id"`
	PatientRef    string       `json:"patient_ref" db:"patient_ref"`
	ScanType      string       `json:"scan_type" db:"scan_type"`
	ReportContent string       `json:"report_content" db:"report_content"`
	Status        ReportStatus `json:"status" db:"status"`
	IsPinned      bool         `json:"is_pinned" db:"is_pinned"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// ReportRevision is an append-only snapshot taken on every content change.
// Revisions are never updated or deleted once written.
type ReportRevision struct {
	ID         string     `json:"id" db:"id"`
	ReportID   string     `json:"report_id" db:"report_id"`
	Content    string     `json:"content" db:"content"`
	EditSource EditSource `json:"edit_source" db:"edit_source"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
