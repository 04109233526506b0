package reportapi

import (
	"github.com/radworks/reportassist/internal/domain/entities"
)

// envelope carries the success flag and error string every upstream
// response is expected to include.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// EnhanceResponse is the result of the enhance operation
type EnhanceResponse struct {
	envelope
	Findings            []entities.Finding             `json:"findings"`
	Guidelines          []entities.Guideline           `json:"guidelines"`
	Completeness        *entities.CompletenessAnalysis `json:"completeness,omitempty"`
	CompletenessPending bool                           `json:"completeness_pending"`
}

// CompletenessPollResponse is one poll of the async completeness computation
type CompletenessPollResponse struct {
	envelope
	Pending      bool                           `json:"pending"`
	Completeness *entities.CompletenessAnalysis `json:"completeness,omitempty"`
}

// ChatRequest carries one user message plus prior history
type ChatRequest struct {
	Message string                 `json:"message"`
	History []entities.ChatMessage `json:"history"`
}

// ChatResponse is the assistant's reply
type ChatResponse struct {
	envelope
	Response     string   `json:"response"`
	Sources      []string `json:"sources,omitempty"`
	EditProposal string   `json:"edit_proposal,omitempty"`
}

// UpdateRequest replaces the report body
type UpdateRequest struct {
	Content    string              `json:"content"`
	EditSource entities.EditSource `json:"edit_source"`
}

// reportBody is the nested report object in update-style responses
type reportBody struct {
	ReportContent string `json:"report_content"`
}

// UpdateResponse is the result of update and apply-actions operations
type UpdateResponse struct {
	envelope
	Report reportBody `json:"report"`
}

// Content returns the updated report body
func (r *UpdateResponse) Content() string {
	return r.Report.ReportContent
}

// ActionPayload is one suggested action submitted for application
type ActionPayload struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Details string `json:"details,omitempty"`
	Patch   string `json:"patch,omitempty"`
}

// ApplyActionsRequest submits accepted suggested actions
type ApplyActionsRequest struct {
	Actions []ActionPayload `json:"actions"`
}

// CompareRequest submits prior studies for interval comparison
type CompareRequest struct {
	PriorReports []entities.PriorReport `json:"prior_reports"`
}

// CompareResponse carries the comparison result
type CompareResponse struct {
	envelope
	Comparison *entities.ComparisonResult `json:"comparison"`
}

// ApplyComparisonRequest submits the accepted revised report body
type ApplyComparisonRequest struct {
	RevisedReport string `json:"revised_report"`
}

// ApplyComparisonResponse carries the applied revision
type ApplyComparisonResponse struct {
	envelope
	UpdatedContent string `json:"updated_content"`
}

// ValidationStatusResponse is one poll of the async validation pass
type ValidationStatusResponse struct {
	envelope
	ValidationStatus entities.ValidationStatus `json:"validation_status"`
}
