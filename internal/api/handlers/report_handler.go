package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/domain/repositories"
	"github.com/radworks/reportassist/internal/unfilled"
	apperrors "github.com/radworks/reportassist/pkg/errors"
)

// ReportService defines the report operations the handler depends on
type ReportService interface {
	Create(ctx context.Context, report *entities.Report) error
	GetByID(ctx context.Context, id string) (*entities.Report, error)
	List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error)
	SetPinned(ctx context.Context, id string, pinned bool) error
	Delete(ctx context.Context, id string) error
	Revisions(ctx context.Context, reportID string, limit int) ([]*entities.ReportRevision, error)
	UpdateContent(ctx context.Context, reportID, content string, source entities.EditSource) (*entities.Report, error)
	ScanUnfilled(ctx context.Context, reportID string) (*unfilled.ScanResult, string, error)
	ApplyUnfilledEdits(ctx context.Context, reportID string, edits []entities.UnfilledEdit) (*entities.PatchResult, *entities.Report, error)
	ApplySuggestedActions(ctx context.Context, reportID string, actions []entities.SuggestedAction) (*entities.Report, []string, error)
	ValidationStatus(ctx context.Context, reportID string) (*entities.ValidationStatus, error)
}

// ReportHandler handles report-related HTTP requests
type ReportHandler struct {
	service ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// ListReports handles GET /api/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repositories.ReportFilter{
		Status:   entities.ReportStatus(query.Get("status")),
		ScanType: query.Get("scan_type"),
		Limit:    30,
	}
	if pinned := query.Get("pinned"); pinned != "" {
		value := pinned == "true"
		filter.Pinned = &value
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	reports, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetReport handles GET /api/reports/{id}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	report, err := h.service.GetByID(r.Context(), reportID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// CreateReport handles POST /api/reports
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var report entities.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if report.PatientRef == "" || report.ScanType == "" {
		respondWithError(w, http.StatusBadRequest, "patient_ref and scan_type are required")
		return
	}

	if err := h.service.Create(r.Context(), &report); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, report)
}

// UpdateReportContent handles PUT /api/reports/{id}/content
func (h *ReportHandler) UpdateReportContent(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	var body struct {
		Content    string `json:"content"`
		EditSource string `json:"edit_source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	source := entities.EditSource(body.EditSource)
	if source == "" {
		source = entities.EditSourceManual
	}

	report, err := h.service.UpdateContent(r.Context(), reportID, body.Content, source)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// PinReport handles PATCH /api/reports/{id}/pin
func (h *ReportHandler) PinReport(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	var body struct {
		Pinned bool `json:"pinned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SetPinned(r.Context(), reportID, body.Pinned); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"id":     reportID,
		"pinned": body.Pinned,
	})
}

// DeleteReport handles DELETE /api/reports/{id}
func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	if err := h.service.Delete(r.Context(), reportID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRevisions handles GET /api/reports/{id}/revisions
func (h *ReportHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	limit := 50
	if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed > 0 {
		limit = parsed
	}

	revisions, err := h.service.Revisions(r.Context(), reportID, limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"revisions": revisions,
		"count":     len(revisions),
	})
}

// ScanUnfilled handles GET /api/reports/{id}/unfilled
func (h *ReportHandler) ScanUnfilled(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	scan, content, err := h.service.ScanUnfilled(r.Context(), reportID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items":   scan.All(),
		"count":   scan.Count(),
		"content": content,
	})
}

// ApplyUnfilledEdits handles POST /api/reports/{id}/unfilled/apply
func (h *ReportHandler) ApplyUnfilledEdits(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	var body struct {
		Edits []entities.UnfilledEdit `json:"edits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Edits) == 0 {
		respondWithError(w, http.StatusBadRequest, "at least one edit is required")
		return
	}

	result, report, err := h.service.ApplyUnfilledEdits(r.Context(), reportID, body.Edits)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"applied_count": result.AppliedCount,
		"skipped":       result.Skipped,
		"report":        report,
	})
}

// ApplyActions handles POST /api/reports/{id}/actions/apply
func (h *ReportHandler) ApplyActions(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	var body struct {
		Actions []entities.SuggestedAction `json:"actions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Actions) == 0 {
		respondWithError(w, http.StatusBadRequest, "at least one action is required")
		return
	}

	report, applied, err := h.service.ApplySuggestedActions(r.Context(), reportID, body.Actions)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"applied_ids": applied,
		"report":      report,
	})
}

// GetValidationStatus handles GET /api/reports/{id}/validation
func (h *ReportHandler) GetValidationStatus(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	status, err := h.service.ValidationStatus(r.Context(), reportID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithServiceError maps application errors onto HTTP statuses.
// Upstream error messages pass through verbatim; transport failures get a
// generic message so internal addresses never leak to clients.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case apperrors.ErrorTypeConflict:
		respondWithError(w, http.StatusConflict, appErr.Message)
	case apperrors.ErrorTypeTimeout:
		respondWithError(w, http.StatusGatewayTimeout, appErr.Message)
	case apperrors.ErrorTypeUpstream:
		respondWithError(w, http.StatusBadGateway, appErr.Message)
	case apperrors.ErrorTypeSoftParse:
		respondWithError(w, http.StatusBadGateway, appErr.Message+"; the operation may have completed, refresh to see the latest state")
	case apperrors.ErrorTypeTransport:
		respondWithError(w, http.StatusBadGateway, "upstream report service unreachable")
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
