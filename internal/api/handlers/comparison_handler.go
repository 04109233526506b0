package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/radworks/reportassist/internal/domain/entities"
)

// ComparisonService defines the comparison operations the handler uses
type ComparisonService interface {
	Compare(ctx context.Context, reportID string, priors []entities.PriorReport) (*entities.ComparisonResult, error)
	ApplyRevision(ctx context.Context, reportID, revisedReport string) (*entities.Report, error)
}

// ComparisonHandler handles interval-comparison HTTP requests
type ComparisonHandler struct {
	service ComparisonService
}

// NewComparisonHandler creates a new comparison handler
func NewComparisonHandler(service ComparisonService) *ComparisonHandler {
	return &ComparisonHandler{service: service}
}

// Compare handles POST /api/reports/{id}/compare
func (h *ComparisonHandler) Compare(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	var body struct {
		PriorReports []entities.PriorReport `json:"prior_reports"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Compare(r.Context(), reportID, body.PriorReports)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// ApplyRevision handles POST /api/reports/{id}/compare/apply
func (h *ComparisonHandler) ApplyRevision(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	var body struct {
		RevisedReport string `json:"revised_report"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.service.ApplyRevision(r.Context(), reportID, body.RevisedReport)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
