package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/radworks/reportassist/internal/domain/entities"
)

// EnhancementService defines the enhancement operations the handler uses
type EnhancementService interface {
	Get(ctx context.Context, reportID string) (*entities.EnhancementEntry, bool)
	Load(ctx context.Context, reportID string, force bool) (*entities.EnhancementEntry, error)
	SendChat(ctx context.Context, reportID, message string) (*entities.ChatMessage, error)
	SwitchReport(previousID string)
	ResumeCompleteness(reportID string)
}

// EnhancementHandler handles enhancement-related HTTP requests
type EnhancementHandler struct {
	service EnhancementService
}

// NewEnhancementHandler creates a new enhancement handler
func NewEnhancementHandler(service EnhancementService) *EnhancementHandler {
	return &EnhancementHandler{service: service}
}

// GetEnhancement handles GET /api/reports/{id}/enhancement. It serves only
// from cache; the client triggers a load explicitly via Enhance.
func (h *EnhancementHandler) GetEnhancement(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	entry, cached := h.service.Get(r.Context(), reportID)
	if !cached {
		respondWithError(w, http.StatusNotFound, "no enhancement cached for this report")
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// Enhance handles POST /api/reports/{id}/enhance. With ?force=true the
// cached entry is bypassed and recomputed.
func (h *EnhancementHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	force := r.URL.Query().Get("force") == "true"

	entry, err := h.service.Load(r.Context(), reportID, force)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// Chat handles POST /api/reports/{id}/chat
func (h *EnhancementHandler) Chat(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		respondWithError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.service.SendChat(r.Context(), reportID, body.Message)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, reply)
}

// SwitchReport handles POST /api/reports/switch. The workbench calls this
// when the user navigates between reports: background polling stops for the
// report being left and resumes for the one being opened if its cached
// entry is still pending.
func (h *EnhancementHandler) SwitchReport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PreviousID string `json:"previous_id"`
		NextID     string `json:"next_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.PreviousID != "" {
		h.service.SwitchReport(body.PreviousID)
	}
	if body.NextID != "" {
		h.service.ResumeCompleteness(body.NextID)
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"previous_id": body.PreviousID,
		"next_id":     body.NextID,
	})
}
