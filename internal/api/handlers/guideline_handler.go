package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/domain/repositories"
)

// GuidelineHandler handles guideline index HTTP requests
type GuidelineHandler struct {
	searchRepo repositories.GuidelineSearchRepository
}

// NewGuidelineHandler creates a new guideline handler
func NewGuidelineHandler(searchRepo repositories.GuidelineSearchRepository) *GuidelineHandler {
	return &GuidelineHandler{searchRepo: searchRepo}
}

// SearchGuidelines handles GET /api/guidelines/search
func (h *GuidelineHandler) SearchGuidelines(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := strings.TrimSpace(query.Get("q"))
	if q == "" {
		respondWithError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	params := repositories.GuidelineSearchParams{
		Query:    q,
		Modality: query.Get("modality"),
		Limit:    10,
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		params.Limit = limit
	}

	guidelines, err := h.searchRepo.Search(r.Context(), params)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to search guidelines")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"guidelines": guidelines,
		"count":      len(guidelines),
	})
}

// IndexGuideline handles POST /api/guidelines
func (h *GuidelineHandler) IndexGuideline(w http.ResponseWriter, r *http.Request) {
	var guideline entities.Guideline
	if err := json.NewDecoder(r.Body).Decode(&guideline); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(guideline.Condition) == "" {
		respondWithError(w, http.StatusBadRequest, "condition is required")
		return
	}
	if guideline.ID == "" {
		guideline.ID = uuid.NewString()
	}

	if err := h.searchRepo.Index(r.Context(), &guideline); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to index guideline")
		return
	}

	respondWithJSON(w, http.StatusCreated, guideline)
}

// DeleteGuideline handles DELETE /api/guidelines/{id}
func (h *GuidelineHandler) DeleteGuideline(w http.ResponseWriter, r *http.Request) {
	guidelineID := r.PathValue("id")
	if guidelineID == "" {
		respondWithError(w, http.StatusBadRequest, "guideline ID is required")
		return
	}

	if err := h.searchRepo.Delete(r.Context(), guidelineID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to delete guideline")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
