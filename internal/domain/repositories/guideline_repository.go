package repositories

import (
	"context"

	"github.com/radworks/reportassist/internal/domain/entities"
)

// GuidelineSearchParams defines parameters for guideline lookup
type GuidelineSearchParams struct {
	Query    string
	Modality string
	Limit    int
}

// GuidelineSearchRepository defines the interface for the guideline lookup index
type GuidelineSearchRepository interface {
	// Index upserts a guideline into the index
	Index(ctx context.Context, guideline *entities.Guideline) error

	// Search searches guidelines by condition text
	Search(ctx context.Context, params GuidelineSearchParams) ([]*entities.Guideline, error)

	// Delete removes a guideline from the index
	Delete(ctx context.Context, id string) error
}
