package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/domain/repositories"
	tsclient "github.com/radworks/reportassist/internal/infrastructure/clients/typesense"
)

const collectionName = "guidelines"

// GuidelineAdapter implements guideline lookup using Typesense
type GuidelineAdapter struct {
	client *tsclient.Client
}

// Ensure GuidelineAdapter implements GuidelineSearchRepository
var _ repositories.GuidelineSearchRepository = (*GuidelineAdapter)(nil)

// NewGuidelineAdapter creates a new Typesense guideline adapter
func NewGuidelineAdapter(client *tsclient.Client) *GuidelineAdapter {
	return &GuidelineAdapter{client: client}
}

// InitSchema ensures the guidelines collection exists
func (a *GuidelineAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "condition", Type: "string"},
			{Name: "summary", Type: "string"},
			{Name: "modality", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "classification_systems", Type: "string[]", Optional: pointer.True()},
			{Name: "measurement_protocols", Type: "string[]", Optional: pointer.True()},
			{Name: "imaging_characteristics", Type: "string[]", Optional: pointer.True()},
			{Name: "differential_diagnoses", Type: "string[]", Optional: pointer.True()},
			{Name: "follow_up_recommendation", Type: "string", Optional: pointer.True()},
			{Name: "sources", Type: "string[]", Optional: pointer.True()},
		},
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index upserts a guideline
func (a *GuidelineAdapter) Index(ctx context.Context, guideline *entities.Guideline) error {
	document := map[string]interface{}{
		"id":                       guideline.ID,
		"condition":                guideline.Condition,
		"summary":                  guideline.Summary,
		"modality":                 guideline.Modality,
		"classification_systems":   guideline.ClassificationSystems,
		"measurement_protocols":    guideline.MeasurementProtocols,
		"imaging_characteristics":  guideline.ImagingCharacteristics,
		"differential_diagnoses":   guideline.DifferentialDiagnoses,
		"follow_up_recommendation": guideline.FollowUpRecommendation,
		"sources":                  guideline.Sources,
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index guideline: %w", err)
	}

	return nil
}

// Delete removes a guideline from the index
func (a *GuidelineAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete guideline from index: %w", err)
	}
	return nil
}

// Search searches guidelines by condition text
func (a *GuidelineAdapter) Search(ctx context.Context, params repositories.GuidelineSearchParams) ([]*entities.Guideline, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(params.Query),
		QueryBy: pointer.String("condition,summary"),
		PerPage: pointer.Int(limit),
	}
	if params.Modality != "" {
		searchParams.FilterBy = pointer.String(fmt.Sprintf("modality:=%s", params.Modality))
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search guidelines: %w", err)
	}

	guidelines := []*entities.Guideline{}
	if result.Hits == nil {
		return guidelines, nil
	}
	for _, hit := range *result.Hits {
		doc := *hit.Document

		guideline := &entities.Guideline{
			ID: docString(doc, "id"),
		}
		guideline.Condition = docString(doc, "condition")
		guideline.Summary = docString(doc, "summary")
		guideline.Modality = docString(doc, "modality")
		guideline.ClassificationSystems = docStrings(doc, "classification_systems")
		guideline.MeasurementProtocols = docStrings(doc, "measurement_protocols")
		guideline.ImagingCharacteristics = docStrings(doc, "imaging_characteristics")
		guideline.DifferentialDiagnoses = docStrings(doc, "differential_diagnoses")
		guideline.FollowUpRecommendation = docString(doc, "follow_up_recommendation")
		guideline.Sources = docStrings(doc, "sources")

		guidelines = append(guidelines, guideline)
	}

	return guidelines, nil
}

// Typesense returns documents as map[string]interface{}, so fields are
// extracted with safe casts rather than direct decoding.
func docString(doc map[string]interface{}, key string) string {
	if val, ok := doc[key].(string); ok {
		return strings.TrimSpace(val)
	}
	return ""
}

func docStrings(doc map[string]interface{}, key string) []string {
	raw, ok := doc[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
