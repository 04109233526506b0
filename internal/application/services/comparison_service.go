package services

import (
	"context"
	"strings"

	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/infrastructure/clients/reportapi"
	apperrors "github.com/radworks/reportassist/pkg/errors"
)

// ComparisonService runs the interval-comparison workflow against prior
// studies. Results are deliberately not cached anywhere: each comparison is
// a one-shot exchange whose output either gets applied to the report or is
// discarded.
type ComparisonService struct {
	client  reportapi.Client
	reports *ReportService
}

// NewComparisonService creates a new comparison service
func NewComparisonService(client reportapi.Client, reports *ReportService) *ComparisonService {
	return &ComparisonService{
		client:  client,
		reports: reports,
	}
}

// Compare submits prior studies for comparison against the current report
func (s *ComparisonService) Compare(ctx context.Context, reportID string, priors []entities.PriorReport) (*entities.ComparisonResult, error) {
	cleaned := make([]entities.PriorReport, 0, len(priors))
	for _, prior := range priors {
		if strings.TrimSpace(prior.Text) == "" {
			continue
		}
		cleaned = append(cleaned, prior)
	}
	if len(cleaned) == 0 {
		return nil, apperrors.NewValidationError("at least one non-empty prior report is required")
	}

	resp, err := s.client.Compare(ctx, reportID, reportapi.CompareRequest{PriorReports: cleaned})
	if err != nil {
		return nil, err
	}
	if resp.Comparison == nil {
		return nil, apperrors.NewSoftParseError("comparison response missing result", nil)
	}
	return resp.Comparison, nil
}

// ApplyRevision accepts the revised report produced by a comparison and
// persists it through the normal content-update path.
func (s *ComparisonService) ApplyRevision(ctx context.Context, reportID, revisedReport string) (*entities.Report, error) {
	if strings.TrimSpace(revisedReport) == "" {
		return nil, apperrors.NewValidationError("revised report body is required")
	}

	resp, err := s.client.ApplyComparison(ctx, reportID, reportapi.ApplyComparisonRequest{
		RevisedReport: revisedReport,
	})
	if err != nil {
		return nil, err
	}

	return s.reports.persistContent(ctx, reportID, resp.UpdatedContent, entities.EditSourceComparison, true)
}
