package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/radworks/reportassist/internal/application/services"
	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/infrastructure/clients/reportapi"
	apperrors "github.com/radworks/reportassist/pkg/errors"
)

func TestComparisonService_Compare_DropsEmptyPriors(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	service := services.NewComparisonService(api, nil)

	priors := []entities.PriorReport{
		{Text: "  ", Date: "2025-01-10"},
		{Text: "Stable 4mm nodule right upper lobe.", Date: "2025-06-02", ScanType: "CT Chest"},
	}

	api.On("Compare", mock.Anything, "rep-1", mock.MatchedBy(func(req reportapi.CompareRequest) bool {
		return len(req.PriorReports) == 1
	})).Return(&reportapi.CompareResponse{
		Comparison: &entities.ComparisonResult{
			Summary: "Nodule increased from 4mm to 5mm",
			Findings: []entities.ComparisonFinding{
				{Finding: "right upper lobe nodule", Change: entities.FindingChangeChanged},
			},
		},
	}, nil)

	result, err := service.Compare(ctx, "rep-1", priors)

	assert.NoError(t, err)
	assert.Equal(t, "Nodule increased from 4mm to 5mm", result.Summary)
}

func TestComparisonService_Compare_RejectsAllEmptyPriors(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	service := services.NewComparisonService(api, nil)

	_, err := service.Compare(ctx, "rep-1", []entities.PriorReport{{Text: "   "}})

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	api.AssertNotCalled(t, "Compare", mock.Anything, mock.Anything, mock.Anything)
}

func TestComparisonService_Compare_MissingResultIsSoftParse(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	service := services.NewComparisonService(api, nil)

	api.On("Compare", mock.Anything, "rep-1", mock.Anything).
		Return(&reportapi.CompareResponse{}, nil)

	_, err := service.Compare(ctx, "rep-1", []entities.PriorReport{{Text: "prior body"}})

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSoftParse))
}

func TestComparisonService_ApplyRevision_PersistsThroughReportService(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	repo := new(MockReportRepository)

	reports := services.NewReportService(repo, nil, api, nil, nil, nil, nil)
	service := services.NewComparisonService(api, reports)

	api.On("ApplyComparison", mock.Anything, "rep-1", reportapi.ApplyComparisonRequest{
		RevisedReport: "revised body",
	}).Return(&reportapi.ApplyComparisonResponse{UpdatedContent: "revised body"}, nil)
	repo.On("UpdateContent", mock.Anything, "rep-1", "revised body", entities.EditSourceComparison).Return(nil)
	repo.On("GetByID", mock.Anything, "rep-1").Return(&entities.Report{
		ID:            "rep-1",
		ReportContent: "revised body",
	}, nil)

	report, err := service.ApplyRevision(ctx, "rep-1", "revised body")

	assert.NoError(t, err)
	assert.Equal(t, "revised body", report.ReportContent)
	repo.AssertExpectations(t)
}

func TestComparisonService_ApplyRevision_RejectsEmptyBody(t *testing.T) {
	ctx := context.Background()
	api := new(MockReportAPI)
	service := services.NewComparisonService(api, nil)

	_, err := service.ApplyRevision(ctx, "rep-1", "  ")

	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
