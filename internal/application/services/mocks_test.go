package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/domain/repositories"
	"github.com/radworks/reportassist/internal/infrastructure/clients/reportapi"
)

type MockReportAPI struct {
	mock.Mock
}

func (m *MockReportAPI) Enhance(ctx context.Context, reportID string, skipCompleteness bool) (*reportapi.EnhanceResponse, error) {
	args := m.Called(ctx, reportID, skipCompleteness)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapi.EnhanceResponse), args.Error(1)
}

func (m *MockReportAPI) PollCompleteness(ctx context.Context, reportID string) (*reportapi.CompletenessPollResponse, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapi.CompletenessPollResponse), args.Error(1)
}

func (m *MockReportAPI) SendChatMessage(ctx context.Context, reportID string, req reportapi.ChatRequest) (*reportapi.ChatResponse, error) {
	args := m.Called(ctx, reportID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapi.ChatResponse), args.Error(1)
}

func (m *MockReportAPI) UpdateReport(ctx context.Context, reportID string, req reportapi.UpdateRequest) (*reportapi.UpdateResponse, error) {
	args := m.Called(ctx, reportID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapi.UpdateResponse), args.Error(1)
}

func (m *MockReportAPI) ApplyActions(ctx context.Context, reportID string, req reportapi.ApplyActionsRequest) (*reportapi.UpdateResponse, error) {
	args := m.Called(ctx, reportID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapi.UpdateResponse), args.Error(1)
}

func (m *MockReportAPI) Compare(ctx context.Context, reportID string, req reportapi.CompareRequest) (*reportapi.CompareResponse, error) {
	args := m.Called(ctx, reportID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapi.CompareResponse), args.Error(1)
}

func (m *MockReportAPI) ApplyComparison(ctx context.Context, reportID string, req reportapi.ApplyComparisonRequest) (*reportapi.ApplyComparisonResponse, error) {
	args := m.Called(ctx, reportID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapi.ApplyComparisonResponse), args.Error(1)
}

func (m *MockReportAPI) ValidationStatus(ctx context.Context, reportID string) (*reportapi.ValidationStatusResponse, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapi.ValidationStatusResponse), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.ReportEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReportEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.ReportEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, report *entities.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Report), args.Error(1)
}

func (m *MockReportRepository) List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Report), args.Error(1)
}

func (m *MockReportRepository) UpdateContent(ctx context.Context, id, content string, source entities.EditSource) error {
	args := m.Called(ctx, id, content, source)
	return args.Error(0)
}

func (m *MockReportRepository) SetPinned(ctx context.Context, id string, pinned bool) error {
	args := m.Called(ctx, id, pinned)
	return args.Error(0)
}

func (m *MockReportRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockGuidelineIndex struct {
	mock.Mock
}

func (m *MockGuidelineIndex) Index(ctx context.Context, guideline *entities.Guideline) error {
	args := m.Called(ctx, guideline)
	return args.Error(0)
}

func (m *MockGuidelineIndex) Search(ctx context.Context, params repositories.GuidelineSearchParams) ([]*entities.Guideline, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Guideline), args.Error(1)
}

func (m *MockGuidelineIndex) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockRevisionRepository struct {
	mock.Mock
}

func (m *MockRevisionRepository) Append(ctx context.Context, revision *entities.ReportRevision) error {
	args := m.Called(ctx, revision)
	return args.Error(0)
}

func (m *MockRevisionRepository) ListByReport(ctx context.Context, reportID string, limit int) ([]*entities.ReportRevision, error) {
	args := m.Called(ctx, reportID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ReportRevision), args.Error(1)
}
