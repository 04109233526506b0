package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/radworks/reportassist/internal/api/handlers"
	"github.com/radworks/reportassist/internal/domain/entities"
	apperrors "github.com/radworks/reportassist/pkg/errors"
)

type MockEnhancementService struct {
	mock.Mock
}

func (m *MockEnhancementService) Get(ctx context.Context, reportID string) (*entities.EnhancementEntry, bool) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*entities.EnhancementEntry), args.Bool(1)
}

func (m *MockEnhancementService) Load(ctx context.Context, reportID string, force bool) (*entities.EnhancementEntry, error) {
	args := m.Called(ctx, reportID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EnhancementEntry), args.Error(1)
}

func (m *MockEnhancementService) SendChat(ctx context.Context, reportID, message string) (*entities.ChatMessage, error) {
	args := m.Called(ctx, reportID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ChatMessage), args.Error(1)
}

func (m *MockEnhancementService) SwitchReport(previousID string) {
	m.Called(previousID)
}

func (m *MockEnhancementService) ResumeCompleteness(reportID string) {
	m.Called(reportID)
}

func TestEnhancementHandler_GetEnhancement_UncachedIs404(t *testing.T) {
	mockService := new(MockEnhancementService)
	handler := handlers.NewEnhancementHandler(mockService)

	mockService.On("Get", mock.Anything, "rep-1").Return(nil, false)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/rep-1/enhancement", nil)
	req.SetPathValue("id", "rep-1")
	rec := httptest.NewRecorder()

	handler.GetEnhancement(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnhancementHandler_Enhance_PassesForceFlag(t *testing.T) {
	mockService := new(MockEnhancementService)
	handler := handlers.NewEnhancementHandler(mockService)

	entry := &entities.EnhancementEntry{
		ReportID: "rep-1",
		Findings: []entities.Finding{{Finding: "5mm nodule"}},
		Pending:  true,
	}
	mockService.On("Load", mock.Anything, "rep-1", true).Return(entry, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/rep-1/enhance?force=true", nil)
	req.SetPathValue("id", "rep-1")
	rec := httptest.NewRecorder()

	handler.Enhance(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body entities.EnhancementEntry
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Pending)
	assert.Len(t, body.Findings, 1)
	mockService.AssertCalled(t, "Load", mock.Anything, "rep-1", true)
}

func TestEnhancementHandler_Enhance_ConflictWhenInvalidatedMidFlight(t *testing.T) {
	mockService := new(MockEnhancementService)
	handler := handlers.NewEnhancementHandler(mockService)

	mockService.On("Load", mock.Anything, "rep-1", false).
		Return(nil, apperrors.NewConflictError("report changed while enhancement was running"))

	req := httptest.NewRequest(http.MethodPost, "/api/reports/rep-1/enhance", nil)
	req.SetPathValue("id", "rep-1")
	rec := httptest.NewRecorder()

	handler.Enhance(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEnhancementHandler_Chat_RequiresMessage(t *testing.T) {
	mockService := new(MockEnhancementService)
	handler := handlers.NewEnhancementHandler(mockService)

	body, _ := json.Marshal(map[string]string{"message": "   "})
	req := httptest.NewRequest(http.MethodPost, "/api/reports/rep-1/chat", bytes.NewReader(body))
	req.SetPathValue("id", "rep-1")
	rec := httptest.NewRecorder()

	handler.Chat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "SendChat", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnhancementHandler_SwitchReport_StopsOldResumesNew(t *testing.T) {
	mockService := new(MockEnhancementService)
	handler := handlers.NewEnhancementHandler(mockService)

	mockService.On("SwitchReport", "rep-old").Return()
	mockService.On("ResumeCompleteness", "rep-new").Return()

	body, _ := json.Marshal(map[string]string{
		"previous_id": "rep-old",
		"next_id":     "rep-new",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reports/switch", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SwitchReport(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockService.AssertExpectations(t)
}
