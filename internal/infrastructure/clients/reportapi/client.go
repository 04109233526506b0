package reportapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/radworks/reportassist/pkg/config"
	apperrors "github.com/radworks/reportassist/pkg/errors"
)

// Client defines the operations of the upstream report-generation API
type Client interface {
	Enhance(ctx context.Context, reportID string, skipCompleteness bool) (*EnhanceResponse, error)
	PollCompleteness(ctx context.Context, reportID string) (*CompletenessPollResponse, error)
	SendChatMessage(ctx context.Context, reportID string, req ChatRequest) (*ChatResponse, error)
	UpdateReport(ctx context.Context, reportID string, req UpdateRequest) (*UpdateResponse, error)
	ApplyActions(ctx context.Context, reportID string, req ApplyActionsRequest) (*UpdateResponse, error)
	Compare(ctx context.Context, reportID string, req CompareRequest) (*CompareResponse, error)
	ApplyComparison(ctx context.Context, reportID string, req ApplyComparisonRequest) (*ApplyComparisonResponse, error)
	ValidationStatus(ctx context.Context, reportID string) (*ValidationStatusResponse, error)
}

// HTTPDoer defines the interface for HTTP operations
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient implements Client against the upstream HTTP API
type HTTPClient struct {
	baseURL         string
	token           string
	generateTimeout time.Duration
	httpClient      HTTPDoer
}

// Option allows configuring the HTTPClient
type Option func(*HTTPClient)

// WithHTTPDoer sets a custom HTTP transport
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *HTTPClient) {
		c.httpClient = doer
	}
}

// NewHTTPClient creates a new upstream report API client
func NewHTTPClient(cfg *config.ReportAPIConfig, opts ...Option) (*HTTPClient, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errors.New("report api base url is required")
	}

	generateTimeout := cfg.GenerateTimeout
	if generateTimeout <= 0 {
		generateTimeout = 2 * time.Minute
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	client := &HTTPClient{
		baseURL:         cfg.BaseURL,
		token:           cfg.AuthToken,
		generateTimeout: generateTimeout,
		httpClient:      &http.Client{Timeout: requestTimeout},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Enhance runs the enhancement pipeline for a report. This is the
// long-running generation-class call; it is aborted after the configured
// generation budget and the timeout is reported distinctly.
func (c *HTTPClient) Enhance(ctx context.Context, reportID string, skipCompleteness bool) (*EnhanceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	path := fmt.Sprintf("/api/reports/%s/enhance?skip_completeness=%t", reportID, skipCompleteness)
	var out EnhanceResponse
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PollCompleteness polls the async completeness computation status
func (c *HTTPClient) PollCompleteness(ctx context.Context, reportID string) (*CompletenessPollResponse, error) {
	var out CompletenessPollResponse
	if err := c.do(ctx, http.MethodGet, "/api/reports/"+reportID+"/completeness", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendChatMessage sends one chat turn with history
func (c *HTTPClient) SendChatMessage(ctx context.Context, reportID string, req ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/reports/"+reportID+"/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateReport replaces the report body upstream
func (c *HTTPClient) UpdateReport(ctx context.Context, reportID string, req UpdateRequest) (*UpdateResponse, error) {
	var out UpdateResponse
	if err := c.do(ctx, http.MethodPut, "/api/reports/"+reportID+"/update", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyActions applies accepted suggested actions upstream
func (c *HTTPClient) ApplyActions(ctx context.Context, reportID string, req ApplyActionsRequest) (*UpdateResponse, error) {
	var out UpdateResponse
	if err := c.do(ctx, http.MethodPost, "/api/reports/"+reportID+"/apply-actions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Compare runs an interval comparison against prior studies
func (c *HTTPClient) Compare(ctx context.Context, reportID string, req CompareRequest) (*CompareResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	var out CompareResponse
	if err := c.do(ctx, http.MethodPost, "/api/reports/"+reportID+"/compare", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyComparison applies the revised report produced by a comparison
func (c *HTTPClient) ApplyComparison(ctx context.Context, reportID string, req ApplyComparisonRequest) (*ApplyComparisonResponse, error) {
	var out ApplyComparisonResponse
	if err := c.do(ctx, http.MethodPost, "/api/reports/"+reportID+"/apply-comparison", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidationStatus polls the async validation pass status
func (c *HTTPClient) ValidationStatus(ctx context.Context, reportID string) (*ValidationStatusResponse, error) {
	var out ValidationStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/reports/"+reportID+"/validation-status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// successCarrier lets do inspect the envelope of any decoded response
type successCarrier interface {
	succeeded() bool
	errorMessage() string
}

func (e envelope) succeeded() bool      { return e.Success }
func (e envelope) errorMessage() string { return e.Error }

func (c *HTTPClient) do(ctx context.Context, method, path string, body interface{}, out successCarrier) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError("failed to encode request", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	recordUpstreamMetric(ctx, method, path, statusOf(resp), time.Since(start), err)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperrors.NewTimeoutError("report generation is taking longer than expected", err)
		}
		return apperrors.NewTransportError("report api unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportError("failed to read report api response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// A parseable error body still carries the server's message.
		var env envelope
		if jsonErr := json.Unmarshal(raw, &env); jsonErr == nil && env.Error != "" {
			return apperrors.NewUpstreamError(env.Error)
		}
		return apperrors.NewTransportError(fmt.Sprintf("report api returned status %d", resp.StatusCode), nil)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		// HTTP 200 with an unparseable body: the operation may have
		// succeeded server-side, so this stays a soft error.
		return apperrors.NewSoftParseError("report api response could not be parsed; the operation may have completed", err)
	}

	if !out.succeeded() {
		return apperrors.NewUpstreamError(out.errorMessage())
	}

	return nil
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
