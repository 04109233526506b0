package routes

import (
	"net/http"

	"github.com/radworks/reportassist/internal/api/handlers"
	"github.com/radworks/reportassist/internal/api/middleware"
	"github.com/radworks/reportassist/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	reportHandler      *handlers.ReportHandler
	enhancementHandler *handlers.EnhancementHandler
	comparisonHandler  *handlers.ComparisonHandler
	guidelineHandler   *handlers.GuidelineHandler
	sseHandler         *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	reportHandler *handlers.ReportHandler,
	enhancementHandler *handlers.EnhancementHandler,
	comparisonHandler *handlers.ComparisonHandler,
	guidelineHandler *handlers.GuidelineHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		reportHandler:      reportHandler,
		enhancementHandler: enhancementHandler,
		comparisonHandler:  comparisonHandler,
		guidelineHandler:   guidelineHandler,
		sseHandler:         sseHandler,
		cacheMiddleware:    cacheMiddleware,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Report endpoints
	r.mux.HandleFunc("GET /api/reports", r.reportHandler.ListReports)
	r.mux.HandleFunc("POST /api/reports", r.reportHandler.CreateReport)
	r.mux.HandleFunc("GET /api/reports/{id}", r.reportHandler.GetReport)
	r.mux.HandleFunc("PUT /api/reports/{id}/content", r.reportHandler.UpdateReportContent)
	r.mux.HandleFunc("PATCH /api/reports/{id}/pin", r.reportHandler.PinReport)
	r.mux.HandleFunc("DELETE /api/reports/{id}", r.reportHandler.DeleteReport)
	r.mux.HandleFunc("GET /api/reports/{id}/revisions", r.reportHandler.ListRevisions)
	r.mux.HandleFunc("GET /api/reports/{id}/validation", r.reportHandler.GetValidationStatus)

	// Unfilled-item endpoints
	r.mux.HandleFunc("GET /api/reports/{id}/unfilled", r.reportHandler.ScanUnfilled)
	r.mux.HandleFunc("POST /api/reports/{id}/unfilled/apply", r.reportHandler.ApplyUnfilledEdits)

	// Enhancement endpoints
	r.mux.HandleFunc("GET /api/reports/{id}/enhancement", r.enhancementHandler.GetEnhancement)
	r.mux.HandleFunc("POST /api/reports/{id}/enhance", r.enhancementHandler.Enhance)
	r.mux.HandleFunc("POST /api/reports/{id}/chat", r.enhancementHandler.Chat)
	r.mux.HandleFunc("POST /api/reports/{id}/actions/apply", r.reportHandler.ApplyActions)
	r.mux.HandleFunc("POST /api/reports/switch", r.enhancementHandler.SwitchReport)

	// Comparison endpoints
	r.mux.HandleFunc("POST /api/reports/{id}/compare", r.comparisonHandler.Compare)
	r.mux.HandleFunc("POST /api/reports/{id}/compare/apply", r.comparisonHandler.ApplyRevision)

	// Guideline index endpoints
	if r.guidelineHandler != nil {
		r.mux.HandleFunc("GET /api/guidelines/search", r.guidelineHandler.SearchGuidelines)
		r.mux.HandleFunc("POST /api/guidelines", r.guidelineHandler.IndexGuideline)
		r.mux.HandleFunc("DELETE /api/guidelines/{id}", r.guidelineHandler.DeleteGuideline)
	}

	// Real-time stream endpoints
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/reports/{id}", r.sseHandler.StreamReportUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
