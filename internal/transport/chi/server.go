package chi

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/domain/chat"
	"github.com/kailas-cloud/tribe/internal/domain/facet"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
	"github.com/kailas-cloud/tribe/internal/domain/search/mode"
	"github.com/kailas-cloud/tribe/internal/logger"
	healthuc "github.com/kailas-cloud/tribe/internal/usecase/health"
)

// APIPrefix is the mount point of the JSON API.
const APIPrefix = "/api/v1"

// SearchDefaults apply to search requests that leave strategy or filter unset.
type SearchDefaults struct {
	Strategy mode.Strategy
	Filter   filter.Expr
}

// Services are the use cases the server exposes. Search, Fetch and Health may be
// nil; their routes then answer 501.
type Services struct {
	Chat     ChatService
	Search   SearchService
	Fetch    Fetcher
	Health   HealthChecker
	Usage    UsageReporter
	Sessions *chat.Registry
}

// Server serves the chat form and the JSON API.
type Server struct {
	chat          ChatService
	search        SearchService
	fetch         Fetcher
	health        HealthChecker
	usage         UsageReporter
	sessions      *chat.Registry
	catalog       facet.Catalog
	defaults      SearchDefaults
	logger        *zap.Logger
	pages         *template.Template
	errorHandlers []errorHandler
}

// NewServer creates an HTTP server over svc.
func NewServer(svc Services, catalog facet.Catalog, defaults SearchDefaults, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.Strategy == nil {
		defaults.Strategy = mode.Similarity{K: mode.DefaultK}
	}
	return &Server{
		chat:          svc.Chat,
		search:        svc.Search,
		fetch:         svc.Fetch,
		health:        svc.Health,
		usage:         svc.Usage,
		sessions:      svc.Sessions,
		catalog:       catalog,
		defaults:      defaults,
		logger:        logger,
		pages:         pages,
		errorHandlers: defaultErrorHandlers,
	}
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.Index)
	r.Post("/chat", s.SubmitForm)
	r.Post("/chat/clear", s.ClearForm)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Post("/chat", s.PostChat)
		r.Get("/history", s.GetHistory)
		r.Delete("/history", s.DeleteHistory)
		r.Get("/facets", s.GetFacets)
		r.Post("/search", s.PostSearch)
		r.Post("/fetch", s.PostFetch)
		r.Post("/documents", s.PostDocuments)
		r.Delete("/documents", s.DeleteDocuments)
		r.Get("/usage", s.GetUsage)
	})

	s.logger.Debug("Routes registered",
		zap.Bool("search", s.search != nil),
		zap.Bool("fetch", s.fetch != nil),
		zap.Bool("health", s.health != nil),
	)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": healthuc.Healthy})
		return
	}
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logger.FromContext(r.Context())
}
