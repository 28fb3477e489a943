package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/tribe/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used in reports.
const (
	VectorStore = "vector_store"
	Cache       = "cache"
	Embedding   = "embedding"
)

// DefaultTimeout bounds each component check.
const DefaultTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	vectors   Pinger
	cache     Pinger
	embedding Prober
	timeout   time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithCache adds the embedding cache to the report.
func WithCache(p Pinger) Option {
	return func(s *Service) { s.cache = p }
}

// WithEmbedding adds the embedding provider to the report.
func WithEmbedding(e Prober) Option {
	return func(s *Service) { s.embedding = e }
}

// WithTimeout overrides the per-check timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// New creates a Service reporting on the vector store and any optional components.
func New(vectors Pinger, opts ...Option) *Service {
	s := &Service{vectors: vectors, timeout: DefaultTimeout}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check runs every configured component check concurrently.
func (s *Service) Check(ctx context.Context) Report {
	probes := map[string]func(context.Context) error{VectorStore: s.vectors.Ping}
	if s.cache != nil {
		probes[Cache] = s.cache.Ping
	}
	if s.embedding != nil {
		probes[Embedding] = s.embedding.HealthCheck
	}

	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = make(map[string]CheckResult, len(probes))
	)
	for name, probe := range probes {
		name, probe := name, probe
		g.Go(func() error {
			res := s.run(ctx, name, probe)
			mu.Lock()
			checks[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // probes report through checks, never through the group

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, name string, check func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := check(ctx); err != nil {
		logger.FromContext(ctx).Warn("Health check failed", zap.String("component", name), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
