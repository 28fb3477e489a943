package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/config"
	"github.com/kailas-cloud/tribe/internal/db/astra"
	dbValkey "github.com/kailas-cloud/tribe/internal/db/valkey"
	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/domain/chat"
	"github.com/kailas-cloud/tribe/internal/domain/facet"
	"github.com/kailas-cloud/tribe/internal/domain/tweaks"
	logpkg "github.com/kailas-cloud/tribe/internal/logger"
	"github.com/kailas-cloud/tribe/internal/metrics"
	"github.com/kailas-cloud/tribe/internal/repository/budget"
	"github.com/kailas-cloud/tribe/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/tribe/internal/transport/chi"
	"github.com/kailas-cloud/tribe/internal/transport/langflow"
	openaiEmb "github.com/kailas-cloud/tribe/internal/transport/openai"
	chatuc "github.com/kailas-cloud/tribe/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/tribe/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/tribe/internal/usecase/health"
	"github.com/kailas-cloud/tribe/internal/usecase/pager"
	searchuc "github.com/kailas-cloud/tribe/internal/usecase/search"
	usageuc "github.com/kailas-cloud/tribe/internal/usecase/usage"
	"github.com/kailas-cloud/tribe/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tribe server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("flow_id", cfg.Flow.FlowID),
		zap.Bool("vector_store", cfg.VectorStore.APIEndpoint != ""),
		zap.Bool("cache", cfg.Cache.Enabled()),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterFlowMetrics()
	metrics.RegisterVectorMetrics()
	metrics.RegisterEmbeddingMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional embedding cache
	var cache *dbValkey.Store
	if cfg.Cache.Enabled() {
		cache, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cache.Close()

		if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache")
	}

	embedder, tracker := buildEmbedder(ctx, cfg, cache, logger)
	var usage chiTransport.UsageReporter
	if tracker != nil {
		usage = usageuc.New(tracker)
	}

	// Vector store: search, ingestion and the paginated fetcher
	var (
		vectors  *astra.Store
		searcher chiTransport.SearchService
		fetcher  chiTransport.Fetcher
	)
	policy := retryPolicy(cfg.Retry)
	if cfg.VectorStore.APIEndpoint != "" {
		vectors, err = astra.NewStore(astraConfig(cfg.VectorStore), logger)
		if err != nil {
			logger.Fatal("Failed to create vector store", zap.Error(err))
		}
		if err := vectors.Provision(ctx); err != nil {
			logger.Fatal("Vector store setup failed", zap.Error(err))
		}
		fetcher = pager.New(vectors, pager.WithRetry(policy), pager.WithLogger(logger))
		if embedder != nil {
			searcher = searchuc.New(vectors, embedder, policy)
		}
	}

	defaults, err := searchDefaults(cfg.VectorStore)
	if err != nil {
		logger.Fatal("Invalid search defaults", zap.Error(err))
	}

	// Chat: one session per browser or API caller
	vsTweak := vectorStoreTweak(cfg.VectorStore)
	sessions := chat.NewRegistry(func() tweaks.Map { return tweaks.Base(vsTweak) })
	go sweepSessions(ctx, sessions, cfg.Session, logger)

	flow := langflow.New(langflow.Config{
		BaseURL:    cfg.Flow.BaseURL,
		LangflowID: cfg.Flow.LangflowID,
		FlowID:     cfg.Flow.FlowID,
		InputSlot:  tweaks.SlotID(cfg.Flow.InputSlot),
		Timeout:    time.Duration(cfg.Flow.TimeoutSec) * time.Second,
		TokenEnv:   cfg.Flow.TokenEnv,
	}, langflow.WithLogger(logger))
	chatSvc := chatuc.New(flow, langflow.ExtractMessage)

	// Health service
	var healthOpts []healthuc.Option
	if cache != nil {
		healthOpts = append(healthOpts, healthuc.WithCache(cache))
	}
	if p, ok := embedder.(healthuc.Prober); ok {
		healthOpts = append(healthOpts, healthuc.WithEmbedding(p))
	}
	var health chiTransport.HealthChecker
	if vectors != nil {
		health = healthuc.New(vectors, healthOpts...)
	}

	server := chiTransport.NewServer(chiTransport.Services{
		Chat:     chatSvc,
		Search:   searcher,
		Fetch:    fetcher,
		Health:   health,
		Usage:    usage,
		Sessions: sessions,
	}, facet.DefaultCatalog(), defaults, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.APIKeyAuth(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// sweepSessions drops idle sessions until ctx is done.
func sweepSessions(ctx context.Context, reg *chat.Registry, cfg config.SessionConfig, logger *zap.Logger) {
	idle := time.Duration(cfg.IdleTTLSec) * time.Second
	ticker := time.NewTicker(time.Duration(cfg.SweepIntervalSec) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := reg.Sweep(now, idle); n > 0 {
				logger.Debug("Idle sessions dropped", zap.Int("dropped", n), zap.Int("live", reg.Len()))
			}
		}
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Guard.
// It returns nils when no provider is configured.
func buildEmbedder(
	ctx context.Context, cfg config.Config, cache *dbValkey.Store, logger *zap.Logger,
) (domain.Embedder, *embeddinguc.BudgetTracker) {
	if cfg.Embedding.APIKey == "" && cfg.Embedding.BaseURL == "" {
		logger.Warn("No embedding provider configured, vector search disabled")
		return nil, nil
	}

	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	var emb domain.Embedder = base
	if cache != nil {
		emb = embcache.New(base, cache, cfg.Embedding.Model,
			time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.EmbeddingCacheTotal, logger)
	}

	// Budget sits outside the cache so cache hits cost nothing
	bc := cfg.Embedding.Budget
	tracker := embeddinguc.NewBudgetTracker("openai", embeddinguc.Limits{
		Daily:   bc.DailyTokens,
		Monthly: bc.MonthlyTokens,
		Action:  embeddinguc.BudgetAction(bc.Action),
	}, logger)
	if cache != nil {
		tracker.WithStore(ctx, budget.New(cache, budget.DefaultDailyTTL, budget.DefaultMonthlyTTL))
	}
	return embeddinguc.NewGuard(emb, "openai", tracker, logger), tracker
}
