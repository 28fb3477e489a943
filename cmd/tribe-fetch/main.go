// Command tribe-fetch runs one filtered vector search and then a keyset-paginated
// fetch of the same audience, printing both to the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/db/astra"
	"github.com/kailas-cloud/tribe/internal/domain/document"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
	"github.com/kailas-cloud/tribe/internal/domain/search/mode"
	logpkg "github.com/kailas-cloud/tribe/internal/logger"
	"github.com/kailas-cloud/tribe/internal/retry"
	openaiEmb "github.com/kailas-cloud/tribe/internal/transport/openai"
	"github.com/kailas-cloud/tribe/internal/usecase/pager"
	searchuc "github.com/kailas-cloud/tribe/internal/usecase/search"
)

const defaultFilter = `[{"field":"likes","operator":"gte","value":100},{"field":"tribe","operator":"eq","value":0}]`

var (
	endpoint   = flag.String("endpoint", os.Getenv("ASTRA_DB_API_ENDPOINT"), "Vector database API endpoint")
	collection = flag.String("collection", "climate_change", "Collection name")
	namespace  = flag.String("namespace", astra.DefaultNamespace, "Keyspace")
	tokenEnv   = flag.String("token-env", "ASTRA_DB_VECTOR_TOKEN", "Environment variable holding the database token")
	model      = flag.String("model", "text-embedding-3-large", "Embedding model")
	query      = flag.String("query", "how do people feel about global warming?", "Search query")
	conditions = flag.String("filter", defaultFilter, "Metadata filter as a JSON list of {field, operator, value}")
	limit      = flag.Int("limit", 25, "Number of vector search results")
	total      = flag.Int("total", 100, "Documents to fetch with pagination (0 skips the fetch)")
	batch      = flag.Int("batch", 25, "Page size of the paginated fetch")
	retries    = flag.Int("retries", 3, "Attempts per page (1 disables retrying)")
	timeout    = flag.Duration("timeout", 10*time.Second, "Server time budget of the vector search")
	verbose    = flag.Bool("v", false, "Debug logging")
)

func main() {
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logpkg.NewLogger("local", level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	if err := run(ctx, logger); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	f, err := filter.ParseConditions(*conditions)
	if err != nil {
		return fmt.Errorf("parse filter: %w", err)
	}

	store, err := astra.NewStore(astra.Config{
		APIEndpoint:    *endpoint,
		Token:          os.Getenv(*tokenEnv),
		Namespace:      *namespace,
		CollectionName: *collection,
		SetupMode:      astra.SetupOff,
	}, logger)
	if err != nil {
		return err
	}

	policy := retry.Policy{MaxAttempts: *retries, Min: time.Second, Max: 5 * time.Second}
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:   os.Getenv("OPENAI_API_KEY"),
		Model:    *model,
		Provider: "openai",
		Logger:   logger,
	})
	search := searchuc.New(store, embedder, policy)

	fmt.Printf("%s %q\n", cyan("Vector search:"), *query)
	start := time.Now()
	docs, err := search.Search(ctx, searchuc.Query{
		Text:     *query,
		Filter:   f,
		Strategy: mode.Custom{K: *limit, Timeout: *timeout},
	})
	if err != nil {
		return fmt.Errorf("vector search: %w", err)
	}
	fmt.Printf("%d result(s) in %s\n\n", len(docs), time.Since(start).Round(time.Millisecond))
	for i, d := range docs {
		printDoc(i+1, d, true, bold)
	}

	if *total <= 0 {
		return nil
	}

	fmt.Printf("\n%s total=%d batch=%d\n", cyan("Paginated fetch:"), *total, *batch)
	start = time.Now()
	fetched, err := pager.New(store, pager.WithRetry(policy), pager.WithLogger(logger)).Fetch(ctx, f, *total, *batch)
	if err != nil {
		return fmt.Errorf("paginated fetch: %w", err)
	}
	fmt.Printf("%d document(s) in %s\n\n", len(fetched), time.Since(start).Round(time.Millisecond))
	for i, d := range fetched {
		printDoc(i+1, d, false, bold)
	}
	return nil
}

func printDoc(n int, d document.Document, scored bool, bold func(a ...any) string) {
	header := fmt.Sprintf("#%d %s", n, d.ID)
	if scored {
		header += color.GreenString("  %.4f", d.Similarity)
	}
	fmt.Println(bold(header))
	fmt.Printf("  %s | tribe %s | %s %s in %s | %s likes | %s\n",
		d.MetadataString("platform", "?"),
		d.MetadataString("tribe", "?"),
		d.MetadataString("age", "Not specified"),
		d.MetadataString("gender", "Not specified"),
		d.MetadataString("country", "Unknown"),
		d.MetadataString("likes", "0"),
		d.CreatedAt.Format(time.RFC3339),
	)
	fmt.Printf("  %s\n", snippet(d.Content, 200))
}

func snippet(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
