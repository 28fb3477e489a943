package chi

import (
	"context"

	"github.com/kailas-cloud/tribe/internal/domain/chat"
	"github.com/kailas-cloud/tribe/internal/domain/document"
	"github.com/kailas-cloud/tribe/internal/domain/facet"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
	domusage "github.com/kailas-cloud/tribe/internal/domain/usage"
	chatuc "github.com/kailas-cloud/tribe/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/tribe/internal/usecase/health"
	searchuc "github.com/kailas-cloud/tribe/internal/usecase/search"
)

// ChatService submits chat messages.
type ChatService interface {
	Submit(ctx context.Context, sess *chat.Session, text string, sel facet.Selection) (chatuc.Reply, error)
	Clear(sess *chat.Session)
}

// SearchService runs vector searches and manages snippets.
type SearchService interface {
	Search(ctx context.Context, q searchuc.Query) ([]document.Document, error)
	Ingest(ctx context.Context, items []searchuc.IngestItem) (int, error)
	Delete(ctx context.Context, ids []string) (int, error)
}

// Fetcher runs the keyset-paginated fetch.
type Fetcher interface {
	Fetch(ctx context.Context, base filter.Expr, total, batch int) ([]document.Document, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports embedding token spend.
type UsageReporter interface {
	Report(ctx context.Context, period domusage.Period) domusage.Report
}
