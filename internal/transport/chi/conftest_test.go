package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gochi "github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/domain/chat"
	"github.com/kailas-cloud/tribe/internal/domain/document"
	"github.com/kailas-cloud/tribe/internal/domain/facet"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
	"github.com/kailas-cloud/tribe/internal/domain/tweaks"
	domusage "github.com/kailas-cloud/tribe/internal/domain/usage"
	chatuc "github.com/kailas-cloud/tribe/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/tribe/internal/usecase/health"
	searchuc "github.com/kailas-cloud/tribe/internal/usecase/search"
)

// --- Mocks ---

type mockChat struct {
	reply   chatuc.Reply
	err     error
	lastSel facet.Selection
	cleared int
}

func (m *mockChat) Submit(_ context.Context, sess *chat.Session, text string, sel facet.Selection) (chatuc.Reply, error) {
	m.lastSel = sel
	if strings.TrimSpace(text) == "" {
		return chatuc.Reply{}, domain.ErrEmptyMessage
	}
	sess.Append(text, true)
	if m.err != nil {
		return chatuc.Reply{}, m.err
	}
	sess.Append(m.reply.Text, false)
	return m.reply, nil
}

func (m *mockChat) Clear(sess *chat.Session) {
	m.cleared++
	sess.Clear()
}

type mockSearch struct {
	docs      []document.Document
	err       error
	tokens    int
	lastQuery searchuc.Query
	ingested  []searchuc.IngestItem
	deleted   []string
}

func (m *mockSearch) Search(ctx context.Context, q searchuc.Query) ([]document.Document, error) {
	m.lastQuery = q
	domain.TokenTallyFrom(ctx).Add(m.tokens)
	return m.docs, m.err
}

func (m *mockSearch) Ingest(ctx context.Context, items []searchuc.IngestItem) (int, error) {
	m.ingested = items
	domain.TokenTallyFrom(ctx).Add(m.tokens)
	return len(items), m.err
}

func (m *mockSearch) Delete(_ context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, domain.ErrInvalidRequest
	}
	m.deleted = ids
	return len(ids), m.err
}

type mockFetcher struct {
	docs  []document.Document
	err   error
	base  filter.Expr
	total int
	batch int
}

func (m *mockFetcher) Fetch(_ context.Context, base filter.Expr, total, batch int) ([]document.Document, error) {
	m.base, m.total, m.batch = base, total, batch
	return m.docs, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type mockUsage struct {
	report domusage.Report
	period domusage.Period
}

func (m *mockUsage) Report(_ context.Context, period domusage.Period) domusage.Report {
	m.period = period
	r := m.report
	r.Period = period
	return r
}

// --- Helpers ---

type fixture struct {
	chat    *mockChat
	search  *mockSearch
	fetch   *mockFetcher
	health  *mockHealth
	usage   *mockUsage
	reg     *chat.Registry
	handler http.Handler
}

func newFixture(t *testing.T, defaults SearchDefaults) *fixture {
	t.Helper()
	f := &fixture{
		chat:   &mockChat{reply: chatuc.Reply{Text: "answer", Extracted: true}},
		search: &mockSearch{},
		fetch:  &mockFetcher{},
		health: &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
		usage:  &mockUsage{},
		reg:    chat.NewRegistry(func() tweaks.Map { return tweaks.Base(tweaks.VectorStoreTweak{}) }),
	}
	srv := NewServer(Services{
		Chat:     f.chat,
		Search:   f.search,
		Fetch:    f.fetch,
		Health:   f.health,
		Usage:    f.usage,
		Sessions: f.reg,
	}, facet.DefaultCatalog(), defaults, nil)

	r := gochi.NewRouter()
	srv.Register(r)
	f.handler = r
	return f
}

func (f *fixture) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}
