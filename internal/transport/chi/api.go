package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/domain/chat"
	"github.com/kailas-cloud/tribe/internal/domain/document"
	"github.com/kailas-cloud/tribe/internal/domain/facet"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
	"github.com/kailas-cloud/tribe/internal/domain/search/mode"
	domusage "github.com/kailas-cloud/tribe/internal/domain/usage"
	searchuc "github.com/kailas-cloud/tribe/internal/usecase/search"
)

const (
	maxFetchTotal   = 10000
	maxIngestItems  = 500
	embeddingHeader = "X-Embedding-Tokens"
)

type facetsDTO struct {
	Tribe            string `json:"tribe"`
	AgeGroup         string `json:"age_group"`
	Country          string `json:"country"`
	Gender           string `json:"gender"`
	Platform         string `json:"platform"`
	RAGQuery         string `json:"rag_query"`
	MinFollowerCount string `json:"min_follower_count"`
	MinLikesCount    string `json:"min_likes_count"`
}

func (f facetsDTO) selection() facet.Selection {
	return facet.Selection{
		Tribe:            f.Tribe,
		AgeGroup:         f.AgeGroup,
		Country:          f.Country,
		Gender:           f.Gender,
		Platform:         f.Platform,
		RAGQuery:         f.RAGQuery,
		MinFollowerCount: f.MinFollowerCount,
		MinLikesCount:    f.MinLikesCount,
	}
}

type chatRequest struct {
	Message string    `json:"message"`
	Facets  facetsDTO `json:"facets"`
}

type chatResponse struct {
	Reply     string         `json:"reply"`
	Extracted bool           `json:"extracted"`
	History   []chat.Message `json:"history"`
}

type historyResponse struct {
	Messages []chat.Message `json:"messages"`
}

type searchRequest struct {
	Query      string          `json:"query"`
	Filter     json.RawMessage `json:"filter,omitempty"`
	SearchType string          `json:"search_type,omitempty"`
	K          int             `json:"k,omitempty"`
	Threshold  float64         `json:"score_threshold,omitempty"`
	FetchK     int             `json:"fetch_k,omitempty"`
	Lambda     *float64        `json:"lambda,omitempty"`
	TimeoutMS  int             `json:"timeout_ms,omitempty"`
}

type fetchRequest struct {
	Filter json.RawMessage `json:"filter,omitempty"`
	Total  int             `json:"total"`
	Batch  int             `json:"batch"`
}

type documentDTO struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	CreatedAt  time.Time      `json:"created_at"`
	Similarity *float64       `json:"similarity,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type documentListResponse struct {
	Items []documentDTO `json:"items"`
	Count int           `json:"count"`
}

type ingestRequest struct {
	Documents []struct {
		ID        string         `json:"id"`
		Content   string         `json:"content"`
		Metadata  map[string]any `json:"metadata"`
		CreatedAt *time.Time     `json:"created_at"`
	} `json:"documents"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

type countResponse struct {
	Count int `json:"count"`
}

// PostChat handles POST /api/v1/chat.
func (s *Server) PostChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	sess := s.headerSession(w, r)

	reply, err := s.chat.Submit(r.Context(), sess, req.Message, req.Facets.selection())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:     reply.Text,
		Extracted: reply.Extracted,
		History:   sess.RenderInOrder(),
	})
}

// GetHistory handles GET /api/v1/history. Messages are most recent first.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.headerSession(w, r)
	writeJSON(w, http.StatusOK, historyResponse{Messages: sess.RenderInOrder()})
}

// DeleteHistory handles DELETE /api/v1/history.
func (s *Server) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.headerSession(w, r)
	s.chat.Clear(sess)
	w.WriteHeader(http.StatusNoContent)
}

// GetFacets handles GET /api/v1/facets.
func (s *Server) GetFacets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"catalog":           s.catalog,
		"default_rag_query": facet.DefaultRAGQuery,
	})
}

// PostSearch handles POST /api/v1/search.
func (s *Server) PostSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusNotImplemented, CodeConfiguration, "vector store is not configured")
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := s.searchQuery(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	ctx, tally := domain.WithTokenTally(r.Context())
	docs, err := s.search.Search(ctx, q)
	setEmbeddingHeaders(w, tally)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	s.requestLogger(r).Debug("search served",
		zap.String("search_type", mode.Name(q.Strategy)),
		zap.Int("results", len(docs)),
	)
	writeJSON(w, http.StatusOK, documentList(docs, true))
}

// PostFetch handles POST /api/v1/fetch.
func (s *Server) PostFetch(w http.ResponseWriter, r *http.Request) {
	if s.fetch == nil {
		writeError(w, http.StatusNotImplemented, CodeConfiguration, "vector store is not configured")
		return
	}
	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Total <= 0 || req.Total > maxFetchTotal {
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			fmt.Sprintf("total must be between 1 and %d", maxFetchTotal))
		return
	}
	if req.Batch <= 0 {
		req.Batch = min(req.Total, 20)
	}

	base, err := s.parseFilter(req.Filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	docs, err := s.fetch.Fetch(r.Context(), base, req.Total, req.Batch)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentList(docs, false))
}

// PostDocuments handles POST /api/v1/documents.
func (s *Server) PostDocuments(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusNotImplemented, CodeConfiguration, "vector store is not configured")
		return
	}
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "documents are required")
		return
	}
	if len(req.Documents) > maxIngestItems {
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			fmt.Sprintf("at most %d documents per request", maxIngestItems))
		return
	}

	items := make([]searchuc.IngestItem, len(req.Documents))
	for i, d := range req.Documents {
		items[i] = searchuc.IngestItem{ID: d.ID, Content: d.Content, Metadata: d.Metadata}
		if d.CreatedAt != nil {
			items[i].CreatedAt = d.CreatedAt.UTC()
		}
	}

	ctx, tally := domain.WithTokenTally(r.Context())
	n, err := s.search.Ingest(ctx, items)
	setEmbeddingHeaders(w, tally)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, countResponse{Count: n})
}

// DeleteDocuments handles DELETE /api/v1/documents.
func (s *Server) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusNotImplemented, CodeConfiguration, "vector store is not configured")
		return
	}
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	n, err := s.search.Delete(r.Context(), req.IDs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

func (s *Server) searchQuery(req searchRequest) (searchuc.Query, error) {
	f, err := s.parseFilter(req.Filter)
	if err != nil {
		return searchuc.Query{}, err
	}
	q := searchuc.Query{Text: req.Query, Filter: f, Strategy: s.defaults.Strategy}

	if req.SearchType != "" || req.K > 0 {
		name := req.SearchType
		if name == "" {
			name = mode.Name(s.defaults.Strategy)
		}
		st, err := mode.Parse(name, mode.Params{
			K:         req.K,
			Threshold: req.Threshold,
			Timeout:   time.Duration(req.TimeoutMS) * time.Millisecond,
			FetchK:    req.FetchK,
			Lambda:    req.Lambda,
		})
		if err != nil {
			return searchuc.Query{}, err
		}
		q.Strategy = st
	}
	return q, nil
}

// parseFilter reads a conditions list. An absent filter falls back to the default.
func (s *Server) parseFilter(raw json.RawMessage) (filter.Expr, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return s.defaults.Filter, nil
	}
	f, err := filter.ParseConditions(string(raw))
	if err != nil {
		return filter.Expr{}, fmt.Errorf("invalid filter: %w", err)
	}
	return f, nil
}

func documentList(docs []document.Document, scored bool) documentListResponse {
	items := make([]documentDTO, len(docs))
	for i, d := range docs {
		items[i] = documentDTO{
			ID:        d.ID,
			Content:   d.Content,
			CreatedAt: d.CreatedAt,
			Metadata:  d.Metadata,
		}
		if scored {
			sim := d.Similarity
			items[i].Similarity = &sim
		}
	}
	return documentListResponse{Items: items, Count: len(items)}
}

func setEmbeddingHeaders(w http.ResponseWriter, tally *domain.TokenTally) {
	if tally != nil && tally.Calls > 0 {
		w.Header().Set(embeddingHeader, strconv.Itoa(tally.Tokens))
	}
}

type usageResponse struct {
	Period          string `json:"period"`
	PeriodStart     string `json:"period_start"`
	PeriodEnd       string `json:"period_end"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensRemaining int64  `json:"tokens_remaining"`
	Exhausted       bool   `json:"is_exhausted"`
}

// GetUsage handles GET /api/v1/usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		writeError(w, http.StatusNotImplemented, CodeConfiguration, "embedding provider is not configured")
		return
	}
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	rep := s.usage.Report(r.Context(), period)
	writeJSON(w, http.StatusOK, usageResponse{
		Period:          string(rep.Period),
		PeriodStart:     rep.Start.Format(time.RFC3339),
		PeriodEnd:       rep.End.Format(time.RFC3339),
		TokensUsed:      rep.Used,
		TokensLimit:     rep.Limit,
		TokensRemaining: rep.Remaining,
		Exhausted:       rep.Exhausted(),
	})
}
