package chi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/domain/chat"
	"github.com/kailas-cloud/tribe/internal/domain/facet"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// formState echoes the submitted labels back into the form.
type formState struct {
	Gender           string
	Tribe            string
	AgeGroup         string
	Country          string
	Platform         string
	RAGQuery         string
	MinFollowerCount string
	MinLikesCount    string
	Message          string
}

type pageData struct {
	Catalog facet.Catalog
	Form    formState
	History []chat.Message
	Error   *ErrorResponse
}

func readForm(r *http.Request) formState {
	v := func(k string) string { return strings.TrimSpace(r.PostFormValue(k)) }
	return formState{
		Gender:           v("gender"),
		Tribe:            v("tribe"),
		AgeGroup:         v("age_group"),
		Country:          v("country"),
		Platform:         v("platform"),
		RAGQuery:         v("rag_query"),
		MinFollowerCount: v("min_follower_count"),
		MinLikesCount:    v("min_likes_count"),
		Message:          r.PostFormValue("message"),
	}
}

func (f formState) selection(c facet.Catalog) facet.Selection {
	sel := c.Resolve(facet.Labels{
		Gender:   f.Gender,
		Tribe:    f.Tribe,
		AgeGroup: f.AgeGroup,
		Country:  f.Country,
		Platform: f.Platform,
		RAGQuery: f.RAGQuery,
	})
	sel.MinFollowerCount = f.MinFollowerCount
	sel.MinLikesCount = f.MinLikesCount
	return sel
}

// Index handles GET /: the audience form and the history, most recent first.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	sess := s.cookieSession(w, r)
	s.render(w, r, http.StatusOK, pageData{
		Catalog: s.catalog,
		Form:    formState{RAGQuery: facet.DefaultRAGQuery},
		History: sess.RenderInOrder(),
	})
}

// SubmitForm handles POST /chat. Success redirects back to the form; a failure
// is shown inline above the history, which keeps the user message.
func (s *Server) SubmitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid form: "+err.Error())
		return
	}
	sess := s.cookieSession(w, r)
	form := readForm(r)

	_, err := s.chat.Submit(r.Context(), sess, form.Message, form.selection(s.catalog))
	if err != nil {
		status, resp := s.resolveError(err)
		s.requestLogger(r).Warn("chat submit failed", zap.Error(err), zap.String("code", string(resp.Code)))
		form.Message = ""
		s.render(w, r, status, pageData{
			Catalog: s.catalog,
			Form:    form,
			History: sess.RenderInOrder(),
			Error:   &resp,
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ClearForm handles POST /chat/clear.
func (s *Server) ClearForm(w http.ResponseWriter, r *http.Request) {
	sess := s.cookieSession(w, r)
	s.chat.Clear(sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.requestLogger(r).Error("render page", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
