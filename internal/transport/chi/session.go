package chi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/tribe/internal/domain/chat"
)

const (
	// SessionCookie names the browser session.
	SessionCookie = "tribe_session"
	// SessionHeader carries the API session id. It is echoed on every API response.
	SessionHeader = "X-Session-ID"
)

// cookieSession returns the browser's session, issuing a cookie on first visit.
func (s *Server) cookieSession(w http.ResponseWriter, r *http.Request) *chat.Session {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = sanitizeSessionID(c.Value)
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s.sessions.Open(id)
}

// headerSession returns the API caller's session, generating an id when absent.
func (s *Server) headerSession(w http.ResponseWriter, r *http.Request) *chat.Session {
	id := sanitizeSessionID(r.Header.Get(SessionHeader))
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(SessionHeader, id)
	return s.sessions.Open(id)
}

// sanitizeSessionID accepts only well-formed UUIDs.
func sanitizeSessionID(v string) string {
	id, err := uuid.Parse(strings.TrimSpace(v))
	if err != nil {
		return ""
	}
	return id.String()
}
