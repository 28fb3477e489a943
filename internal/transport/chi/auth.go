package chi

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	errMissingAuth = errors.New("missing authorization header")
	errNotBearer   = errors.New("authorization header must use Bearer scheme")
	errBadAPIKey   = errors.New("invalid api key")
)

// APIKeyAuth guards routes under APIPrefix with static bearer keys.
// The HTML form, /health and /metrics are never checked. With no keys the
// middleware is a no-op.
func APIKeyAuth(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, APIPrefix+"/") {
				next.ServeHTTP(w, r)
				return
			}
			if err := checkBearer(keys, r.Header.Get("Authorization")); err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="tribe"`)
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func checkBearer(keys [][]byte, header string) error {
	if header == "" {
		return errMissingAuth
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return errNotBearer
	}
	// compare against every key so timing does not leak which one matched
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(k, []byte(token))
	}
	if match != 1 {
		return errBadAPIKey
	}
	return nil
}
