package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
)

// AccessKeyParam is the query parameter carrying the client's API key
const AccessKeyParam = "access_key"

// AccessKeyMiddleware rejects requests whose access_key does not equal expected.
// An empty expected key disables the check.
func AccessKeyMiddleware(expected string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.URL.Query().Get(AccessKeyParam)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
				log.Warn("Access key rejected", map[string]interface{}{
					"request_id": GetRequestID(r.Context()),
					"path":       r.URL.Path,
					"provided":   provided != "",
				})
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
