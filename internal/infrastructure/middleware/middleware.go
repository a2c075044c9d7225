// internal/infrastructure/middleware/middleware.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
	"github.com/google/uuid"
)

// Keys for context values
type contextKey string

const (
	requestIDKey contextKey = "request_id"
)

// maxLoggedBody caps how much of a response body ends up in the diagnostic log
const maxLoggedBody = 4096

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if request already has an ID
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware writes every request and its response to the diagnostic log
func LoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			// Create a response wrapper to capture status code and body
			wrapper := newResponseWrapper(w)

			requestID := GetRequestID(r.Context())

			log.Info("Request received", map[string]interface{}{
				"request_id":  requestID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"query":       r.URL.RawQuery,
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.UserAgent(),
				"headers":     r.Header,
			})

			next.ServeHTTP(wrapper, r)

			duration := time.Since(startTime)
			log.Info("Response sent", map[string]interface{}{
				"request_id":     requestID,
				"method":         r.Method,
				"path":           r.URL.Path,
				"status":         wrapper.statusCode,
				"duration_ms":    duration.Milliseconds(),
				"content_type":   wrapper.Header().Get("Content-Type"),
				"content_length": wrapper.contentLength,
				"body":           wrapper.body.String(),
			})
		})
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// WithRequestID stores a request ID in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// responseWrapper wraps http.ResponseWriter to capture the status code and a prefix of the body
type responseWrapper struct {
	http.ResponseWriter
	statusCode    int
	contentLength int64
	body          cappedBuffer
}

// newResponseWrapper creates a new response wrapper
func newResponseWrapper(w http.ResponseWriter) *responseWrapper {
	return &responseWrapper{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // Default status
		body:           cappedBuffer{limit: maxLoggedBody},
	}
}

// WriteHeader captures the status code
func (rw *responseWrapper) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write captures the content length and body
func (rw *responseWrapper) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.contentLength += int64(n)
	rw.body.Write(b[:n])
	return n, err
}

// cappedBuffer keeps at most limit bytes
type cappedBuffer struct {
	buf   []byte
	limit int
}

func (c *cappedBuffer) Write(b []byte) {
	if room := c.limit - len(c.buf); room > 0 {
		if len(b) > room {
			b = b[:room]
		}
		c.buf = append(c.buf, b...)
	}
}

func (c *cappedBuffer) String() string {
	return string(c.buf)
}
