package middleware

import (
	"context"
	"net/http"
	"time"

	"asset-inventory-api/internal/audit"

	"github.com/sirupsen/logrus"
)

// LoggingMiddleware provides request logging with security context
type LoggingMiddleware struct {
	logger *logrus.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger *logrus.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LoggingMiddleware{
		logger: logger,
	}
}

// LogRequests logs incoming requests with security information
func (lm *LoggingMiddleware) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// The router installs client IP and actor deeper in the chain, so the
		// wrapper collects them on the way back out.
		next.ServeHTTP(wrapped, r.WithContext(withRequestInfo(r.Context(), &wrapped.info)))

		fields := logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"proto":       r.Proto,
			"status":      wrapped.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"user_agent":  r.UserAgent(),
		}
		clientIP := wrapped.info.clientIP
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}
		fields["client_ip"] = clientIP
		if id := r.Header.Get("X-Request-ID"); id != "" {
			fields["request_id"] = id
		}
		if actor := wrapped.info.actor; actor.UserID != nil {
			fields["user_id"] = *actor.UserID
		}

		entry := lm.logger.WithFields(fields)
		switch {
		case wrapped.statusCode >= http.StatusInternalServerError:
			entry.Error("request completed")
		case wrapped.statusCode == http.StatusTooManyRequests:
			entry.Warn("SECURITY: rate limit exceeded")
		case wrapped.statusCode == http.StatusRequestTimeout || wrapped.statusCode == http.StatusServiceUnavailable:
			entry.Warn("SECURITY: request timeout")
		default:
			entry.Info("request completed")
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	info       requestInfo
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestInfo is filled in by inner middleware for the access log.
type requestInfo struct {
	clientIP string
	actor    audit.RequestContext
}

const requestInfoKey contextKey = "request_info"

func withRequestInfo(ctx context.Context, info *requestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey, info)
}

// noteRequest hands the resolved client IP and actor to the access log. It
// must run on the request goroutine, ahead of RequestTimeout.
func noteRequest(ctx context.Context, clientIP string, actor audit.RequestContext) {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.clientIP = clientIP
		info.actor = actor
	}
}
