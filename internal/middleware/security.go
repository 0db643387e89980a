package middleware

import (
	"context"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"asset-inventory-api/internal/config"

	"golang.org/x/time/rate"
)

type contextKey string

const clientIPKey contextKey = "client_ip"

// ClientIPFromContext returns the client address resolved by TrustedProxy.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// limiterIdleTTL is how long an idle client's limiter is kept.
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SecurityMiddleware holds security-related middleware
type SecurityMiddleware struct {
	config    *config.SecurityConfig
	mu        sync.Mutex
	clients   map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

// NewSecurityMiddleware creates a new security middleware with the given config
func NewSecurityMiddleware(cfg *config.SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{
		config:  cfg,
		clients: make(map[string]*visitor),
		now:     time.Now,
	}
}

// RateLimit applies a token bucket per client IP.
func (sm *SecurityMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := ClientIPFromContext(r.Context())
		if clientIP == "" {
			clientIP = sm.ClientIP(r)
		}

		if !sm.limiter(clientIP).Allow() {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// limiter returns the client's bucket, dropping buckets idle for longer than
// limiterIdleTTL at most once per TTL.
func (sm *SecurityMiddleware) limiter(clientIP string) *rate.Limiter {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	if now.Sub(sm.lastSweep) > limiterIdleTTL {
		for ip, v := range sm.clients {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(sm.clients, ip)
			}
		}
		sm.lastSweep = now
	}

	v, ok := sm.clients[clientIP]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(sm.config.RateLimitRPS), sm.config.RateLimitBurst)}
		sm.clients[clientIP] = v
	}
	v.lastSeen = now
	return v.limiter
}

// CORS handles Cross-Origin Resource Sharing
func (sm *SecurityMiddleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sm.config.EnableCORS {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		if sm.isOriginAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestTimeout bounds the whole request. The handler keeps writing to its
// own buffer, so a late write cannot race the timeout response.
func (sm *SecurityMiddleware) RequestTimeout(next http.Handler) http.Handler {
	if sm.config.RequestTimeout <= 0 {
		return next
	}
	return http.TimeoutHandler(next, sm.config.RequestTimeout, `{"error":"Request timeout","code":"TIMEOUT_ERROR"}`)
}

// TrustedProxy resolves the real client IP once and stores it in the request
// context for logging, rate limiting and the audit trail.
func (sm *SecurityMiddleware) TrustedProxy(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey, sm.ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SecurityHeaders adds common security headers
func (sm *SecurityMiddleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")

		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client address: the first X-Forwarded-For entry, else
// X-Real-IP, else the peer address without its port. Forwarded headers are
// only believed from a trusted proxy; with no proxies configured every peer
// is trusted.
func (sm *SecurityMiddleware) ClientIP(r *http.Request) string {
	remoteAddr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		remoteAddr = host
	}

	if sm.isTrustedProxy(remoteAddr) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	return remoteAddr
}

// isTrustedProxy matches ip against TrustedProxies entries, which may be
// single addresses or CIDR ranges.
func (sm *SecurityMiddleware) isTrustedProxy(ip string) bool {
	if len(sm.config.TrustedProxies) == 0 {
		return true
	}
	addr := net.ParseIP(ip)
	for _, trusted := range sm.config.TrustedProxies {
		if trusted == ip {
			return true
		}
		if _, network, err := net.ParseCIDR(trusted); err == nil && addr != nil && network.Contains(addr) {
			return true
		}
	}
	return false
}

func (sm *SecurityMiddleware) isOriginAllowed(origin string) bool {
	return slices.Contains(sm.config.AllowedOrigins, "*") || slices.Contains(sm.config.AllowedOrigins, origin)
}
