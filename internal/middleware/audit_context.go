package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"asset-inventory-api/internal/audit"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

// Claims is the identity carried by a bearer token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the given user.
func IssueToken(secret []byte, userID, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// AuditContextMiddleware attaches the acting user and client address to every
// request so the service layer can stamp history rows.
type AuditContextMiddleware struct {
	secret []byte
	logger *logrus.Logger
}

// NewAuditContextMiddleware creates the middleware. With an empty secret
// bearer tokens are ignored and every request is anonymous.
func NewAuditContextMiddleware(secret string, logger *logrus.Logger) *AuditContextMiddleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuditContextMiddleware{secret: []byte(secret), logger: logger}
}

// AuditContext resolves the request context. It must run after TrustedProxy.
// Identity is optional: a missing or invalid token leaves the user absent but
// never rejects the request.
func (am *AuditContextMiddleware) AuditContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rc audit.RequestContext

		if ip := ClientIPFromContext(r.Context()); ip != "" {
			rc.IP = &ip
		}

		if claims := am.identity(r); claims != nil {
			if claims.UserID != "" {
				userID := claims.UserID
				rc.UserID = &userID
			}
			if claims.Username != "" {
				username := claims.Username
				rc.Username = &username
			}
		}

		ctx := audit.WithRequestContext(r.Context(), rc)
		clientIP := ""
		if rc.IP != nil {
			clientIP = *rc.IP
		}
		noteRequest(ctx, clientIP, rc)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (am *AuditContextMiddleware) identity(r *http.Request) *Claims {
	if len(am.secret) == 0 {
		return nil
	}

	header := r.Header.Get("Authorization")
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return nil
	}

	claims, err := ParseToken(am.secret, strings.TrimSpace(tokenString))
	if err != nil {
		am.logger.WithError(err).Debug("ignoring invalid bearer token")
		return nil
	}
	return claims
}
