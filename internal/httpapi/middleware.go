package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"shoptrack/internal/logger"
)

type ctxKey int

const (
	ctxKeyClaims ctxKey = iota
	ctxKeyRequestID
)

// Claims is the session token payload.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// CustomerIDFrom returns the session customer id, empty for anonymous.
func CustomerIDFrom(ctx context.Context) string {
	if c, ok := ctx.Value(ctxKeyClaims).(*Claims); ok {
		return c.UserID
	}
	return ""
}

func roleFrom(ctx context.Context) string {
	if c, ok := ctx.Value(ctxKeyClaims).(*Claims); ok {
		return c.Role
	}
	return ""
}

// Middleware bundles the pieces every chain needs.
type Middleware struct {
	secret string
	lg     *logger.Logger
}

func NewMiddleware(secret string, lg *logger.Logger) *Middleware {
	return &Middleware{secret: secret, lg: lg}
}

func (m *Middleware) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
	})
}

func (m *Middleware) secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Frame-Options", "deny")
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lg := m.lg
		if id, ok := r.Context().Value(ctxKeyRequestID).(string); ok {
			lg = lg.WithRequestID(id)
		}
		lg.Info("http_request", map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"remote": r.RemoteAddr,
		})
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				w.Header().Set("Connection", "close")
				m.lg.Error("panic_recovered", fmt.Errorf("%v", rec), map[string]any{"path": r.URL.Path})
				writeProblem(w, http.StatusInternalServerError, "internal", "unexpected error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) parseClaims(r *http.Request) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, fmt.Errorf("authorization header missing")
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// auth requires a valid session token.
func (m *Middleware) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.parseClaims(r)
		if err != nil {
			writeProblem(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims)))
	})
}

// optionalAuth attaches a session when a valid token is present and lets
// anonymous callers through untouched.
func (m *Middleware) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := m.parseClaims(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims))
		}
		next.ServeHTTP(w, r)
	})
}

// staffOnly gates the mutation routes.
func (m *Middleware) staffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch roleFrom(r.Context()) {
		case "staff", "admin":
			next.ServeHTTP(w, r)
		default:
			writeProblem(w, http.StatusForbidden, "forbidden", "staff access required")
		}
	})
}
