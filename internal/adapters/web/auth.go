package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type authClaimsKey struct{}

// AuthClaims holds the caller's identity extracted from the JWT.
type AuthClaims struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     string
}

// authFromContext returns the auth claims stored in ctx, or nil.
func authFromContext(ctx context.Context) *AuthClaims {
	v, _ := ctx.Value(authClaimsKey{}).(*AuthClaims)
	return v
}

// WithAuth returns a copy of ctx carrying claims.
func WithAuth(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, authClaimsKey{}, &claims)
}

// ContextUser resolves the acting user from the request context. It satisfies
// core.CurrentUser and returns uuid.Nil outside an authenticated request.
type ContextUser struct{}

func (ContextUser) UserID(ctx context.Context) uuid.UUID {
	if c := authFromContext(ctx); c != nil {
		return c.UserID
	}
	return uuid.Nil
}

// jwtClaims is the JWT payload struct used for signing and parsing.
type jwtClaims struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the given tenant and user.
func IssueToken(secret string, tenantID, userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		TenantID: tenantID.String(),
		UserID:   userID.String(),
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// RequireAuth is chi middleware that validates a bearer token (or the
// auth_token cookie) and injects AuthClaims into the request context.
// Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			writeError(w, r, "token carries no valid tenant", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			writeError(w, r, "token carries no valid user", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := WithAuth(r.Context(), AuthClaims{TenantID: tenantID, UserID: userID, Role: claims.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie("auth_token"); err == nil {
		return c.Value
	}
	return ""
}

// me handles GET /api/v1/me and echoes the caller's identity.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	type meResponse struct {
		TenantID uuid.UUID `json:"tenant_id"`
		UserID   uuid.UUID `json:"user_id"`
		Role     string    `json:"role,omitempty"`
	}
	writeJSON(w, meResponse{TenantID: claims.TenantID, UserID: claims.UserID, Role: claims.Role})
}
