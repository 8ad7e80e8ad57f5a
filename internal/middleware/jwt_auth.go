package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/technosupport/arena-watch/internal/auth"
	"github.com/technosupport/arena-watch/internal/tokens"
)

type TokenValidator interface {
	ValidateToken(tokenString string) (*tokens.Claims, error)
}

type JWTAuth struct {
	tokens  TokenValidator
	revoked auth.Revocations
	role    tokens.Role
}

// NewJWTAuth requires a valid, unrevoked bearer token carrying role.
// revoked may be nil.
func NewJWTAuth(t TokenValidator, revoked auth.Revocations, role tokens.Role) *JWTAuth {
	return &JWTAuth{tokens: t, revoked: revoked, role: role}
}

// Middleware verifies the JWT and injects AuthContext
func (m *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			log.Printf("[Auth] Rejected token from %s: %v", r.RemoteAddr, err)
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		if m.revoked != nil {
			revoked, err := m.revoked.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				// fail closed
				log.Printf("[Auth] Revocation lookup failed: %v", err)
				writeError(w, http.StatusUnauthorized, "unauthorized", "token check unavailable")
				return
			}
			if revoked {
				writeError(w, http.StatusUnauthorized, "unauthorized", "token revoked")
				return
			}
		}

		if m.role != "" && claims.Role != m.role {
			writeError(w, http.StatusForbidden, "forbidden", "operator role required")
			return
		}

		ac := &AuthContext{
			Subject: claims.Subject,
			Role:    claims.Role,
			TokenID: claims.ID,
		}
		if claims.ExpiresAt != nil {
			ac.ExpiresAt = claims.ExpiresAt.Time
		}
		next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), ac)))
	})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"code": code, "error": msg})
}
