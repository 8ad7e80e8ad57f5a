package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/technosupport/arena-watch/internal/auth"
	"github.com/technosupport/arena-watch/internal/middleware"
)

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

func (h *Handler) login(a *auth.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed login body")
			return
		}

		token, err := a.Login(r.Context(), middleware.ClientIP(r), req.Name, req.Password)
		switch {
		case errors.Is(err, auth.ErrLockedOut):
			writeError(w, http.StatusTooManyRequests, "locked_out", err.Error())
			return
		case errors.Is(err, auth.ErrLoginDisabled):
			writeError(w, http.StatusForbidden, "login_disabled", err.Error())
			return
		case errors.Is(err, auth.ErrBadCredentials):
			writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		case err != nil:
			log.Printf("[ERROR] Issue token: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to issue token")
			return
		}
		log.Printf("[API] Operator %q logged in from %s", req.Name, r.RemoteAddr)
		writeJSON(w, http.StatusOK, loginResponse{Token: token, TokenType: "Bearer"})
	}
}

// revoke invalidates the presented token until it would have expired
func (h *Handler) revoke(revoked auth.Revocations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := middleware.GetAuthContext(r.Context())
		if !ok || ac.TokenID == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "token has no id")
			return
		}
		ttl := time.Until(ac.ExpiresAt)
		if ttl <= 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := revoked.Revoke(r.Context(), ac.TokenID, ttl); err != nil {
			log.Printf("[ERROR] Revoke token %s: %v", ac.TokenID, err)
			writeError(w, http.StatusServiceUnavailable, "service_unavailable", "failed to revoke token")
			return
		}
		log.Printf("[API] Token %s of %s revoked", ac.TokenID, ac.Subject)
		w.WriteHeader(http.StatusNoContent)
	}
}
