package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/technosupport/arena-watch/internal/middleware"
	"github.com/technosupport/arena-watch/internal/settings"
)

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Settings.Get())
}

// UpdateSettings decodes over the current settings, so omitted fields keep
// their value.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	next := h.Settings.Get()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed settings body")
		return
	}

	saved, err := h.Settings.Update(r.Context(), next)
	if err != nil {
		h.settingsError(w, err)
		return
	}
	if ac, ok := middleware.GetAuthContext(r.Context()); ok {
		log.Printf("[API] Settings updated by %s", ac.Subject)
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	saved, err := h.Settings.Reset(r.Context())
	if err != nil {
		h.settingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) settingsError(w http.ResponseWriter, err error) {
	if errors.Is(err, settings.ErrInvalid) {
		writeError(w, http.StatusUnprocessableEntity, "invalid_settings", err.Error())
		return
	}
	log.Printf("[ERROR] Save settings: %v", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "failed to save settings")
}
