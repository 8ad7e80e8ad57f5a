package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/technosupport/arena-watch/internal/events"
)

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Stream.Snapshot())
}

func (h *Handler) Cameras(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Stream.Feeds())
}

func (h *Handler) CurrentAlert(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Stream.Current())
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	h.listCategory(w, events.CategoryNotification)
}

func (h *Handler) Incidents(w http.ResponseWriter, r *http.Request) {
	h.listCategory(w, events.CategoryIncident)
}

func (h *Handler) Analyses(w http.ResponseWriter, r *http.Request) {
	h.listCategory(w, events.CategoryAnalysis)
}

func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	h.dismiss(w, r, events.CategoryNotification)
}

func (h *Handler) DismissIncident(w http.ResponseWriter, r *http.Request) {
	h.dismiss(w, r, events.CategoryIncident)
}

func (h *Handler) listCategory(w http.ResponseWriter, c events.Category) {
	items, err := h.Stream.Events(c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// dismiss answers 204 whether or not the id was present
func (h *Handler) dismiss(w http.ResponseWriter, r *http.Request, c events.Category) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}
	h.Stream.Dismiss(c, id)
	w.WriteHeader(http.StatusNoContent)
}
