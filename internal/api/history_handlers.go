package api

import (
	"log"
	"net/http"

	"github.com/technosupport/arena-watch/internal/history"
)

func (h *Handler) historyQuery(w http.ResponseWriter, r *http.Request) (all, matched []history.Item, ok bool) {
	filter, valid := history.ParseFilter(r.URL.Query().Get("filter"))
	if !valid {
		writeError(w, http.StatusBadRequest, "invalid_filter", "filter must be all, alerts or uploads")
		return nil, nil, false
	}
	all, err := h.History.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list history")
		return nil, nil, false
	}
	q := history.Query{Filter: filter, Search: r.URL.Query().Get("q")}
	return all, q.Apply(all), true
}

// ListHistory returns the filtered items. The summary counts cover the whole
// history regardless of the filter.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	all, items, ok := h.historyQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":   items,
		"summary": history.Summarize(all),
	})
}

func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	_, items, ok := h.historyQuery(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="arena-history.csv"`)
	if err := history.WriteCSV(w, items); err != nil {
		log.Printf("[ERROR] History export failed: %v", err)
	}
}
