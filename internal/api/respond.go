package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/technosupport/arena-watch/internal/analysis"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Encode response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"code": code, "error": msg})
}

// analysisStatus maps the analysis error taxonomy onto HTTP
func analysisStatus(err error) int {
	switch {
	case errors.Is(err, analysis.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, analysis.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, analysis.ErrInvalidMedia):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
