package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mindmate-app/mindmate/internal/models"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Detail: detail}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// decodeJSON reads a size-limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		slog.Warn("database not ready", "error", err)
		respondError(w, http.StatusServiceUnavailable, "Service not ready")
		return
	}
	if err := s.revoked.HealthCheck(r.Context()); err != nil {
		slog.Warn("revocation store not ready", "error", err)
		respondError(w, http.StatusServiceUnavailable, "Service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
