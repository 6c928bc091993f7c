package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/osse101/RecipeForge_Go/internal/database"
)

// HealthResponse represents the response for health endpoints
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// AvailabilityChecker reports whether the recipe service accepts calls
type AvailabilityChecker interface {
	IsAvailable() bool
}

// readinessTimeout bounds the database ping
const readinessTimeout = 2 * time.Second

// HandleHealthz provides a basic liveness check
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

// HandleReadyz reports ready once the recipe service is open and, with the
// postgres backend, the database answers a ping. dbPool may be nil.
func HandleReadyz(svc AvailabilityChecker, dbPool database.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !svc.IsAvailable() {
			respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "unavailable",
				Message: "recipe service closed",
			})
			return
		}

		if dbPool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()

			if err := dbPool.Ping(ctx); err != nil {
				slog.Error("Readiness check failed", "error", err)
				respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
					Status:  "unavailable",
					Message: "database connection failed",
				})
				return
			}
		}

		respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
