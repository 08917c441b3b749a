package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/playgrid/tictactoe-server/internal/repository"
)

// newStatsHandler serves GET /stats?name=<display name>.
func newStatsHandler(logger *slog.Logger, stats repository.StatsRepository) http.HandlerFunc {
	log := logger.With("method", "statsHandler")

	return func(w http.ResponseWriter, r *http.Request) {
		if stats == nil {
			http.Error(w, "stats are disabled", http.StatusNotFound)
			return
		}

		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		playerStats, err := stats.GetByName(r.Context(), name)
		if errors.Is(err, repository.ErrStatsNotFound) {
			http.Error(w, "no stats for this name", http.StatusNotFound)
			return
		}

		if err != nil {
			log.Error("failed to get stats", "name", name, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err = json.NewEncoder(w).Encode(playerStats); err != nil {
			log.Error("failed to encode stats", "error", err)
		}
	}
}
