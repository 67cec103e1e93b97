package web

import (
	"errors"
	"net/http"

	"github.com/vbonduro/foodcoach/internal/domain"
	"github.com/vbonduro/foodcoach/internal/service"
)

type foodLogsResponse struct {
	Data   []*domain.FoodLogEntry `json:"data"`
	Totals domain.DailyTotals     `json:"totals"`
}

func (s *Server) handleGetFoodLogs(w http.ResponseWriter, r *http.Request) {
	log, err := s.service.DailyLog(r.Context(), r.URL.Query().Get("userId"))
	switch {
	case errors.Is(err, service.ErrMissingUserID):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("get food logs failed", "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to fetch food logs", err)
		return
	}

	writeJSON(w, http.StatusOK, foodLogsResponse{Data: log.Entries, Totals: log.Totals})
}
