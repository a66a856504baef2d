package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/habit-coach/internal/service"
)

// ScoreHandler serves the stored daily scores. Scores are only ever written
// as a side effect of entry changes, so this handler is read-only.
type ScoreHandler struct {
	scores *service.ScoreService
	logger *slog.Logger
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(scores *service.ScoreService, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{scores: scores, logger: logger}
}

// HandleList returns a user's daily scores in a date range.
//
// HTTP: GET /api/users/{userID}/scores?from=2024-01-01&to=2024-01-31
func (h *ScoreHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	scores, err := h.scores.ListDailyScores(r.Context(), r.PathValue("userID"), from, to)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

// HandleGet returns the score of a single day.
//
// HTTP: GET /api/users/{userID}/scores/{date}
func (h *ScoreHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	score, err := h.scores.GetDailyScore(r.Context(), r.PathValue("userID"), date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}
