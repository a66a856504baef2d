package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/service"
)

// HabitHandler manages habits and their derived streak data.
//
// Streaks live under the habit URL because they are a read-only projection of
// the habit's entries: there is no endpoint to write one directly.
type HabitHandler struct {
	habits  *service.HabitService
	streaks *service.StreakService
	logger  *slog.Logger
}

// NewHabitHandler creates a new HabitHandler.
func NewHabitHandler(habits *service.HabitService, streaks *service.StreakService, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{habits: habits, streaks: streaks, logger: logger}
}

// createHabitRequest mirrors model.Habit, but Category is a pointer.
// The zero Category is a real bucket, so a missing field must be told apart
// from an explicit one.
type createHabitRequest struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Category     *model.Category    `json:"category"`
	Frequency    model.Frequency    `json:"frequency"`
	TrackingType model.TrackingType `json:"trackingType"`
	TargetCount  int                `json:"targetCount"`
	TargetValue  *float64           `json:"targetValue"`
	TargetUnit   string             `json:"targetUnit"`
	Points       int                `json:"points"`
	DisplayOrder int                `json:"displayOrder"`
	IsActive     *bool              `json:"isActive"`
}

// HandleList returns a user's habits ordered by display order.
//
// HTTP: GET /api/users/{userID}/habits?active=true
func (h *HabitHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, h.logger, apperror.ValidationFailed("active", "active must be true or false"))
			return
		}
		activeOnly = b
	}

	habits, err := h.habits.List(r.Context(), r.PathValue("userID"), activeOnly)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

// HandleCreate adds a habit for a user.
//
// HTTP: POST /api/users/{userID}/habits
// REQUEST BODY: {"name": "Run", "category": "PHYSICAL_TRAINING", "trackingType": "BINARY", "points": 5}
func (h *HabitHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Category == nil {
		writeError(w, h.logger, apperror.ValidationFailed("category", "category is required"))
		return
	}

	habit := model.Habit{
		Name:         req.Name,
		Description:  req.Description,
		Category:     *req.Category,
		Frequency:    req.Frequency,
		TrackingType: req.TrackingType,
		TargetCount:  req.TargetCount,
		TargetValue:  req.TargetValue,
		TargetUnit:   req.TargetUnit,
		Points:       req.Points,
		DisplayOrder: req.DisplayOrder,
	}
	created, err := h.habits.Create(r.Context(), r.PathValue("userID"), habit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// New habits start active; an explicit false pauses it straight away.
	if req.IsActive != nil && !*req.IsActive {
		created, err = h.habits.Update(r.Context(), created.ID, model.HabitPatch{IsActive: req.IsActive})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleGet returns one habit.
//
// HTTP: GET /api/habits/{habitID}
func (h *HabitHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	habit, err := h.habits.Get(r.Context(), r.PathValue("habitID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// HandleUpdate applies a partial update. Omitted fields keep their value.
//
// HTTP: PUT /api/habits/{habitID}
func (h *HabitHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.HabitPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	habit, err := h.habits.Update(r.Context(), r.PathValue("habitID"), patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// HandleDelete removes a habit with its entries and streaks.
//
// HTTP: DELETE /api/habits/{habitID}
// Returns 204 No Content on success.
func (h *HabitHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.habits.Delete(r.Context(), r.PathValue("habitID")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStreaks lists every streak of a habit, oldest first.
//
// HTTP: GET /api/habits/{habitID}/streaks
func (h *HabitHandler) HandleStreaks(w http.ResponseWriter, r *http.Request) {
	streaks, err := h.streaks.ListStreaks(r.Context(), r.PathValue("habitID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, streaks)
}

// HandleStats returns the current and longest streak of a habit.
//
// HTTP: GET /api/habits/{habitID}/stats
func (h *HabitHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.streaks.Stats(r.Context(), r.PathValue("habitID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
