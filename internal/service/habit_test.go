package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateHabit_Defaults(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)

	habit, err := h.habits.Create(context.Background(), u.ID, model.Habit{
		Name:         "  Stretch  ",
		Category:     model.CategoryPhysicalTraining,
		TrackingType: model.TrackingBinary,
		Points:       2,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, habit.ID)
	assert.Equal(t, "Stretch", habit.Name)
	assert.Equal(t, model.FrequencyDaily, habit.Frequency)
	assert.Equal(t, 1, habit.TargetCount)
	assert.True(t, habit.IsActive)
}

func TestCreateHabit_Validation(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	base := model.Habit{Name: "Run", Category: model.CategoryPhysicalTraining, TrackingType: model.TrackingBinary}

	tests := []struct {
		name   string
		mutate func(*model.Habit)
	}{
		{"empty name", func(h *model.Habit) { h.Name = "   " }},
		{"name too long", func(h *model.Habit) { h.Name = strings.Repeat("a", MaxHabitNameLength+1) }},
		{"negative points", func(h *model.Habit) { h.Points = -1 }},
		{"negative target", func(h *model.Habit) { h.TargetCount = -2 }},
		{"bad category", func(h *model.Habit) { h.Category = model.NumCategories }},
		{"bad tracking type", func(h *model.Habit) { h.TrackingType = "VIBES" }},
		{"bad frequency", func(h *model.Habit) { h.Frequency = "HOURLY" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := h.habits.Create(context.Background(), u.ID, in)
			assert.True(t, errors.Is(err, apperror.ErrValidation), "error = %v", err)
		})
	}
}

func TestCreateHabit_UnknownUser(t *testing.T) {
	h := newHarness(t)

	_, err := h.habits.Create(context.Background(), "ghost", model.Habit{
		Name: "Run", Category: model.CategoryPhysicalTraining, TrackingType: model.TrackingBinary,
	})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCreateHabit_DuplicateName(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	h.habit(t, u.ID, "Run", model.CategoryPhysicalTraining, 5)

	_, err := h.habits.Create(context.Background(), u.ID, model.Habit{
		Name: "Run", Category: model.CategoryNutrition, TrackingType: model.TrackingBinary,
	})
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdateHabit_Patch(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	habit := h.habit(t, u.ID, "Run", model.CategoryPhysicalTraining, 5)

	name, points := "Run 5k", 8
	updated, err := h.habits.Update(context.Background(), habit.ID, model.HabitPatch{Name: &name, Points: &points})
	require.NoError(t, err)

	assert.Equal(t, "Run 5k", updated.Name)
	assert.Equal(t, 8, updated.Points)
	assert.Equal(t, model.CategoryPhysicalTraining, updated.Category)
}

func TestUpdateHabit_CategoryIsImmutable(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	habit := h.habit(t, u.ID, "Run", model.CategoryPhysicalTraining, 5)

	other := model.CategoryNutrition
	_, err := h.habits.Update(context.Background(), habit.ID, model.HabitPatch{Category: &other})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	same := model.CategoryPhysicalTraining
	_, err = h.habits.Update(context.Background(), habit.ID, model.HabitPatch{Category: &same})
	assert.NoError(t, err, "echoing the current category back is allowed")
}

func TestUpdateHabit_TrackingTypeIsImmutable(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	habit := h.habit(t, u.ID, "Run", model.CategoryPhysicalTraining, 5)

	numeric := model.TrackingNumeric
	_, err := h.habits.Update(context.Background(), habit.ID, model.HabitPatch{TrackingType: &numeric})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestUpdateHabit_NegativePoints(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	habit := h.habit(t, u.ID, "Run", model.CategoryPhysicalTraining, 5)

	neg := -3
	_, err := h.habits.Update(context.Background(), habit.ID, model.HabitPatch{Points: &neg})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

// =========================================================================
// LIST + DELETE TESTS
// =========================================================================

func TestListHabits_ActiveOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.user(t)
	h.habit(t, u.ID, "Run", model.CategoryPhysicalTraining, 5)
	paused := h.habit(t, u.ID, "Journal", model.CategoryReflection, 2)
	off := false
	_, err := h.habits.Update(ctx, paused.ID, model.HabitPatch{IsActive: &off})
	require.NoError(t, err)

	all, err := h.habits.List(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := h.habits.List(ctx, u.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Run", active[0].Name)
}

func TestDeleteHabit_RescoresAffectedDays(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.user(t)
	run := h.habit(t, u.ID, "Run", model.CategoryPhysicalTraining, 5)
	read := h.habit(t, u.ID, "Read", model.CategoryPersonalGrowth, 2)
	for _, d := range []int{1, 2} {
		_, err := h.entries.UpsertEntry(ctx, run.ID, jan(d), completed())
		require.NoError(t, err)
	}
	_, err := h.entries.UpsertEntry(ctx, read.ID, jan(2), completed())
	require.NoError(t, err)
	h.scores.calls = nil

	require.NoError(t, h.habits.Delete(ctx, run.ID))

	assert.ElementsMatch(t, []userDay{
		{userID: u.ID, date: jan(1)},
		{userID: u.ID, date: jan(2)},
	}, h.scores.calls)

	day2, err := h.scoreS.GetDailyScore(ctx, u.ID, jan(2))
	require.NoError(t, err)
	assert.Equal(t, 2, day2.TotalPoints)
	assert.Equal(t, 1, day2.TotalHabits)

	_, err = h.habits.Get(ctx, run.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Empty(t, h.store.streaks[run.ID])
}
