package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
)

const (
	MaxHabitNameLength   = 100
	MaxDescriptionLength = 1000
)

// HabitService manages habit definitions.
type HabitService struct {
	repo   repository.Store
	scores ScoreRecomputer
	logger *slog.Logger
}

func NewHabitService(repo repository.Store, scores ScoreRecomputer, logger *slog.Logger) *HabitService {
	return &HabitService{repo: repo, scores: scores, logger: logger}
}

// Create validates and stores a new habit for userID. Zero TargetCount
// defaults to 1 and Frequency defaults to DAILY.
func (s *HabitService) Create(ctx context.Context, userID string, habit model.Habit) (*model.Habit, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	habit.UserID = userID
	habit.Name = strings.TrimSpace(habit.Name)
	habit.Description = strings.TrimSpace(habit.Description)
	if habit.Frequency == "" {
		habit.Frequency = model.FrequencyDaily
	}
	if habit.TargetCount == 0 {
		habit.TargetCount = 1
	}
	habit.IsActive = true

	if !habit.Category.Valid() {
		return nil, apperror.ValidationFailed("category", "category is invalid")
	}
	if !habit.TrackingType.Valid() {
		return nil, apperror.ValidationFailed("trackingType",
			fmt.Sprintf("tracking type %q is invalid", habit.TrackingType))
	}
	if err := validateHabit(&habit); err != nil {
		return nil, err
	}

	if err := s.repo.CreateHabit(ctx, &habit); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create habit",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating habit: %w", err)
	}

	s.logger.Info("habit created",
		slog.String("id", habit.ID),
		slog.String("name", habit.Name),
		slog.String("category", habit.Category.String()),
	)
	return &habit, nil
}

func (s *HabitService) Get(ctx context.Context, id string) (*model.Habit, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "habit ID is required")
	}
	return s.repo.GetHabit(ctx, id)
}

// List returns the user's habits in display order.
func (s *HabitService) List(ctx context.Context, userID string, activeOnly bool) ([]model.Habit, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	habits, err := s.repo.ListHabits(ctx, userID, activeOnly)
	if err != nil {
		s.logger.Error("failed to list habits", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing habits: %w", err)
	}
	return habits, nil
}

// Update applies patch to the habit. Category and tracking type may be sent
// back unchanged but never altered.
//
// Past daily scores are not rescored when points or the active flag change;
// the recompute command does that on request.
func (s *HabitService) Update(ctx context.Context, id string, patch model.HabitPatch) (*model.Habit, error) {
	habit, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Category != nil && *patch.Category != habit.Category {
		return nil, apperror.ValidationFailed("category", "category cannot be changed after creation")
	}
	if patch.TrackingType != nil && *patch.TrackingType != habit.TrackingType {
		return nil, apperror.ValidationFailed("trackingType", "tracking type cannot be changed after creation")
	}

	if patch.Name != nil {
		habit.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		habit.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Frequency != nil {
		habit.Frequency = *patch.Frequency
	}
	if patch.TargetCount != nil {
		habit.TargetCount = *patch.TargetCount
	}
	if patch.TargetValue != nil {
		habit.TargetValue = patch.TargetValue
	}
	if patch.TargetUnit != nil {
		habit.TargetUnit = *patch.TargetUnit
	}
	if patch.Points != nil {
		habit.Points = *patch.Points
	}
	if patch.DisplayOrder != nil {
		habit.DisplayOrder = *patch.DisplayOrder
	}
	if patch.IsActive != nil {
		habit.IsActive = *patch.IsActive
	}

	if err := validateHabit(habit); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateHabit(ctx, habit); err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update habit",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating habit: %w", err)
	}

	s.logger.Info("habit updated", slog.String("id", habit.ID))
	return habit, nil
}

// Delete removes the habit with its entries and streaks, then rescores every
// day that had one of its entries so no score keeps the deleted points.
func (s *HabitService) Delete(ctx context.Context, id string) error {
	habit, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	entries, err := s.repo.ListEntries(ctx, habit.ID, repository.DateRange{})
	if err != nil {
		return fmt.Errorf("deleting habit: %w", err)
	}

	if err := s.repo.DeleteHabit(ctx, habit.ID); err != nil {
		return err
	}

	for _, e := range entries {
		if _, err := s.scores.RecomputeDailyScore(ctx, habit.UserID, e.Date); err != nil {
			return err
		}
	}

	s.logger.Info("habit deleted",
		slog.String("id", habit.ID),
		slog.Int("days_rescored", len(entries)),
	)
	return nil
}

func validateHabit(h *model.Habit) error {
	if h.Name == "" {
		return apperror.ValidationFailed("name", "habit name is required")
	}
	if len(h.Name) > MaxHabitNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("habit name must be %d characters or less", MaxHabitNameLength))
	}
	if len(h.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if !h.Frequency.Valid() {
		return apperror.ValidationFailed("frequency",
			fmt.Sprintf("frequency %q is invalid", h.Frequency))
	}
	if h.Points < 0 {
		return apperror.ValidationFailed("points", "points must be >= 0")
	}
	if h.TargetCount < 0 {
		return apperror.ValidationFailed("targetCount", "target count must be >= 0")
	}
	return nil
}
