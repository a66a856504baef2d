package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
)

// StreakStore is the slice of the store StreakService needs.
type StreakStore interface {
	GetHabit(ctx context.Context, id string) (*model.Habit, error)
	ListCompletedDates(ctx context.Context, habitID string) ([]model.Date, error)
	repository.StreakRepository
}

// StreakService owns the derived habit_streaks rows.
type StreakService struct {
	repo     StreakStore
	calendar *Calendar
	logger   *slog.Logger
}

func NewStreakService(repo StreakStore, calendar *Calendar, logger *slog.Logger) *StreakService {
	return &StreakService{
		repo:     repo,
		calendar: calendar,
		logger:   logger,
	}
}

// BuildStreaks run-length encodes ascending completed dates into streaks.
//
// Consecutive dates exactly one day apart extend the open run. Any other
// difference (a gap, or a duplicate date) closes it and starts a new run of
// length 1. A run is active iff it ends on today.
//
// The input is expected to be sorted ascending, which is how the store
// returns it.
func BuildStreaks(dates []model.Date, today model.Date) []model.HabitStreak {
	if len(dates) == 0 {
		return nil
	}

	var streaks []model.HabitStreak
	run := model.HabitStreak{StartDate: dates[0], EndDate: dates[0], Length: 1}
	for _, d := range dates[1:] {
		if d.DaysSince(run.EndDate) == 1 {
			run.EndDate = d
			run.Length++
			continue
		}
		streaks = append(streaks, run)
		run = model.HabitStreak{StartDate: d, EndDate: d, Length: 1}
	}
	streaks = append(streaks, run)

	for i := range streaks {
		streaks[i].IsActive = streaks[i].EndDate == today
	}
	return streaks
}

// RecomputeStreaks replaces every streak of the habit with a fresh rebuild
// from its completed entries. A habit with no completed entries ends up
// with no streaks.
func (s *StreakService) RecomputeStreaks(ctx context.Context, habitID string) error {
	habit, err := s.repo.GetHabit(ctx, habitID)
	if err != nil {
		return err
	}

	dates, err := s.repo.ListCompletedDates(ctx, habitID)
	if err != nil {
		s.logger.Error("failed to load completed dates",
			slog.String("habit_id", habitID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("recomputing streaks: %w", err)
	}

	today, err := s.calendar.Today(ctx, habit.UserID)
	if err != nil {
		return fmt.Errorf("recomputing streaks: %w", err)
	}

	streaks := BuildStreaks(dates, today)
	if err := s.repo.ReplaceStreaks(ctx, habitID, streaks); err != nil {
		s.logger.Error("failed to replace streaks",
			slog.String("habit_id", habitID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("recomputing streaks: %w", err)
	}

	s.logger.Debug("streaks recomputed",
		slog.String("habit_id", habitID),
		slog.Int("completed_days", len(dates)),
		slog.Int("streaks", len(streaks)),
	)
	return nil
}

// ListStreaks returns the habit's persisted streaks, oldest first.
func (s *StreakService) ListStreaks(ctx context.Context, habitID string) ([]model.HabitStreak, error) {
	if _, err := s.repo.GetHabit(ctx, habitID); err != nil {
		return nil, err
	}
	streaks, err := s.repo.ListStreaks(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("listing streaks: %w", err)
	}
	return streaks, nil
}

// Stats summarises a habit's streaks.
//
// CurrentStreak is judged against today rather than the stored IsActive flag:
// the flag was correct when the streaks were last rebuilt, which may have been
// yesterday.
func (s *StreakService) Stats(ctx context.Context, habitID string) (*model.HabitStats, error) {
	habit, err := s.repo.GetHabit(ctx, habitID)
	if err != nil {
		return nil, err
	}
	streaks, err := s.repo.ListStreaks(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("loading streak stats: %w", err)
	}
	today, err := s.calendar.Today(ctx, habit.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading streak stats: %w", err)
	}

	stats := &model.HabitStats{HabitID: habitID, StreakCount: len(streaks)}
	for _, st := range streaks {
		stats.CompletedDays += st.Length
		if st.Length > stats.LongestStreak {
			stats.LongestStreak = st.Length
		}
		if st.EndDate == today {
			stats.CurrentStreak = st.Length
		}
	}
	return stats, nil
}
