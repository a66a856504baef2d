package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
)

const (
	MinRating      = 1
	MaxRating      = 5
	MaxNoteLength  = 2000
	MaxBatchLength = 100
)

// StreakRecomputer rebuilds the streaks of one habit.
type StreakRecomputer interface {
	RecomputeStreaks(ctx context.Context, habitID string) error
}

// ScoreRecomputer rebuilds one user's score for one day.
type ScoreRecomputer interface {
	RecomputeDailyScore(ctx context.Context, userID string, date model.Date) (*model.DailyScore, error)
}

// EntryService writes habit entries and keeps the derived data in step.
//
// THE ORDERING CONTRACT:
// every mutation runs  write entry → recompute habit streaks → recompute day score.
// The recomputations read the store, so they must only run after the write
// has landed. For batches, every entry is written (and its habit's streaks
// rebuilt) before any score is recomputed.
type EntryService struct {
	repo    repository.Store
	streaks StreakRecomputer
	scores  ScoreRecomputer
	logger  *slog.Logger
}

func NewEntryService(repo repository.Store, streaks StreakRecomputer, scores ScoreRecomputer, logger *slog.Logger) *EntryService {
	return &EntryService{
		repo:    repo,
		streaks: streaks,
		scores:  scores,
		logger:  logger,
	}
}

// userDay identifies one DailyScore row.
type userDay struct {
	userID string
	date   model.Date
}

// UpsertEntry creates or replaces the entry for (habitID, date).
func (s *EntryService) UpsertEntry(ctx context.Context, habitID string, date model.Date, fields model.EntryFields) (*model.HabitEntry, error) {
	if err := validateEntry(habitID, date, fields); err != nil {
		return nil, err
	}
	habit, err := s.repo.GetHabit(ctx, habitID)
	if err != nil {
		return nil, err
	}

	entry, err := s.write(ctx, habit, date, fields)
	if err != nil {
		return nil, err
	}
	if _, err := s.scores.RecomputeDailyScore(ctx, habit.UserID, date); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateEntry replaces the fields of an existing entry. The habit and date
// of an entry are its identity and cannot be changed.
func (s *EntryService) UpdateEntry(ctx context.Context, entryID string, fields model.EntryFields) (*model.HabitEntry, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return nil, apperror.ValidationFailed("id", "entry ID is required")
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	habit, err := s.repo.GetHabit(ctx, entry.HabitID)
	if err != nil {
		return nil, err
	}

	entry.EntryFields = fields
	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		s.logger.Error("failed to update entry",
			slog.String("entry_id", entryID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating entry: %w", err)
	}

	if err := s.recompute(ctx, habit, entry.Date); err != nil {
		return nil, err
	}

	s.logger.Info("entry updated",
		slog.String("entry_id", entry.ID),
		slog.String("habit_id", entry.HabitID),
		slog.String("status", string(entry.Status)),
	)
	return entry, nil
}

// DeleteEntry removes an entry and rebuilds what depended on it.
func (s *EntryService) DeleteEntry(ctx context.Context, entryID string) error {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return apperror.ValidationFailed("id", "entry ID is required")
	}

	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	habit, err := s.repo.GetHabit(ctx, entry.HabitID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteEntry(ctx, entryID); err != nil {
		return err
	}
	if err := s.recompute(ctx, habit, entry.Date); err != nil {
		return err
	}

	s.logger.Info("entry deleted",
		slog.String("entry_id", entryID),
		slog.String("habit_id", entry.HabitID),
	)
	return nil
}

// LogEntries writes a batch of entries.
//
// Each entry is upserted and its habit's streaks rebuilt in input order.
// Scores are recomputed afterwards, once per distinct (user, date) pair, so
// logging a whole routine for one day costs one score recompute, not one per
// habit. The first failure aborts the batch; every step is idempotent, so the
// caller can resend the whole batch.
func (s *EntryService) LogEntries(ctx context.Context, inputs []model.EntryInput) ([]model.HabitEntry, error) {
	if len(inputs) == 0 {
		return []model.HabitEntry{}, nil
	}
	if len(inputs) > MaxBatchLength {
		return nil, apperror.ValidationFailed("entries",
			fmt.Sprintf("a batch may hold at most %d entries", MaxBatchLength))
	}
	for i, in := range inputs {
		if err := validateEntry(in.HabitID, in.Date, in.EntryFields); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	habits := make(map[string]*model.Habit)
	var touched []userDay
	seen := make(map[userDay]bool)

	entries := make([]model.HabitEntry, 0, len(inputs))
	for _, in := range inputs {
		habit, ok := habits[in.HabitID]
		if !ok {
			h, err := s.repo.GetHabit(ctx, in.HabitID)
			if err != nil {
				return nil, err
			}
			habit = h
			habits[in.HabitID] = h
		}

		entry, err := s.write(ctx, habit, in.Date, in.EntryFields)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)

		key := userDay{userID: habit.UserID, date: in.Date}
		if !seen[key] {
			seen[key] = true
			touched = append(touched, key)
		}
	}

	for _, key := range touched {
		if _, err := s.scores.RecomputeDailyScore(ctx, key.userID, key.date); err != nil {
			return nil, err
		}
	}

	s.logger.Info("entries logged",
		slog.Int("entries", len(entries)),
		slog.Int("days_rescored", len(touched)),
	)
	return entries, nil
}

// ListEntries returns a habit's entries in [from, to]; zero bounds are open.
func (s *EntryService) ListEntries(ctx context.Context, habitID string, from, to model.Date) ([]model.HabitEntry, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetHabit(ctx, habitID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, habitID, repository.DateRange{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// RecomputeUser rebuilds streaks for every habit of the user and the daily
// score for every day in [from, to]. It repairs derived data after manual
// edits to the store or a change to habit points.
func (s *EntryService) RecomputeUser(ctx context.Context, userID string, from, to model.Date) (int, error) {
	if from.IsZero() || to.IsZero() {
		return 0, apperror.ValidationFailed("from", "from and to are required")
	}
	if err := validateRange(from, to); err != nil {
		return 0, err
	}
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return 0, err
	}

	habits, err := s.repo.ListHabits(ctx, userID, false)
	if err != nil {
		return 0, fmt.Errorf("recomputing user: %w", err)
	}
	for _, h := range habits {
		if err := s.streaks.RecomputeStreaks(ctx, h.ID); err != nil {
			return 0, err
		}
	}

	days := 0
	for d := from; !d.After(to); d = d.AddDays(1) {
		if _, err := s.scores.RecomputeDailyScore(ctx, userID, d); err != nil {
			return days, err
		}
		days++
	}

	s.logger.Info("user recomputed",
		slog.String("user_id", userID),
		slog.Int("habits", len(habits)),
		slog.Int("days", days),
	)
	return days, nil
}

// write upserts one entry and rebuilds its habit's streaks.
func (s *EntryService) write(ctx context.Context, habit *model.Habit, date model.Date, fields model.EntryFields) (*model.HabitEntry, error) {
	entry := &model.HabitEntry{
		HabitID:     habit.ID,
		Date:        date,
		EntryFields: fields,
	}
	if err := s.repo.UpsertEntry(ctx, entry); err != nil {
		s.logger.Error("failed to upsert entry",
			slog.String("habit_id", habit.ID),
			slog.String("date", date.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("upserting entry: %w", err)
	}
	if err := s.streaks.RecomputeStreaks(ctx, habit.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *EntryService) recompute(ctx context.Context, habit *model.Habit, date model.Date) error {
	if err := s.streaks.RecomputeStreaks(ctx, habit.ID); err != nil {
		return err
	}
	_, err := s.scores.RecomputeDailyScore(ctx, habit.UserID, date)
	return err
}

func validateEntry(habitID string, date model.Date, fields model.EntryFields) error {
	if strings.TrimSpace(habitID) == "" {
		return apperror.ValidationFailed("habitId", "habit ID is required")
	}
	if date.IsZero() {
		return apperror.ValidationFailed("date", "date is required")
	}
	return validateFields(fields)
}

func validateFields(f model.EntryFields) error {
	if !f.Status.Valid() {
		return apperror.ValidationFailed("status",
			fmt.Sprintf("status must be one of COMPLETED, FAILED, SKIPPED, PARTIAL, got %q", f.Status))
	}
	if f.TimeSpentMinutes != nil && *f.TimeSpentMinutes < 0 {
		return apperror.ValidationFailed("timeSpentMinutes", "time spent must be >= 0")
	}
	if f.Difficulty != nil && (*f.Difficulty < MinRating || *f.Difficulty > MaxRating) {
		return apperror.ValidationFailed("difficulty",
			fmt.Sprintf("difficulty must be between %d and %d", MinRating, MaxRating))
	}
	if f.Mood != nil && (*f.Mood < MinRating || *f.Mood > MaxRating) {
		return apperror.ValidationFailed("mood",
			fmt.Sprintf("mood must be between %d and %d", MinRating, MaxRating))
	}
	if f.Note != nil && len(*f.Note) > MaxNoteLength {
		return apperror.ValidationFailed("note",
			fmt.Sprintf("note must be %d characters or less", MaxNoteLength))
	}
	return nil
}
