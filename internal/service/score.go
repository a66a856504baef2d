package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
)

// ScoreStore is the slice of the store ScoreService needs.
type ScoreStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	CountActiveHabits(ctx context.Context, userID string) (int, error)
	ListScoredEntries(ctx context.Context, userID string, date model.Date) ([]model.ScoredEntry, error)
	repository.DailyScoreRepository
}

// ScoreService owns the derived daily_scores rows.
type ScoreService struct {
	repo   ScoreStore
	logger *slog.Logger
}

func NewScoreService(repo ScoreStore, logger *slog.Logger) *ScoreService {
	return &ScoreService{repo: repo, logger: logger}
}

// AggregateScore folds one day's entries into a DailyScore.
//
// Only COMPLETED entries count. Each adds its habit's points to the total and
// to the habit's category; failed, skipped and partial entries add nothing.
// totalHabits is the user's active habit count, not the number of entries.
func AggregateScore(userID string, date model.Date, totalHabits int, entries []model.ScoredEntry) model.DailyScore {
	score := model.DailyScore{
		UserID:      userID,
		Date:        date,
		TotalHabits: totalHabits,
	}
	for _, e := range entries {
		if e.Status != model.StatusCompleted {
			continue
		}
		score.TotalPoints += e.Points
		score.CompletedHabits++
		score.Scores[e.Category] += e.Points
	}
	return score
}

// RecomputeDailyScore rebuilds the user's score for date from the entries
// currently in the store and upserts it.
func (s *ScoreService) RecomputeDailyScore(ctx context.Context, userID string, date model.Date) (*model.DailyScore, error) {
	totalHabits, err := s.repo.CountActiveHabits(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count active habits",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("recomputing daily score: %w", err)
	}

	entries, err := s.repo.ListScoredEntries(ctx, userID, date)
	if err != nil {
		s.logger.Error("failed to load entries for score",
			slog.String("user_id", userID),
			slog.String("date", date.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("recomputing daily score: %w", err)
	}

	score := AggregateScore(userID, date, totalHabits, entries)
	if err := s.repo.UpsertDailyScore(ctx, &score); err != nil {
		s.logger.Error("failed to upsert daily score",
			slog.String("user_id", userID),
			slog.String("date", date.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("recomputing daily score: %w", err)
	}

	s.logger.Debug("daily score recomputed",
		slog.String("user_id", userID),
		slog.String("date", date.String()),
		slog.Int("total_points", score.TotalPoints),
		slog.Int("completed", score.CompletedHabits),
		slog.Int("total_habits", score.TotalHabits),
	)
	return &score, nil
}

// GetDailyScore returns the stored score. A day that was never recomputed is
// reported as not found rather than as an all-zero score.
func (s *ScoreService) GetDailyScore(ctx context.Context, userID string, date model.Date) (*model.DailyScore, error) {
	if date.IsZero() {
		return nil, apperror.ValidationFailed("date", "date is required")
	}
	return s.repo.GetDailyScore(ctx, userID, date)
}

// ListDailyScores returns the user's stored scores in [from, to]; zero bounds
// are open.
func (s *ScoreService) ListDailyScores(ctx context.Context, userID string, from, to model.Date) ([]model.DailyScore, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	scores, err := s.repo.ListDailyScores(ctx, userID, repository.DateRange{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("listing daily scores: %w", err)
	}
	return scores, nil
}

func validateRange(from, to model.Date) error {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return apperror.ValidationFailed("to", "to must not be before from")
	}
	return nil
}
