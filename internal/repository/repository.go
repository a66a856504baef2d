// Package repository declares the storage contracts the services depend on.
// Implementations live in the sqlite and postgres sub-packages.
package repository

import (
	"context"

	"github.com/sakif/habit-coach/internal/model"
)

// DateRange bounds list queries. Zero dates mean "unbounded" on that side.
type DateRange struct {
	From model.Date
	To   model.Date
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type HabitRepository interface {
	CreateHabit(ctx context.Context, habit *model.Habit) error
	GetHabit(ctx context.Context, id string) (*model.Habit, error)
	ListHabits(ctx context.Context, userID string, activeOnly bool) ([]model.Habit, error)
	CountActiveHabits(ctx context.Context, userID string) (int, error)
	UpdateHabit(ctx context.Context, habit *model.Habit) error
	// DeleteHabit removes the habit together with its entries and streaks.
	DeleteHabit(ctx context.Context, id string) error
}

type EntryRepository interface {
	// UpsertEntry inserts or replaces the entry keyed by (HabitID, Date).
	// On return entry.ID and timestamps reflect the stored row.
	UpsertEntry(ctx context.Context, entry *model.HabitEntry) error
	GetEntry(ctx context.Context, id string) (*model.HabitEntry, error)
	UpdateEntry(ctx context.Context, entry *model.HabitEntry) error
	DeleteEntry(ctx context.Context, id string) error
	ListEntries(ctx context.Context, habitID string, r DateRange) ([]model.HabitEntry, error)
	// ListCompletedDates returns the dates of COMPLETED entries, ascending.
	ListCompletedDates(ctx context.Context, habitID string) ([]model.Date, error)
	// ListScoredEntries returns every entry of the user's habits on date,
	// joined with the habit's category and points.
	ListScoredEntries(ctx context.Context, userID string, date model.Date) ([]model.ScoredEntry, error)
}

type StreakRepository interface {
	// ReplaceStreaks deletes every streak of the habit and inserts streaks,
	// inside one transaction. An empty slice just clears the habit's streaks.
	ReplaceStreaks(ctx context.Context, habitID string, streaks []model.HabitStreak) error
	ListStreaks(ctx context.Context, habitID string) ([]model.HabitStreak, error)
}

type DailyScoreRepository interface {
	// UpsertDailyScore creates or replaces the row keyed by (UserID, Date).
	UpsertDailyScore(ctx context.Context, score *model.DailyScore) error
	GetDailyScore(ctx context.Context, userID string, date model.Date) (*model.DailyScore, error)
	ListDailyScores(ctx context.Context, userID string, r DateRange) ([]model.DailyScore, error)
}

// Store is everything a backend must provide.
type Store interface {
	UserRepository
	HabitRepository
	EntryRepository
	StreakRepository
	DailyScoreRepository
	Close() error
}
