package model

import "time"

// HabitStreak is one maximal run of consecutive completed days.
// Streaks are derived data: the whole set for a habit is rebuilt on every entry change.
type HabitStreak struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habitId"`
	StartDate Date      `json:"startDate"`
	EndDate   Date      `json:"endDate"`
	Length    int       `json:"length"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// HabitStats summarises a habit's streak history.
type HabitStats struct {
	HabitID       string `json:"habitId"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
	CompletedDays int    `json:"completedDays"`
	StreakCount   int    `json:"streakCount"`
}
