package model

import "time"

// DailyScore is the per-user, per-day aggregate of completed habit points.
// (UserID, Date) is unique. TotalPoints always equals Scores.Total().
type DailyScore struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	Date            Date           `json:"date"`
	TotalPoints     int            `json:"totalPoints"`
	CompletedHabits int            `json:"completedHabits"`
	TotalHabits     int            `json:"totalHabits"`
	Scores          CategoryScores `json:"scores"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}
