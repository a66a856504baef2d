package model

import "time"

// EntryStatus is the outcome a user recorded for a habit on one day.
type EntryStatus string

const (
	StatusCompleted EntryStatus = "COMPLETED"
	StatusFailed    EntryStatus = "FAILED"
	StatusSkipped   EntryStatus = "SKIPPED"
	StatusPartial   EntryStatus = "PARTIAL"
)

func (s EntryStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped, StatusPartial:
		return true
	}
	return false
}

// EntryFields are the user-editable parts of an entry.
// Everything except Status is optional.
type EntryFields struct {
	Status           EntryStatus `json:"status"`
	Value            *float64    `json:"value,omitempty"`
	TextValue        *string     `json:"textValue,omitempty"`
	Note             *string     `json:"note,omitempty"`
	TimeSpentMinutes *int        `json:"timeSpentMinutes,omitempty"`
	Difficulty       *int        `json:"difficulty,omitempty"` // 1-5
	Mood             *int        `json:"mood,omitempty"`       // 1-5
}

// HabitEntry is one attempt at a habit on one calendar day.
// (HabitID, Date) is unique; it is the upsert key.
type HabitEntry struct {
	ID      string `json:"id"`
	HabitID string `json:"habitId"`
	Date    Date   `json:"date"`
	EntryFields
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntryInput is one element of a batch log request.
type EntryInput struct {
	HabitID string `json:"habitId"`
	Date    Date   `json:"date"`
	EntryFields
}

// ScoredEntry is an entry joined with the parent-habit columns the score
// aggregation needs.
type ScoredEntry struct {
	EntryID  string
	HabitID  string
	Status   EntryStatus
	Category Category
	Points   int
}
