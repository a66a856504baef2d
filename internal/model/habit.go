// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"fmt"
	"time"
)

// Frequency is how often a habit is meant to be performed.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyCustom  Frequency = "CUSTOM"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

// TrackingType describes what a user records for each entry.
type TrackingType string

const (
	TrackingBinary   TrackingType = "BINARY"
	TrackingNumeric  TrackingType = "NUMERIC"
	TrackingDuration TrackingType = "DURATION"
	TrackingRating   TrackingType = "RATING"
	TrackingText     TrackingType = "TEXT"
)

func (t TrackingType) Valid() bool {
	switch t {
	case TrackingBinary, TrackingNumeric, TrackingDuration, TrackingRating, TrackingText:
		return true
	}
	return false
}

// Habit is a user-owned recurring activity.
//
// Category and TrackingType are fixed once the habit exists: scores that were
// already derived from its entries would silently change bucket otherwise.
type Habit struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Category     Category     `json:"category"`
	Frequency    Frequency    `json:"frequency"`
	TrackingType TrackingType `json:"trackingType"`
	TargetCount  int          `json:"targetCount"`
	TargetValue  *float64     `json:"targetValue,omitempty"`
	TargetUnit   string       `json:"targetUnit"`
	Points       int          `json:"points"`
	DisplayOrder int          `json:"displayOrder"`
	IsActive     bool         `json:"isActive"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (h Habit) String() string {
	return fmt.Sprintf("habit %s (%s, %d pts)", h.ID, h.Category, h.Points)
}

// HabitPatch is a partial habit update; nil fields are left unchanged.
// Category and TrackingType are accepted only so a client can echo them back.
type HabitPatch struct {
	Name         *string       `json:"name,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Category     *Category     `json:"category,omitempty"`
	Frequency    *Frequency    `json:"frequency,omitempty"`
	TrackingType *TrackingType `json:"trackingType,omitempty"`
	TargetCount  *int          `json:"targetCount,omitempty"`
	TargetValue  *float64      `json:"targetValue,omitempty"`
	TargetUnit   *string       `json:"targetUnit,omitempty"`
	Points       *int          `json:"points,omitempty"`
	DisplayOrder *int          `json:"displayOrder,omitempty"`
	IsActive     *bool         `json:"isActive,omitempty"`
}
