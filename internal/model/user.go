// Package model defines the data structures used throughout the application.
package model

import "time"

// User owns habits and daily scores.
//
// WHY A TIMEZONE ON THE USER?
// "Today" decides whether a streak is active. A user in Auckland and a user in
// Los Angeles live in different days for most of the UTC clock, so the engine
// resolves "today" in the user's own IANA zone (e.g. "Europe/Vilnius").
// An empty Timezone falls back to the server's configured default.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
