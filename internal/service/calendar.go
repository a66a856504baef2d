// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// The interesting logic of this application lives here:
//
//   - StreakService rebuilds a habit's streaks from its completed entries.
//   - ScoreService rebuilds a user's score for one day from that day's entries.
//   - EntryService writes entries and then triggers both recomputations.
//
// Both recomputations are FULL REBUILDS: they read everything they need fresh
// from the store and replace the previous result wholesale. Nothing is patched
// incrementally, so running them twice gives the same answer, and a failed
// request can simply be retried.
//
// DEPENDENCY INJECTION:
// Services take repository interfaces, never *sqlite.DB or *postgres.DB.
// Tests pass an in-memory fake (see fake_store_test.go).
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
)

// Calendar answers "what day is it for this user?".
//
// A user's timezone wins; users without one (or with one that no longer
// loads) fall back to the server-wide default location.
type Calendar struct {
	users    repository.UserRepository
	fallback *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewCalendar builds a Calendar. A nil fallback means UTC.
func NewCalendar(users repository.UserRepository, fallback *time.Location, logger *slog.Logger) *Calendar {
	if fallback == nil {
		fallback = time.UTC
	}
	return &Calendar{
		users:    users,
		fallback: fallback,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the time source. Tests use it to pin "now".
func (c *Calendar) WithClock(now func() time.Time) *Calendar {
	c.now = now
	return c
}

// Today returns the current calendar date in the user's timezone.
func (c *Calendar) Today(ctx context.Context, userID string) (model.Date, error) {
	user, err := c.users.GetUserByID(ctx, userID)
	if err != nil {
		return model.Date{}, err
	}
	return model.Today(c.now(), c.location(user)), nil
}

func (c *Calendar) location(user *model.User) *time.Location {
	if user.Timezone == "" {
		return c.fallback
	}
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		c.logger.Warn("unknown user timezone, using default",
			slog.String("user_id", user.ID),
			slog.String("timezone", user.Timezone),
		)
		return c.fallback
	}
	return loc
}
