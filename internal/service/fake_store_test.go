package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore is an in-memory repository.Store. It enforces the same keys as
// the real schema: one entry per (habit, date), one score per (user, date),
// and deleting a habit drops its entries and streaks.

var _ repository.Store = (*fakeStore)(nil)

type fakeStore struct {
	nextID  int
	users   map[string]*model.User
	habits  map[string]*model.Habit
	entries map[string]*model.HabitEntry
	streaks map[string][]model.HabitStreak
	scores  map[userDay]*model.DailyScore

	// failUpsertFor makes UpsertEntry fail for one habit id.
	failUpsertFor string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[string]*model.User),
		habits:  make(map[string]*model.Habit),
		entries: make(map[string]*model.HabitEntry),
		streaks: make(map[string][]model.HabitStreak),
		scores:  make(map[userDay]*model.DailyScore),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	u.ID = f.id("user")
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	return &out, nil
}

func (f *fakeStore) CreateHabit(_ context.Context, h *model.Habit) error {
	for _, other := range f.habits {
		if other.UserID == h.UserID && other.Name == h.Name {
			return apperror.Conflict("habit", h.Name)
		}
	}
	h.ID = f.id("habit")
	stored := *h
	f.habits[h.ID] = &stored
	return nil
}

func (f *fakeStore) GetHabit(_ context.Context, id string) (*model.Habit, error) {
	h, ok := f.habits[id]
	if !ok {
		return nil, apperror.NotFound("habit", id)
	}
	out := *h
	return &out, nil
}

func (f *fakeStore) ListHabits(_ context.Context, userID string, activeOnly bool) ([]model.Habit, error) {
	out := []model.Habit{}
	for _, h := range f.habits {
		if h.UserID == userID && (!activeOnly || h.IsActive) {
			out = append(out, *h)
		}
	}
	slices.SortFunc(out, func(a, b model.Habit) int { return a.DisplayOrder - b.DisplayOrder })
	return out, nil
}

func (f *fakeStore) CountActiveHabits(ctx context.Context, userID string) (int, error) {
	hs, _ := f.ListHabits(ctx, userID, true)
	return len(hs), nil
}

func (f *fakeStore) UpdateHabit(_ context.Context, h *model.Habit) error {
	old, ok := f.habits[h.ID]
	if !ok {
		return apperror.NotFound("habit", h.ID)
	}
	stored := *h
	stored.Category = old.Category
	stored.TrackingType = old.TrackingType
	f.habits[h.ID] = &stored
	return nil
}

func (f *fakeStore) DeleteHabit(_ context.Context, id string) error {
	if _, ok := f.habits[id]; !ok {
		return apperror.NotFound("habit", id)
	}
	delete(f.habits, id)
	delete(f.streaks, id)
	for eid, e := range f.entries {
		if e.HabitID == id {
			delete(f.entries, eid)
		}
	}
	return nil
}

func (f *fakeStore) UpsertEntry(_ context.Context, e *model.HabitEntry) error {
	if f.failUpsertFor != "" && e.HabitID == f.failUpsertFor {
		return errors.New("disk full")
	}
	for _, existing := range f.entries {
		if existing.HabitID == e.HabitID && existing.Date == e.Date {
			existing.EntryFields = e.EntryFields
			*e = *existing
			return nil
		}
	}
	e.ID = f.id("entry")
	stored := *e
	f.entries[e.ID] = &stored
	return nil
}

func (f *fakeStore) GetEntry(_ context.Context, id string) (*model.HabitEntry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, apperror.NotFound("entry", id)
	}
	out := *e
	return &out, nil
}

func (f *fakeStore) UpdateEntry(_ context.Context, e *model.HabitEntry) error {
	existing, ok := f.entries[e.ID]
	if !ok {
		return apperror.NotFound("entry", e.ID)
	}
	existing.EntryFields = e.EntryFields
	return nil
}

func (f *fakeStore) DeleteEntry(_ context.Context, id string) error {
	if _, ok := f.entries[id]; !ok {
		return apperror.NotFound("entry", id)
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeStore) ListEntries(_ context.Context, habitID string, r repository.DateRange) ([]model.HabitEntry, error) {
	out := []model.HabitEntry{}
	for _, e := range f.entries {
		if e.HabitID != habitID {
			continue
		}
		if !r.From.IsZero() && e.Date.Before(r.From) {
			continue
		}
		if !r.To.IsZero() && e.Date.After(r.To) {
			continue
		}
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b model.HabitEntry) int { return a.Date.DaysSince(b.Date) })
	return out, nil
}

func (f *fakeStore) ListCompletedDates(ctx context.Context, habitID string) ([]model.Date, error) {
	entries, _ := f.ListEntries(ctx, habitID, repository.DateRange{})
	var dates []model.Date
	for _, e := range entries {
		if e.Status == model.StatusCompleted {
			dates = append(dates, e.Date)
		}
	}
	return dates, nil
}

func (f *fakeStore) ListScoredEntries(_ context.Context, userID string, date model.Date) ([]model.ScoredEntry, error) {
	var out []model.ScoredEntry
	for _, e := range f.entries {
		h := f.habits[e.HabitID]
		if h == nil || h.UserID != userID || e.Date != date {
			continue
		}
		out = append(out, model.ScoredEntry{
			EntryID: e.ID, HabitID: h.ID, Status: e.Status, Category: h.Category, Points: h.Points,
		})
	}
	return out, nil
}

func (f *fakeStore) ReplaceStreaks(_ context.Context, habitID string, streaks []model.HabitStreak) error {
	stored := make([]model.HabitStreak, len(streaks))
	for i, s := range streaks {
		s.ID = f.id("streak")
		s.HabitID = habitID
		stored[i] = s
	}
	f.streaks[habitID] = stored
	return nil
}

func (f *fakeStore) ListStreaks(_ context.Context, habitID string) ([]model.HabitStreak, error) {
	return slices.Clone(f.streaks[habitID]), nil
}

func (f *fakeStore) UpsertDailyScore(_ context.Context, s *model.DailyScore) error {
	key := userDay{userID: s.UserID, date: s.Date}
	if existing, ok := f.scores[key]; ok {
		s.ID = existing.ID
	} else {
		s.ID = f.id("score")
	}
	stored := *s
	f.scores[key] = &stored
	return nil
}

func (f *fakeStore) GetDailyScore(_ context.Context, userID string, date model.Date) (*model.DailyScore, error) {
	s, ok := f.scores[userDay{userID: userID, date: date}]
	if !ok {
		return nil, apperror.NotFound("daily score", userID+"/"+date.String())
	}
	out := *s
	return &out, nil
}

func (f *fakeStore) ListDailyScores(_ context.Context, userID string, r repository.DateRange) ([]model.DailyScore, error) {
	out := []model.DailyScore{}
	for key, s := range f.scores {
		if key.userID != userID {
			continue
		}
		if (!r.From.IsZero() && s.Date.Before(r.From)) || (!r.To.IsZero() && s.Date.After(r.To)) {
			continue
		}
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b model.DailyScore) int { return a.Date.DaysSince(b.Date) })
	return out, nil
}

// =========================================================================
// COUNTING RECOMPUTERS
// =========================================================================

// countingStreaks wraps a real StreakService and records every call.
type countingStreaks struct {
	inner *StreakService
	calls []string
}

func (c *countingStreaks) RecomputeStreaks(ctx context.Context, habitID string) error {
	c.calls = append(c.calls, habitID)
	return c.inner.RecomputeStreaks(ctx, habitID)
}

// countingScores wraps a real ScoreService and records every call, plus how
// many entries existed in the store at the moment of each call.
type countingScores struct {
	inner       *ScoreService
	store       *fakeStore
	calls       []userDay
	entriesSeen []int
}

func (c *countingScores) RecomputeDailyScore(ctx context.Context, userID string, date model.Date) (*model.DailyScore, error) {
	c.calls = append(c.calls, userDay{userID: userID, date: date})
	c.entriesSeen = append(c.entriesSeen, len(c.store.entries))
	return c.inner.RecomputeDailyScore(ctx, userID, date)
}

// =========================================================================
// TEST HARNESS
// =========================================================================

// fixedNow is 2024-01-06 15:00 UTC.
var fixedNow = time.Date(2024, 1, 6, 15, 0, 0, 0, time.UTC)

type harness struct {
	store   *fakeStore
	streaks *countingStreaks
	scores  *countingScores
	streakS *StreakService
	scoreS  *ScoreService
	entries *EntryService
	habits  *HabitService
	users   *UserService
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := testLogger()
	store := newFakeStore()
	cal := NewCalendar(store, time.UTC, logger).WithClock(func() time.Time { return fixedNow })

	streakS := NewStreakService(store, cal, logger)
	scoreS := NewScoreService(store, logger)
	streaks := &countingStreaks{inner: streakS}
	scores := &countingScores{inner: scoreS, store: store}

	return &harness{
		store:   store,
		streaks: streaks,
		scores:  scores,
		streakS: streakS,
		scoreS:  scoreS,
		entries: NewEntryService(store, streaks, scores, logger),
		habits:  NewHabitService(store, scores, logger),
		users:   NewUserService(store, logger),
	}
}

func (h *harness) user(t *testing.T) *model.User {
	t.Helper()
	u, err := h.users.Create(context.Background(), "Ada", "")
	if err != nil {
		t.Fatalf("setup: create user: %v", err)
	}
	return u
}

func (h *harness) habit(t *testing.T, userID, name string, c model.Category, points int) *model.Habit {
	t.Helper()
	habit, err := h.habits.Create(context.Background(), userID, model.Habit{
		Name:         name,
		Category:     c,
		TrackingType: model.TrackingBinary,
		Points:       points,
	})
	if err != nil {
		t.Fatalf("setup: create habit: %v", err)
	}
	return habit
}

func completed() model.EntryFields { return model.EntryFields{Status: model.StatusCompleted} }

func jan(d int) model.Date { return model.NewDate(2024, time.January, d) }
