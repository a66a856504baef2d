package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB migrates a throwaway schema on the server at DATABASE_URL.
// Each test gets its own schema via search_path, dropped on cleanup.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())

	admin, err := pgx.Connect(ctx, databaseURL)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)

	config, err := pgxpool.ParseConfig(databaseURL)
	require.NoError(t, err)
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET search_path TO "+schema)
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(t, err)

	db, err := NewFromPool(ctx, pool)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
		_, _ = admin.Exec(ctx, "DROP SCHEMA "+schema+" CASCADE")
		admin.Close(ctx)
	})
	return db
}

func seedHabit(t *testing.T, db *DB, points int) (*model.User, *model.Habit) {
	t.Helper()
	ctx := context.Background()
	u := &model.User{Name: "Ada"}
	require.NoError(t, db.CreateUser(ctx, u))
	h := &model.Habit{
		UserID: u.ID, Name: "Run", Category: model.CategoryPhysicalTraining,
		Frequency: model.FrequencyDaily, TrackingType: model.TrackingBinary,
		TargetCount: 1, Points: points, IsActive: true,
	}
	require.NoError(t, db.CreateHabit(ctx, h))
	return u, h
}

func TestUpsertEntry_KeyedByHabitAndDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, h := seedHabit(t, db, 5)
	d := model.NewDate(2024, 1, 1)

	first := &model.HabitEntry{HabitID: h.ID, Date: d, EntryFields: model.EntryFields{Status: model.StatusFailed}}
	require.NoError(t, db.UpsertEntry(ctx, first))
	mood := 3
	second := &model.HabitEntry{HabitID: h.ID, Date: d, EntryFields: model.EntryFields{Status: model.StatusCompleted, Mood: &mood}}
	require.NoError(t, db.UpsertEntry(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, d, second.Date)
	require.NotNil(t, second.Mood)
	assert.Equal(t, 3, *second.Mood)

	dates, err := db.ListCompletedDates(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Date{d}, dates)
}

func TestReplaceStreaks_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, h := seedHabit(t, db, 5)

	require.NoError(t, db.ReplaceStreaks(ctx, h.ID, []model.HabitStreak{
		{StartDate: model.NewDate(2024, 1, 1), EndDate: model.NewDate(2024, 1, 3), Length: 3},
		{StartDate: model.NewDate(2024, 1, 5), EndDate: model.NewDate(2024, 1, 6), Length: 2, IsActive: true},
	}))

	streaks, err := db.ListStreaks(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, streaks, 2)
	assert.Equal(t, model.NewDate(2024, 1, 3), streaks[0].EndDate)
	assert.True(t, streaks[1].IsActive)

	require.NoError(t, db.ReplaceStreaks(ctx, h.ID, nil))
	streaks, err = db.ListStreaks(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, streaks)
}

func TestUpsertDailyScore_Replaces(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u, _ := seedHabit(t, db, 5)
	d := model.NewDate(2024, 1, 1)

	var scores model.CategoryScores
	scores[model.CategoryPhysicalTraining] = 5
	first := &model.DailyScore{UserID: u.ID, Date: d, TotalPoints: 5, CompletedHabits: 1, TotalHabits: 1, Scores: scores}
	require.NoError(t, db.UpsertDailyScore(ctx, first))

	second := &model.DailyScore{UserID: u.ID, Date: d, TotalHabits: 1}
	require.NoError(t, db.UpsertDailyScore(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := db.GetDailyScore(ctx, u.ID, d)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalPoints)
	assert.Equal(t, model.CategoryScores{}, got.Scores)

	list, err := db.ListDailyScores(ctx, u.ID, repository.DateRange{From: d, To: d})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDeleteHabit_Cascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, h := seedHabit(t, db, 5)
	e := &model.HabitEntry{HabitID: h.ID, Date: model.NewDate(2024, 1, 1), EntryFields: model.EntryFields{Status: model.StatusCompleted}}
	require.NoError(t, db.UpsertEntry(ctx, e))

	require.NoError(t, db.DeleteHabit(ctx, h.ID))

	_, err := db.GetEntry(ctx, e.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCreateHabit_DuplicateName(t *testing.T) {
	db := newTestDB(t)
	u, _ := seedHabit(t, db, 5)

	dup := &model.Habit{
		UserID: u.ID, Name: "Run", Category: model.CategoryNutrition,
		Frequency: model.FrequencyDaily, TrackingType: model.TrackingBinary,
	}
	err := db.CreateHabit(context.Background(), dup)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}
