package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"
	"github.com/sakif/habit-coach/internal/model"
)

// ReplaceStreaks deletes and re-inserts the habit's streaks in one transaction.
// The inserts go out as a single pgx.Batch round trip.
func (db *DB) ReplaceStreaks(ctx context.Context, habitID string, streaks []model.HabitStreak) error {
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM habit_streaks WHERE habit_id=$1`, habitID); err != nil {
			return fmt.Errorf("postgres: deleting streaks for habit %s: %w", habitID, err)
		}
		if len(streaks) == 0 {
			return nil
		}

		now := time.Now().UTC()
		batch := &pgx.Batch{}
		for i := range streaks {
			s := &streaks[i]
			s.ID = xid.New().String()
			s.HabitID = habitID
			s.CreatedAt = now
			batch.Queue(
				`INSERT INTO habit_streaks (id, habit_id, start_date, end_date, length, is_active, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				s.ID, s.HabitID, pgDate(s.StartDate), pgDate(s.EndDate), s.Length, s.IsActive, s.CreatedAt,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("postgres: inserting streaks for habit %s: %w", habitID, err)
		}
		return nil
	})
}

func (db *DB) ListStreaks(ctx context.Context, habitID string) ([]model.HabitStreak, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, habit_id, start_date, end_date, length, is_active, created_at
		 FROM habit_streaks WHERE habit_id=$1 ORDER BY start_date`,
		habitID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing streaks for habit %s: %w", habitID, err)
	}
	defer rows.Close()

	streaks := []model.HabitStreak{}
	for rows.Next() {
		var (
			s          model.HabitStreak
			start, end time.Time
		)
		if err := rows.Scan(&s.ID, &s.HabitID, &start, &end, &s.Length, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning streak row: %w", err)
		}
		s.StartDate = model.DateOf(start)
		s.EndDate = model.DateOf(end)
		streaks = append(streaks, s)
	}
	return streaks, rows.Err()
}
