package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/habit-coach/internal/model"
)

// ReplaceStreaks swaps the habit's whole streak set in one transaction, so a
// reader never sees the habit with its old streaks half deleted.
func (db *DB) ReplaceStreaks(ctx context.Context, habitID string, streaks []model.HabitStreak) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM habit_streaks WHERE habit_id = ?`, habitID,
		); err != nil {
			return fmt.Errorf("sqlite: deleting streaks for habit %s: %w", habitID, err)
		}

		now := time.Now().UTC()
		for i := range streaks {
			s := &streaks[i]
			s.ID = xid.New().String()
			s.HabitID = habitID
			s.CreatedAt = now
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO habit_streaks (id, habit_id, start_date, end_date, length, is_active, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				s.ID, s.HabitID, s.StartDate.String(), s.EndDate.String(), s.Length, s.IsActive, s.CreatedAt,
			); err != nil {
				return fmt.Errorf("sqlite: inserting streak for habit %s: %w", habitID, err)
			}
		}
		return nil
	})
}

// ListStreaks returns the habit's streaks, oldest first.
func (db *DB) ListStreaks(ctx context.Context, habitID string) ([]model.HabitStreak, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, habit_id, start_date, end_date, length, is_active, created_at
		 FROM habit_streaks WHERE habit_id = ?
		 ORDER BY start_date`,
		habitID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing streaks for habit %s: %w", habitID, err)
	}
	defer rows.Close()

	streaks := []model.HabitStreak{}
	for rows.Next() {
		var (
			s          model.HabitStreak
			start, end string
		)
		if err := rows.Scan(&s.ID, &s.HabitID, &start, &end, &s.Length, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning streak row: %w", err)
		}
		if s.StartDate, err = model.ParseDate(start); err != nil {
			return nil, fmt.Errorf("sqlite: streak %s: %w", s.ID, err)
		}
		if s.EndDate, err = model.ParseDate(end); err != nil {
			return nil, fmt.Errorf("sqlite: streak %s: %w", s.ID, err)
		}
		streaks = append(streaks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating streaks: %w", err)
	}
	return streaks, nil
}
