package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"
	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
)

const entryColumns = `id, habit_id, date, status, value, text_value, note,
	time_spent_minutes, difficulty, mood, created_at, updated_at`

func scanEntry(row pgx.Row) (*model.HabitEntry, error) {
	var (
		e      model.HabitEntry
		date   time.Time
		status string
	)
	if err := row.Scan(
		&e.ID, &e.HabitID, &date, &status, &e.Value, &e.TextValue, &e.Note,
		&e.TimeSpentMinutes, &e.Difficulty, &e.Mood, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Date = model.DateOf(date)
	e.Status = model.EntryStatus(status)
	return &e, nil
}

// UpsertEntry relies on the (habit_id, date) unique constraint; the existing
// row keeps its id and created_at.
func (db *DB) UpsertEntry(ctx context.Context, entry *model.HabitEntry) error {
	now := time.Now().UTC()

	stored, err := scanEntry(db.pool.QueryRow(ctx,
		`INSERT INTO habit_entries (`+entryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (habit_id, date) DO UPDATE SET
		     status             = excluded.status,
		     value              = excluded.value,
		     text_value         = excluded.text_value,
		     note               = excluded.note,
		     time_spent_minutes = excluded.time_spent_minutes,
		     difficulty         = excluded.difficulty,
		     mood               = excluded.mood,
		     updated_at         = excluded.updated_at
		 RETURNING `+entryColumns,
		xid.New().String(), entry.HabitID, pgDate(entry.Date), string(entry.Status),
		entry.Value, entry.TextValue, entry.Note,
		entry.TimeSpentMinutes, entry.Difficulty, entry.Mood,
		now, now,
	))
	if err != nil {
		return fmt.Errorf("postgres: upserting entry for habit %s on %s: %w", entry.HabitID, entry.Date, err)
	}
	*entry = *stored
	return nil
}

func (db *DB) GetEntry(ctx context.Context, id string) (*model.HabitEntry, error) {
	e, err := scanEntry(db.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM habit_entries WHERE id=$1`, id))
	if isNoRows(err) {
		return nil, apperror.NotFound("entry", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting entry %s: %w", id, err)
	}
	return e, nil
}

func (db *DB) UpdateEntry(ctx context.Context, entry *model.HabitEntry) error {
	entry.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE habit_entries
		 SET status=$1, value=$2, text_value=$3, note=$4,
		     time_spent_minutes=$5, difficulty=$6, mood=$7, updated_at=$8
		 WHERE id=$9`,
		string(entry.Status), entry.Value, entry.TextValue, entry.Note,
		entry.TimeSpentMinutes, entry.Difficulty, entry.Mood, entry.UpdatedAt, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating entry %s: %w", entry.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("entry", entry.ID)
	}
	return nil
}

func (db *DB) DeleteEntry(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM habit_entries WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting entry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("entry", id)
	}
	return nil
}

func (db *DB) ListEntries(ctx context.Context, habitID string, r repository.DateRange) ([]model.HabitEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM habit_entries WHERE habit_id=$1`
	args := []any{habitID}
	if !r.From.IsZero() {
		args = append(args, pgDate(r.From))
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if !r.To.IsZero() {
		args = append(args, pgDate(r.To))
		query += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	query += ` ORDER BY date`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing entries for habit %s: %w", habitID, err)
	}
	defer rows.Close()

	entries := []model.HabitEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning entry row: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (db *DB) ListCompletedDates(ctx context.Context, habitID string) ([]model.Date, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT date FROM habit_entries WHERE habit_id=$1 AND status=$2 ORDER BY date ASC`,
		habitID, string(model.StatusCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing completed dates for habit %s: %w", habitID, err)
	}
	defer rows.Close()

	var dates []model.Date
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("postgres: scanning completed date: %w", err)
		}
		dates = append(dates, model.DateOf(t))
	}
	return dates, rows.Err()
}

func (db *DB) ListScoredEntries(ctx context.Context, userID string, date model.Date) ([]model.ScoredEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT e.id, e.habit_id, e.status, h.category, h.points
		 FROM habit_entries e
		 JOIN habits h ON h.id = e.habit_id
		 WHERE h.user_id=$1 AND e.date=$2`,
		userID, pgDate(date),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing entries for user %s on %s: %w", userID, date, err)
	}
	defer rows.Close()

	var out []model.ScoredEntry
	for rows.Next() {
		var (
			se               model.ScoredEntry
			status, category string
		)
		if err := rows.Scan(&se.EntryID, &se.HabitID, &status, &category, &se.Points); err != nil {
			return nil, fmt.Errorf("postgres: scanning scored entry: %w", err)
		}
		se.Status = model.EntryStatus(status)
		if se.Category, err = model.ParseCategory(category); err != nil {
			return nil, fmt.Errorf("postgres: habit %s: %w", se.HabitID, err)
		}
		out = append(out, se)
	}
	return out, rows.Err()
}
