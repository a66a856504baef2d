package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
)

const entryColumns = `id, habit_id, date, status, value, text_value, note,
	time_spent_minutes, difficulty, mood, created_at, updated_at`

func scanEntry(row rowScanner) (*model.HabitEntry, error) {
	var (
		e                           model.HabitEntry
		date                        string
		value                       sql.NullFloat64
		textValue, note             sql.NullString
		timeSpent, difficulty, mood sql.NullInt64
	)
	if err := row.Scan(
		&e.ID, &e.HabitID, &date, &e.Status, &value, &textValue, &note,
		&timeSpent, &difficulty, &mood, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.Date = d
	e.Value = floatPtr(value)
	e.TextValue = stringPtr(textValue)
	e.Note = stringPtr(note)
	e.TimeSpentMinutes = intPtr(timeSpent)
	e.Difficulty = intPtr(difficulty)
	e.Mood = intPtr(mood)
	return &e, nil
}

// UpsertEntry writes the entry keyed by (habit_id, date).
//
// ON CONFLICT ... DO UPDATE is a single atomic statement: two concurrent
// requests for the same habit and day cannot both insert, which a
// "SELECT then INSERT" sequence could not guarantee. The existing row keeps
// its id and created_at.
func (db *DB) UpsertEntry(ctx context.Context, entry *model.HabitEntry) error {
	now := time.Now().UTC()

	var id string
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO habit_entries (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (habit_id, date) DO UPDATE SET
		     status             = excluded.status,
		     value              = excluded.value,
		     text_value         = excluded.text_value,
		     note               = excluded.note,
		     time_spent_minutes = excluded.time_spent_minutes,
		     difficulty         = excluded.difficulty,
		     mood               = excluded.mood,
		     updated_at         = excluded.updated_at
		 RETURNING id`,
		xid.New().String(), entry.HabitID, entry.Date.String(), entry.Status,
		nullFloat(entry.Value), nullString(entry.TextValue), nullString(entry.Note),
		nullInt(entry.TimeSpentMinutes), nullInt(entry.Difficulty), nullInt(entry.Mood),
		now, now,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("sqlite: upserting entry for habit %s on %s: %w", entry.HabitID, entry.Date, err)
	}

	stored, err := db.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	*entry = *stored
	return nil
}

func (db *DB) GetEntry(ctx context.Context, id string) (*model.HabitEntry, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM habit_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("entry", id)
		}
		return nil, fmt.Errorf("sqlite: getting entry %s: %w", id, err)
	}
	return e, nil
}

// UpdateEntry rewrites the editable fields of an existing entry. The habit
// and date are the upsert key and never change here.
func (db *DB) UpdateEntry(ctx context.Context, entry *model.HabitEntry) error {
	entry.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE habit_entries
		 SET status = ?, value = ?, text_value = ?, note = ?,
		     time_spent_minutes = ?, difficulty = ?, mood = ?, updated_at = ?
		 WHERE id = ?`,
		entry.Status, nullFloat(entry.Value), nullString(entry.TextValue),
		nullString(entry.Note), nullInt(entry.TimeSpentMinutes), nullInt(entry.Difficulty),
		nullInt(entry.Mood), entry.UpdatedAt, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating entry %s: %w", entry.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("entry", entry.ID)
	}
	return nil
}

func (db *DB) DeleteEntry(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM habit_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting entry %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("entry", id)
	}
	return nil
}

// ListEntries returns the habit's entries in date order, optionally bounded.
func (db *DB) ListEntries(ctx context.Context, habitID string, r repository.DateRange) ([]model.HabitEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM habit_entries WHERE habit_id = ?`
	args := []any{habitID}
	if !r.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, r.From.String())
	}
	if !r.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, r.To.String())
	}
	query += ` ORDER BY date`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing entries for habit %s: %w", habitID, err)
	}
	defer rows.Close()

	entries := []model.HabitEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning entry row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating entries: %w", err)
	}
	return entries, nil
}

func (db *DB) ListCompletedDates(ctx context.Context, habitID string) ([]model.Date, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT date FROM habit_entries
		 WHERE habit_id = ? AND status = ?
		 ORDER BY date ASC`,
		habitID, model.StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing completed dates for habit %s: %w", habitID, err)
	}
	defer rows.Close()

	var dates []model.Date
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning completed date: %w", err)
		}
		d, err := model.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("sqlite: habit %s: %w", habitID, err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating completed dates: %w", err)
	}
	return dates, nil
}

func (db *DB) ListScoredEntries(ctx context.Context, userID string, date model.Date) ([]model.ScoredEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT e.id, e.habit_id, e.status, h.category, h.points
		 FROM habit_entries e
		 JOIN habits h ON h.id = e.habit_id
		 WHERE h.user_id = ? AND e.date = ?`,
		userID, date.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing entries for user %s on %s: %w", userID, date, err)
	}
	defer rows.Close()

	var out []model.ScoredEntry
	for rows.Next() {
		var (
			se       model.ScoredEntry
			category string
		)
		if err := rows.Scan(&se.EntryID, &se.HabitID, &se.Status, &category, &se.Points); err != nil {
			return nil, fmt.Errorf("sqlite: scanning scored entry: %w", err)
		}
		if se.Category, err = model.ParseCategory(category); err != nil {
			return nil, fmt.Errorf("sqlite: habit %s: %w", se.HabitID, err)
		}
		out = append(out, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating scored entries: %w", err)
	}
	return out, nil
}
