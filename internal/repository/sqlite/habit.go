package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
)

const habitColumns = `id, user_id, name, description, category, frequency, tracking_type,
	target_count, target_value, target_unit, points, display_order, is_active, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (*model.Habit, error) {
	var (
		h           model.Habit
		category    string
		targetValue sql.NullFloat64
	)
	if err := row.Scan(
		&h.ID, &h.UserID, &h.Name, &h.Description, &category, &h.Frequency, &h.TrackingType,
		&h.TargetCount, &targetValue, &h.TargetUnit, &h.Points, &h.DisplayOrder, &h.IsActive,
		&h.CreatedAt, &h.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c, err := model.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("habit %s: %w", h.ID, err)
	}
	h.Category = c
	h.TargetValue = floatPtr(targetValue)
	return &h, nil
}

// CreateHabit inserts habit, assigning its ID and timestamps in place.
func (db *DB) CreateHabit(ctx context.Context, habit *model.Habit) error {
	now := time.Now().UTC()
	habit.ID = xid.New().String()
	habit.CreatedAt = now
	habit.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO habits (`+habitColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.UserID, habit.Name, habit.Description, habit.Category.String(),
		habit.Frequency, habit.TrackingType, habit.TargetCount, nullFloat(habit.TargetValue),
		habit.TargetUnit, habit.Points, habit.DisplayOrder, habit.IsActive,
		habit.CreatedAt, habit.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("habit", habit.Name)
		}
		return fmt.Errorf("sqlite: creating habit: %w", err)
	}
	return nil
}

func (db *DB) GetHabit(ctx context.Context, id string) (*model.Habit, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("habit", id)
		}
		return nil, fmt.Errorf("sqlite: getting habit %s: %w", id, err)
	}
	return h, nil
}

// ListHabits returns the user's habits in display order.
func (db *DB) ListHabits(ctx context.Context, userID string, activeOnly bool) ([]model.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY display_order, created_at`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing habits for user %s: %w", userID, err)
	}
	defer rows.Close()

	habits := []model.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning habit row: %w", err)
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating habits: %w", err)
	}
	return habits, nil
}

func (db *DB) CountActiveHabits(ctx context.Context, userID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM habits WHERE user_id = ? AND is_active = 1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting active habits for user %s: %w", userID, err)
	}
	return n, nil
}

// UpdateHabit writes the mutable habit columns. category and tracking_type
// are deliberately absent from the SET list.
func (db *DB) UpdateHabit(ctx context.Context, habit *model.Habit) error {
	habit.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE habits
		 SET name = ?, description = ?, frequency = ?, target_count = ?, target_value = ?,
		     target_unit = ?, points = ?, display_order = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		habit.Name, habit.Description, habit.Frequency, habit.TargetCount,
		nullFloat(habit.TargetValue), habit.TargetUnit, habit.Points, habit.DisplayOrder,
		habit.IsActive, habit.UpdatedAt, habit.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("habit", habit.Name)
		}
		return fmt.Errorf("sqlite: updating habit %s: %w", habit.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("habit", habit.ID)
	}
	return nil
}

// DeleteHabit removes the habit; entries and streaks go with it via ON DELETE CASCADE.
func (db *DB) DeleteHabit(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting habit %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("habit", id)
	}
	return nil
}
