package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"
	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
)

const habitColumns = `id, user_id, name, description, category, frequency, tracking_type,
	target_count, target_value, target_unit, points, display_order, is_active, created_at, updated_at`

func scanHabit(row pgx.Row) (*model.Habit, error) {
	var (
		h                          model.Habit
		category, freq, trackingTy string
	)
	if err := row.Scan(
		&h.ID, &h.UserID, &h.Name, &h.Description, &category, &freq, &trackingTy,
		&h.TargetCount, &h.TargetValue, &h.TargetUnit, &h.Points, &h.DisplayOrder, &h.IsActive,
		&h.CreatedAt, &h.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c, err := model.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("habit %s: %w", h.ID, err)
	}
	h.Category = c
	h.Frequency = model.Frequency(freq)
	h.TrackingType = model.TrackingType(trackingTy)
	return &h, nil
}

func (db *DB) CreateHabit(ctx context.Context, habit *model.Habit) error {
	now := time.Now().UTC()
	habit.ID = xid.New().String()
	habit.CreatedAt = now
	habit.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO habits (`+habitColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		habit.ID, habit.UserID, habit.Name, habit.Description, habit.Category.String(),
		string(habit.Frequency), string(habit.TrackingType), habit.TargetCount, habit.TargetValue,
		habit.TargetUnit, habit.Points, habit.DisplayOrder, habit.IsActive,
		habit.CreatedAt, habit.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("habit", habit.Name)
		}
		return fmt.Errorf("postgres: creating habit: %w", err)
	}
	return nil
}

func (db *DB) GetHabit(ctx context.Context, id string) (*model.Habit, error) {
	h, err := scanHabit(db.pool.QueryRow(ctx, `SELECT `+habitColumns+` FROM habits WHERE id=$1`, id))
	if isNoRows(err) {
		return nil, apperror.NotFound("habit", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting habit %s: %w", id, err)
	}
	return h, nil
}

func (db *DB) ListHabits(ctx context.Context, userID string, activeOnly bool) ([]model.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id=$1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY display_order, created_at`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing habits for user %s: %w", userID, err)
	}
	defer rows.Close()

	habits := []model.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning habit row: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

func (db *DB) CountActiveHabits(ctx context.Context, userID string) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM habits WHERE user_id=$1 AND is_active`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: counting active habits for user %s: %w", userID, err)
	}
	return n, nil
}

// UpdateHabit leaves category and tracking_type untouched.
func (db *DB) UpdateHabit(ctx context.Context, habit *model.Habit) error {
	habit.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE habits
		 SET name=$1, description=$2, frequency=$3, target_count=$4, target_value=$5,
		     target_unit=$6, points=$7, display_order=$8, is_active=$9, updated_at=$10
		 WHERE id=$11`,
		habit.Name, habit.Description, string(habit.Frequency), habit.TargetCount, habit.TargetValue,
		habit.TargetUnit, habit.Points, habit.DisplayOrder, habit.IsActive, habit.UpdatedAt, habit.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("habit", habit.Name)
		}
		return fmt.Errorf("postgres: updating habit %s: %w", habit.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("habit", habit.ID)
	}
	return nil
}

func (db *DB) DeleteHabit(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM habits WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting habit %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("habit", id)
	}
	return nil
}
