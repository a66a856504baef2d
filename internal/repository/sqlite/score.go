package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
)

// The per-category columns are generated from the Category enum so the SQL
// can never drift from model.NumCategories.
var (
	scoreColumnList string
	scoreUpdateList string
	scoreColumns    string
)

func init() {
	cols := make([]string, 0, model.NumCategories)
	sets := make([]string, 0, model.NumCategories)
	for _, c := range model.AllCategories() {
		cols = append(cols, c.ScoreColumn())
		sets = append(sets, c.ScoreColumn()+" = excluded."+c.ScoreColumn())
	}
	scoreColumnList = strings.Join(cols, ", ")
	scoreUpdateList = strings.Join(sets, ",\n\t\t     ")
	scoreColumns = `id, user_id, date, total_points, completed_habits, total_habits, ` +
		scoreColumnList + `, created_at, updated_at`
}

func scanScore(row rowScanner) (*model.DailyScore, error) {
	var (
		s    model.DailyScore
		date string
	)
	dest := []any{&s.ID, &s.UserID, &date, &s.TotalPoints, &s.CompletedHabits, &s.TotalHabits}
	for i := range s.Scores {
		dest = append(dest, &s.Scores[i])
	}
	dest = append(dest, &s.CreatedAt, &s.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("daily score %s: %w", s.ID, err)
	}
	s.Date = d
	return &s, nil
}

// UpsertDailyScore creates or replaces the (user_id, date) row, then reloads
// it so the caller sees the persisted id and created_at.
func (db *DB) UpsertDailyScore(ctx context.Context, score *model.DailyScore) error {
	now := time.Now().UTC()

	args := []any{
		xid.New().String(), score.UserID, score.Date.String(),
		score.TotalPoints, score.CompletedHabits, score.TotalHabits,
	}
	for _, v := range score.Scores {
		args = append(args, v)
	}
	args = append(args, now, now)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO daily_scores (`+scoreColumns+`)
		 VALUES (`+placeholders+`)
		 ON CONFLICT (user_id, date) DO UPDATE SET
		     total_points     = excluded.total_points,
		     completed_habits = excluded.completed_habits,
		     total_habits     = excluded.total_habits,
		     `+scoreUpdateList+`,
		     updated_at       = excluded.updated_at`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting daily score for user %s on %s: %w", score.UserID, score.Date, err)
	}

	stored, err := db.GetDailyScore(ctx, score.UserID, score.Date)
	if err != nil {
		return err
	}
	*score = *stored
	return nil
}

func (db *DB) GetDailyScore(ctx context.Context, userID string, date model.Date) (*model.DailyScore, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+scoreColumns+` FROM daily_scores WHERE user_id = ? AND date = ?`,
		userID, date.String(),
	)
	s, err := scanScore(row)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("daily score", userID+"/"+date.String())
		}
		return nil, fmt.Errorf("sqlite: getting daily score for user %s on %s: %w", userID, date, err)
	}
	return s, nil
}

func (db *DB) ListDailyScores(ctx context.Context, userID string, r repository.DateRange) ([]model.DailyScore, error) {
	query := `SELECT ` + scoreColumns + ` FROM daily_scores WHERE user_id = ?`
	args := []any{userID}
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
		return nil, fmt.Errorf("sqlite: listing daily scores for user %s: %w", userID, err)
	}
	defer rows.Close()

	scores := []model.DailyScore{}
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning daily score row: %w", err)
		}
		scores = append(scores, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating daily scores: %w", err)
	}
	return scores, nil
}
