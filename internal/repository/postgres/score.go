package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"
	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
)

var (
	scoreColumns string
	scoreUpsert  string
)

func init() {
	cols := []string{"id", "user_id", "date", "total_points", "completed_habits", "total_habits"}
	sets := []string{
		"total_points = excluded.total_points",
		"completed_habits = excluded.completed_habits",
		"total_habits = excluded.total_habits",
	}
	for _, c := range model.AllCategories() {
		cols = append(cols, c.ScoreColumn())
		sets = append(sets, c.ScoreColumn()+" = excluded."+c.ScoreColumn())
	}
	cols = append(cols, "created_at", "updated_at")
	sets = append(sets, "updated_at = excluded.updated_at")

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	scoreColumns = strings.Join(cols, ", ")
	scoreUpsert = `INSERT INTO daily_scores (` + scoreColumns + `)
		VALUES (` + strings.Join(placeholders, ", ") + `)
		ON CONFLICT (user_id, date) DO UPDATE SET ` + strings.Join(sets, ", ") + `
		RETURNING ` + scoreColumns
}

func scanScore(row pgx.Row) (*model.DailyScore, error) {
	var (
		s    model.DailyScore
		date time.Time
	)
	dest := []any{&s.ID, &s.UserID, &date, &s.TotalPoints, &s.CompletedHabits, &s.TotalHabits}
	for i := range s.Scores {
		dest = append(dest, &s.Scores[i])
	}
	dest = append(dest, &s.CreatedAt, &s.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s.Date = model.DateOf(date)
	return &s, nil
}

func (db *DB) UpsertDailyScore(ctx context.Context, score *model.DailyScore) error {
	now := time.Now().UTC()
	args := []any{
		xid.New().String(), score.UserID, pgDate(score.Date),
		score.TotalPoints, score.CompletedHabits, score.TotalHabits,
	}
	for _, v := range score.Scores {
		args = append(args, v)
	}
	args = append(args, now, now)

	stored, err := scanScore(db.pool.QueryRow(ctx, scoreUpsert, args...))
	if err != nil {
		return fmt.Errorf("postgres: upserting daily score for user %s on %s: %w", score.UserID, score.Date, err)
	}
	*score = *stored
	return nil
}

func (db *DB) GetDailyScore(ctx context.Context, userID string, date model.Date) (*model.DailyScore, error) {
	s, err := scanScore(db.pool.QueryRow(ctx,
		`SELECT `+scoreColumns+` FROM daily_scores WHERE user_id=$1 AND date=$2`,
		userID, pgDate(date),
	))
	if isNoRows(err) {
		return nil, apperror.NotFound("daily score", userID+"/"+date.String())
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting daily score for user %s on %s: %w", userID, date, err)
	}
	return s, nil
}

func (db *DB) ListDailyScores(ctx context.Context, userID string, r repository.DateRange) ([]model.DailyScore, error) {
	query := `SELECT ` + scoreColumns + ` FROM daily_scores WHERE user_id=$1`
	args := []any{userID}
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
		return nil, fmt.Errorf("postgres: listing daily scores for user %s: %w", userID, err)
	}
	defer rows.Close()

	scores := []model.DailyScore{}
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning daily score row: %w", err)
		}
		scores = append(scores, *s)
	}
	return scores, rows.Err()
}
