package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pagepilot/action-server-go/internal/model"
)

type AttemptRepository interface {
	FindByID(ctx context.Context, id string) (*model.ActionAttempt, error)
	// Create inserts the attempt in pending state. The seq column orders
	// attempts exactly as sessions were processed within a dispatch.
	Create(ctx context.Context, params model.CreateAttemptParams) (*model.ActionAttempt, error)
	MarkSuccess(ctx context.Context, id, message string, executionMs int64) error
	MarkFailed(ctx context.Context, id, errorMsg string, executionMs int64) error
	// CancelPending moves every pending attempt of the user to cancelled.
	// Pending records only exist when a crash orphaned them mid-dispatch.
	CancelPending(ctx context.Context, userID string) (int64, error)
	FindByFilter(ctx context.Context, filter model.AttemptFilter, limit, offset int) ([]model.ActionAttempt, error)
	CountByFilter(ctx context.Context, filter model.AttemptFilter) (int, error)
	FindRecent(ctx context.Context, userID string, limit int) ([]model.ActionAttempt, error)
	WindowStats(ctx context.Context, userID string, since time.Time) (*model.WindowStats, error)
	AggregateByKind(ctx context.Context, userID string, since *time.Time) ([]model.KindCount, error)
	TimelineByDay(ctx context.Context, userID string, since time.Time) ([]model.DayCount, error)
	SessionPerformance(ctx context.Context, userID string, since time.Time, limit int) ([]model.SessionPerformance, error)
	// TrimHistory keeps only the newest `keep` attempts per user.
	TrimHistory(ctx context.Context, keep int) (int64, error)
	Count(ctx context.Context) (int, error)
}

type attemptRepo struct {
	db *sqlx.DB
}

func NewAttemptRepository(db *sqlx.DB) AttemptRepository {
	return &attemptRepo{db: db}
}

func (r *attemptRepo) FindByID(ctx context.Context, id string) (*model.ActionAttempt, error) {
	var attempt model.ActionAttempt
	err := r.db.GetContext(ctx, &attempt, `SELECT * FROM action_attempts WHERE id = $1`, id)
	return HandleNotFound(&attempt, err)
}

func (r *attemptRepo) Create(ctx context.Context, params model.CreateAttemptParams) (*model.ActionAttempt, error) {
	var attempt model.ActionAttempt
	err := r.db.GetContext(ctx, &attempt, `
		INSERT INTO action_attempts
			(user_id, session_id, fb_id, masked_fb_id, action_kind,
			 target_url, target_id, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.UserID, params.SessionID, params.FBID, params.MaskedFBID,
		params.ActionKind, params.TargetURL, params.TargetID, params.Comment)
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepo) MarkSuccess(ctx context.Context, id, message string, executionMs int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE action_attempts SET
			status = 'success',
			result_message = $2,
			execution_ms = $3
		WHERE id = $1 AND status = 'pending'
	`, id, message, executionMs)
	return err
}

func (r *attemptRepo) MarkFailed(ctx context.Context, id, errorMsg string, executionMs int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE action_attempts SET
			status = 'failed',
			error_message = $2,
			execution_ms = $3
		WHERE id = $1 AND status = 'pending'
	`, id, errorMsg, executionMs)
	return err
}

func (r *attemptRepo) CancelPending(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE action_attempts SET status = 'cancelled'
		WHERE user_id = $1 AND status = 'pending'
	`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func filterClause(filter model.AttemptFilter, args *[]interface{}) string {
	*args = append(*args, filter.UserID)
	clause := fmt.Sprintf("user_id = $%d", len(*args))
	if filter.Kind != "" {
		*args = append(*args, filter.Kind)
		clause += fmt.Sprintf(" AND action_kind = $%d", len(*args))
	}
	if filter.Status != "" {
		*args = append(*args, filter.Status)
		clause += fmt.Sprintf(" AND status = $%d", len(*args))
	}
	return clause
}

func (r *attemptRepo) FindByFilter(ctx context.Context, filter model.AttemptFilter, limit, offset int) ([]model.ActionAttempt, error) {
	var args []interface{}
	clause := filterClause(filter, &args)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT * FROM action_attempts
		WHERE %s
		ORDER BY created_at DESC, seq DESC
		LIMIT $%d OFFSET $%d
	`, clause, len(args)-1, len(args))

	var attempts []model.ActionAttempt
	err := r.db.SelectContext(ctx, &attempts, query, args...)
	return attempts, err
}

func (r *attemptRepo) CountByFilter(ctx context.Context, filter model.AttemptFilter) (int, error) {
	var args []interface{}
	clause := filterClause(filter, &args)

	var count int
	err := r.db.GetContext(ctx, &count,
		fmt.Sprintf(`SELECT COUNT(*) FROM action_attempts WHERE %s`, clause), args...)
	return count, err
}

func (r *attemptRepo) FindRecent(ctx context.Context, userID string, limit int) ([]model.ActionAttempt, error) {
	var attempts []model.ActionAttempt
	err := r.db.SelectContext(ctx, &attempts, `
		SELECT * FROM action_attempts
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`, userID, limit)
	return attempts, err
}

func (r *attemptRepo) WindowStats(ctx context.Context, userID string, since time.Time) (*model.WindowStats, error) {
	var stats model.WindowStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'success') AS successful,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed
		FROM action_attempts
		WHERE user_id = $1 AND created_at >= $2
	`, userID, since)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *attemptRepo) AggregateByKind(ctx context.Context, userID string, since *time.Time) ([]model.KindCount, error) {
	var counts []model.KindCount
	err := r.db.SelectContext(ctx, &counts, `
		SELECT
			action_kind,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'success') AS successful,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed
		FROM action_attempts
		WHERE user_id = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)
		GROUP BY action_kind
		ORDER BY total DESC
	`, userID, since)
	return counts, err
}

func (r *attemptRepo) TimelineByDay(ctx context.Context, userID string, since time.Time) ([]model.DayCount, error) {
	var days []model.DayCount
	err := r.db.SelectContext(ctx, &days, `
		SELECT
			TO_CHAR(created_at, 'YYYY-MM-DD') AS day,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'success') AS successful,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed
		FROM action_attempts
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day ASC
	`, userID, since)
	return days, err
}

func (r *attemptRepo) SessionPerformance(ctx context.Context, userID string, since time.Time, limit int) ([]model.SessionPerformance, error) {
	var perf []model.SessionPerformance
	err := r.db.SelectContext(ctx, &perf, `
		SELECT
			masked_fb_id,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'success') AS successful,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed
		FROM action_attempts
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY masked_fb_id
		ORDER BY successful DESC
		LIMIT $3
	`, userID, since, limit)
	return perf, err
}

func (r *attemptRepo) TrimHistory(ctx context.Context, keep int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM action_attempts
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY user_id
					ORDER BY created_at DESC, seq DESC
				) AS rn
				FROM action_attempts
			) ranked
			WHERE rn > $1
		)
	`, keep)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *attemptRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM action_attempts`)
	return count, err
}
