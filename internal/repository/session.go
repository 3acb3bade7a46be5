package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pagepilot/action-server-go/internal/model"
)

type FacebookSessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.FacebookSession, error)
	FindByUserAndFBID(ctx context.Context, userID, fbID string) (*model.FacebookSession, error)
	// ListEligible returns active, unexpired sessions most recently used
	// first. The WHERE clause mirrors model.FacebookSession.Eligible.
	ListEligible(ctx context.Context, userID string) ([]model.FacebookSession, error)
	ListByUser(ctx context.Context, userID string) ([]model.FacebookSession, error)
	Upsert(ctx context.Context, params model.CreateFacebookSessionParams) (*model.FacebookSession, error)
	TouchLastUsed(ctx context.Context, id string) error
	// Deactivate flips is_active off and reports whether this call did the
	// flip. The conditional update keeps concurrent dispatches from both
	// claiming the deactivation.
	Deactivate(ctx context.Context, id string) (bool, error)
	// EvictOverLimit removes the least recently used sessions beyond the
	// user's max-sessions setting.
	EvictOverLimit(ctx context.Context, userID string, max int) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
	CountEligible(ctx context.Context, userID string) (int, error)
	CountActive(ctx context.Context) (int, error)
}

type facebookSessionRepo struct {
	db *sqlx.DB
}

func NewFacebookSessionRepository(db *sqlx.DB) FacebookSessionRepository {
	return &facebookSessionRepo{db: db}
}

func (r *facebookSessionRepo) FindByID(ctx context.Context, id string) (*model.FacebookSession, error) {
	var session model.FacebookSession
	err := r.db.GetContext(ctx, &session, `SELECT * FROM facebook_sessions WHERE id = $1`, id)
	return HandleNotFound(&session, err)
}

func (r *facebookSessionRepo) FindByUserAndFBID(ctx context.Context, userID, fbID string) (*model.FacebookSession, error) {
	var session model.FacebookSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM facebook_sessions
		WHERE user_id = $1 AND fb_id = $2
	`, userID, fbID)
	return HandleNotFound(&session, err)
}

func (r *facebookSessionRepo) ListEligible(ctx context.Context, userID string) ([]model.FacebookSession, error) {
	var sessions []model.FacebookSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM facebook_sessions
		WHERE user_id = $1 AND is_active AND expires_at > NOW()
		ORDER BY last_used_at DESC
	`, userID)
	return sessions, err
}

func (r *facebookSessionRepo) ListByUser(ctx context.Context, userID string) ([]model.FacebookSession, error) {
	var sessions []model.FacebookSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM facebook_sessions
		WHERE user_id = $1
		ORDER BY last_used_at DESC
	`, userID)
	return sessions, err
}

func (r *facebookSessionRepo) Upsert(ctx context.Context, params model.CreateFacebookSessionParams) (*model.FacebookSession, error) {
	var session model.FacebookSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO facebook_sessions
			(user_id, fb_id, fb_name, cookies, user_agent, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, fb_id) DO UPDATE SET
			fb_name = EXCLUDED.fb_name,
			cookies = EXCLUDED.cookies,
			user_agent = EXCLUDED.user_agent,
			is_active = TRUE,
			last_used_at = NOW(),
			expires_at = EXCLUDED.expires_at
		RETURNING *
	`, params.UserID, params.FBID, params.FBName, params.Cookies, params.UserAgent, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *facebookSessionRepo) TouchLastUsed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE facebook_sessions SET last_used_at = $2
		WHERE id = $1 AND is_active
	`, id, time.Now())
	return err
}

func (r *facebookSessionRepo) Deactivate(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE facebook_sessions SET is_active = FALSE
		WHERE id = $1 AND is_active
	`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *facebookSessionRepo) EvictOverLimit(ctx context.Context, userID string, max int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM facebook_sessions
		WHERE id IN (
			SELECT id FROM facebook_sessions
			WHERE user_id = $1
			ORDER BY last_used_at DESC
			OFFSET $2
		)
	`, userID, max)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *facebookSessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM facebook_sessions WHERE id = $1`, id)
	return err
}

func (r *facebookSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM facebook_sessions
		WHERE expires_at < NOW() OR NOT is_active
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *facebookSessionRepo) CountEligible(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM facebook_sessions
		WHERE user_id = $1 AND is_active AND expires_at > NOW()
	`, userID)
	return count, err
}

func (r *facebookSessionRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM facebook_sessions
		WHERE is_active AND expires_at > NOW()
	`)
	return count, err
}
