package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pagepilot/action-server-go/internal/model"
)

type UserSessionRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.UserSession, error)
	Create(ctx context.Context, params model.CreateUserSessionParams) (*model.UserSession, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type userSessionRepo struct {
	db *sqlx.DB
}

func NewUserSessionRepository(db *sqlx.DB) UserSessionRepository {
	return &userSessionRepo{db: db}
}

func (r *userSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.UserSession, error) {
	var session model.UserSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM user_sessions
		WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash)
	return HandleNotFound(&session, err)
}

func (r *userSessionRepo) Create(ctx context.Context, params model.CreateUserSessionParams) (*model.UserSession, error) {
	var session model.UserSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO user_sessions (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.UserID, params.TokenHash, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *userSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM user_sessions WHERE token_hash = $1
	`, tokenHash)
	return err
}

func (r *userSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM user_sessions WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
