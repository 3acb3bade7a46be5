package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pagepilot/action-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUserID(ctx context.Context, userID string) (*model.User, error)
	FindByUserIDOrEmail(ctx context.Context, userID, email string) (*model.User, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	RecordLogin(ctx context.Context, id string) error
	UpdateSettings(ctx context.Context, id string, params model.UpdateSettingsParams) (*model.User, error)
	// IncrementActionStats bumps the running counters atomically so
	// concurrent dispatches for the same account never lose updates.
	IncrementActionStats(ctx context.Context, id string, success bool) error
	Count(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int, error)
}

type userRepo struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByUserID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE user_id = $1`, userID)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByUserIDOrEmail(ctx context.Context, userID, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users
		WHERE user_id = $1 OR (email IS NOT NULL AND email = $2)
		LIMIT 1
	`, userID, email)
	return HandleNotFound(&user, err)
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (user_id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.UserID, params.Email, params.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) RecordLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			login_count = login_count + 1,
			last_login_at = $2,
			updated_at = $2
		WHERE id = $1
	`, id, time.Now())
	return err
}

func (r *userRepo) UpdateSettings(ctx context.Context, id string, params model.UpdateSettingsParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			auto_cleanup = COALESCE($2, auto_cleanup),
			max_sessions = COALESCE($3, max_sessions),
			notification_email = COALESCE($4, notification_email),
			updated_at = $5
		WHERE id = $1
		RETURNING *
	`, id, params.AutoCleanup, params.MaxSessions, params.NotificationEmail, time.Now())
	return HandleNotFound(&user, err)
}

func (r *userRepo) IncrementActionStats(ctx context.Context, id string, success bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			total_actions = total_actions + 1,
			successful_actions = successful_actions + CASE WHEN $2 THEN 1 ELSE 0 END,
			failed_actions = failed_actions + CASE WHEN $2 THEN 0 ELSE 1 END,
			updated_at = $3
		WHERE id = $1
	`, id, success, time.Now())
	return err
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

func (r *userRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE is_active`)
	return count, err
}
