package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pagepilot/action-server-go/internal/config"
	apperrors "github.com/pagepilot/action-server-go/internal/errors"
	"github.com/pagepilot/action-server-go/internal/model"
	"github.com/pagepilot/action-server-go/internal/repository"
	"github.com/pagepilot/action-server-go/internal/util"
)

// AuthService handles account login and the server's own session cookies.
// Only an HMAC of the session token is stored, so a database leak does
// not leak usable cookies.
type AuthService struct {
	userRepo        repository.UserRepository
	userSessionRepo repository.UserSessionRepository
	sessionSecret   string
}

func NewAuthService(
	userRepo repository.UserRepository,
	userSessionRepo repository.UserSessionRepository,
	sessionSecret string,
) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		userSessionRepo: userSessionRepo,
		sessionSecret:   sessionSecret,
	}
}

type LoginParams struct {
	UserID   string
	Email    string
	Password string
}

// Login authenticates an existing account or registers a new one on
// first use. Returns the user and a fresh session token for the cookie.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (*model.User, string, error) {
	userID := strings.TrimSpace(params.UserID)
	if userID == "" {
		return nil, "", apperrors.MissingRequired("userId")
	}
	if params.Password == "" {
		return nil, "", apperrors.MissingRequired("password")
	}

	user, err := s.userRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, "", apperrors.Database(err)
	}
	if user == nil {
		user, err = s.register(ctx, params)
		if err != nil {
			return nil, "", err
		}
	} else {
		if !user.IsActive {
			return nil, "", apperrors.Forbidden("account is disabled")
		}
		if user.PasswordHash == nil || !util.CheckPasswordHash(params.Password, *user.PasswordHash) {
			return nil, "", apperrors.Unauthorized("invalid credentials")
		}
	}

	if err := s.userRepo.RecordLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("userId", user.UserID).Msg("failed to record login")
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	log.Info().Str("userId", user.UserID).Msg("user logged in")
	return user, token, nil
}

func (s *AuthService) register(ctx context.Context, params LoginParams) (*model.User, error) {
	email := strings.TrimSpace(params.Email)
	if email != "" {
		if !util.IsValidEmail(email) {
			return nil, apperrors.InvalidInput("email", "must be a valid email address")
		}
		existing, err := s.userRepo.FindByUserIDOrEmail(ctx, params.UserID, email)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if existing != nil {
			return nil, apperrors.InvalidInput("email", "already registered to another account")
		}
	}

	hash, err := util.HashPassword(params.Password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password").WithCause(err)
	}

	createParams := model.CreateUserParams{
		UserID:       strings.TrimSpace(params.UserID),
		PasswordHash: &hash,
	}
	if email != "" {
		createParams.Email = &email
	}

	user, err := s.userRepo.Create(ctx, createParams)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	log.Info().Str("userId", user.UserID).Msg("user registered")
	return user, nil
}

func (s *AuthService) issueToken(ctx context.Context, userID string) (string, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return "", apperrors.Internal("failed to generate session token").WithCause(err)
	}
	_, err = s.userSessionRepo.Create(ctx, model.CreateUserSessionParams{
		UserID:    userID,
		TokenHash: util.HmacSHA256(s.sessionSecret, token),
		ExpiresAt: time.Now().Add(config.UserSessionTTL),
	})
	if err != nil {
		return "", apperrors.Database(err)
	}
	return token, nil
}

// Authenticate resolves a session token to its user. Expired or unknown
// tokens fail with an unauthorized error.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	session, err := s.userSessionRepo.FindByTokenHash(ctx, util.HmacSHA256(s.sessionSecret, token))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.Unauthorized("session expired or invalid")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.Unauthorized("session expired or invalid")
	}
	if !user.IsActive {
		return nil, apperrors.Forbidden("account is disabled")
	}
	return user, nil
}

// Logout invalidates the session token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.userSessionRepo.DeleteByTokenHash(ctx, util.HmacSHA256(s.sessionSecret, token))
}
