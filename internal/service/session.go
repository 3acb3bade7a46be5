package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pagepilot/action-server-go/internal/automation"
	"github.com/pagepilot/action-server-go/internal/config"
	apperrors "github.com/pagepilot/action-server-go/internal/errors"
	"github.com/pagepilot/action-server-go/internal/model"
	"github.com/pagepilot/action-server-go/internal/repository"
	"github.com/pagepilot/action-server-go/internal/util"
)

// Validator checks a cookie bundle or captures one from credentials.
// *automation.Client is the production implementation.
type Validator interface {
	ValidateSession(ctx context.Context, cookies, userAgent string) (*automation.SessionInfo, error)
	Login(ctx context.Context, email, password string) (*automation.LoginResult, error)
}

// SessionService manages the stored Facebook sessions of an account.
type SessionService struct {
	sessionRepo repository.FacebookSessionRepository
	validator   Validator
	cipher      *util.Cipher
}

func NewSessionService(
	sessionRepo repository.FacebookSessionRepository,
	validator Validator,
	cipher *util.Cipher,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		validator:   validator,
		cipher:      cipher,
	}
}

// SessionView is the external shape of a stored session. The fb id is
// masked and cookies never leave the server.
type SessionView struct {
	ID        string    `json:"id"`
	FBID      string    `json:"fbId"`
	FBName    string    `json:"fbName"`
	IsActive  bool      `json:"isActive"`
	LastUsed  time.Time `json:"lastUsed"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewOf(s *model.FacebookSession) SessionView {
	return SessionView{
		ID:        s.ID,
		FBID:      util.MaskFBID(s.FBID),
		FBName:    s.FBName,
		IsActive:  s.IsActive,
		LastUsed:  s.LastUsedAt,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
	}
}

// AddFromCookies validates the submitted cookie bundle with the worker
// and stores it. Re-submitting cookies for an account already on file
// replaces the stored bundle and reactivates the session.
func (s *SessionService) AddFromCookies(ctx context.Context, user *model.User, cookies, userAgent string) (*SessionView, error) {
	if cookies == "" {
		return nil, apperrors.MissingRequired("cookies")
	}

	info, err := s.validator.ValidateSession(ctx, cookies, userAgent)
	if err != nil {
		return nil, apperrors.External("automation worker", err)
	}
	if !info.Valid {
		return nil, apperrors.SessionInvalid("cookies did not authenticate")
	}

	return s.store(ctx, user, info.FBID, info.FBName, cookies, userAgent)
}

// AddFromCredentials has the worker perform a credential login and stores
// the captured cookie bundle. The credentials themselves are never stored.
func (s *SessionService) AddFromCredentials(ctx context.Context, user *model.User, email, password string) (*SessionView, error) {
	if email == "" {
		return nil, apperrors.MissingRequired("email")
	}
	if password == "" {
		return nil, apperrors.MissingRequired("password")
	}

	result, err := s.validator.Login(ctx, email, password)
	if err != nil {
		return nil, apperrors.External("automation worker", err)
	}
	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = "login failed"
		}
		return nil, apperrors.SessionInvalid(reason)
	}

	return s.store(ctx, user, result.FBID, result.FBName, result.Cookies, result.UserAgent)
}

func (s *SessionService) store(ctx context.Context, user *model.User, fbID, fbName, cookies, userAgent string) (*SessionView, error) {
	if fbID == "" {
		return nil, apperrors.SessionInvalid("worker returned no account id")
	}

	encrypted, err := s.cipher.Encrypt(cookies)
	if err != nil {
		return nil, apperrors.Internal("failed to encrypt cookies").WithCause(err)
	}

	session, err := s.sessionRepo.Upsert(ctx, model.CreateFacebookSessionParams{
		UserID:    user.ID,
		FBID:      fbID,
		FBName:    fbName,
		Cookies:   encrypted,
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(config.FacebookSessionTTL),
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	max := user.MaxSessions
	if max <= 0 {
		max = config.DefaultMaxSessions
	}
	if evicted, err := s.sessionRepo.EvictOverLimit(ctx, user.ID, max); err != nil {
		log.Error().Err(err).Str("userId", user.UserID).Msg("failed to evict sessions over limit")
	} else if evicted > 0 {
		log.Info().Str("userId", user.UserID).Int64("evicted", evicted).Msg("evicted least recently used sessions")
	}

	log.Info().
		Str("userId", user.UserID).
		Str("fbId", util.MaskFBID(fbID)).
		Msg("facebook session stored")

	view := viewOf(session)
	return &view, nil
}

// List returns every stored session for the user, masked.
func (s *SessionService) List(ctx context.Context, userID string) ([]SessionView, error) {
	sessions, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, viewOf(&sessions[i]))
	}
	return views, nil
}

// Remove deletes the session matching the given fb id, accepting either
// the raw id or its masked form as shown in listings.
func (s *SessionService) Remove(ctx context.Context, userID, fbID string) error {
	if session, err := s.sessionRepo.FindByUserAndFBID(ctx, userID, fbID); err != nil {
		return apperrors.Database(err)
	} else if session != nil {
		return s.remove(ctx, userID, session)
	}

	sessions, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	for i := range sessions {
		if util.MaskFBID(sessions[i].FBID) == fbID {
			return s.remove(ctx, userID, &sessions[i])
		}
	}
	return apperrors.NotFound("session")
}

func (s *SessionService) remove(ctx context.Context, userID string, session *model.FacebookSession) error {
	if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
		return apperrors.Database(err)
	}
	log.Info().
		Str("userId", userID).
		Str("fbId", util.MaskFBID(session.FBID)).
		Msg("facebook session removed")
	return nil
}
