package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pagepilot/action-server-go/internal/config"
	apperrors "github.com/pagepilot/action-server-go/internal/errors"
	"github.com/pagepilot/action-server-go/internal/model"
	"github.com/pagepilot/action-server-go/internal/repository"
	"github.com/pagepilot/action-server-go/internal/util"
)

// DashboardService composes account, session and attempt data for the
// dashboard endpoints.
type DashboardService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.FacebookSessionRepository
	attemptRepo repository.AttemptRepository
	startedAt   time.Time
}

func NewDashboardService(
	userRepo repository.UserRepository,
	sessionRepo repository.FacebookSessionRepository,
	attemptRepo repository.AttemptRepository,
) *DashboardService {
	return &DashboardService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		attemptRepo: attemptRepo,
		startedAt:   time.Now(),
	}
}

type Overview struct {
	User             *model.User           `json:"user"`
	EligibleSessions int                   `json:"activeSessions"`
	Today            model.WindowStats     `json:"today"`
	Recent           []model.ActionAttempt `json:"recentActions"`
}

func (s *DashboardService) Overview(ctx context.Context, user *model.User) (*Overview, error) {
	eligible, err := s.sessionRepo.CountEligible(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.attemptRepo.WindowStats(ctx, user.ID, midnight)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	recent, err := s.attemptRepo.FindRecent(ctx, user.ID, 5)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &Overview{
		User:             user,
		EligibleSessions: eligible,
		Today:            *today,
		Recent:           recent,
	}, nil
}

// SystemStatus is the service-wide counters view, admin facing.
type SystemStatus struct {
	UptimeSeconds  int64 `json:"uptimeSeconds"`
	TotalUsers     int   `json:"totalUsers"`
	ActiveUsers    int   `json:"activeUsers"`
	ActiveSessions int   `json:"activeSessions"`
	TotalAttempts  int   `json:"totalAttempts"`
}

func (s *DashboardService) Status(ctx context.Context) (*SystemStatus, error) {
	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	activeUsers, err := s.userRepo.CountActive(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	activeSessions, err := s.sessionRepo.CountActive(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	totalAttempts, err := s.attemptRepo.Count(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &SystemStatus{
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		TotalUsers:     totalUsers,
		ActiveUsers:    activeUsers,
		ActiveSessions: activeSessions,
		TotalAttempts:  totalAttempts,
	}, nil
}

// UpdateSettings applies the user's preference changes. Max sessions is
// clamped to the service ceiling.
func (s *DashboardService) UpdateSettings(ctx context.Context, user *model.User, params model.UpdateSettingsParams) (*model.User, error) {
	if params.MaxSessions != nil {
		if *params.MaxSessions < 1 {
			return nil, apperrors.InvalidInput("maxSessions", "must be at least 1")
		}
		if *params.MaxSessions > config.MaxSessionsCeiling {
			return nil, apperrors.InvalidInput("maxSessions", "exceeds the allowed maximum")
		}
	}
	if params.NotificationEmail != nil && *params.NotificationEmail != "" {
		if !util.IsValidEmail(*params.NotificationEmail) {
			return nil, apperrors.InvalidInput("notificationEmail", "must be a valid email address")
		}
	}

	updated, err := s.userRepo.UpdateSettings(ctx, user.ID, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	log.Info().Str("userId", user.UserID).Msg("settings updated")
	return updated, nil
}
