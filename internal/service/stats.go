package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/pagepilot/action-server-go/internal/errors"
	"github.com/pagepilot/action-server-go/internal/model"
	"github.com/pagepilot/action-server-go/internal/repository"
)

// StatsService answers history and aggregate queries over recorded
// attempts.
type StatsService struct {
	attemptRepo repository.AttemptRepository
}

func NewStatsService(attemptRepo repository.AttemptRepository) *StatsService {
	return &StatsService{attemptRepo: attemptRepo}
}

// Pagination describes one page of a history listing.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type HistoryResult struct {
	Items      []model.ActionAttempt `json:"history"`
	Pagination Pagination            `json:"pagination"`
}

// History returns one page of the user's attempts, newest first.
func (s *StatsService) History(ctx context.Context, filter model.AttemptFilter, page, limit int) (*HistoryResult, error) {
	total, err := s.attemptRepo.CountByFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	offset := (page - 1) * limit
	items, err := s.attemptRepo.FindByFilter(ctx, filter, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	totalPages := (total + limit - 1) / limit
	return &HistoryResult{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// StatsResult is the aggregate view behind the stats endpoint. Lifetime
// counters come from the user record; windows are computed from history.
type StatsResult struct {
	TotalActions      int64                 `json:"totalActions"`
	SuccessfulActions int64                 `json:"successfulActions"`
	FailedActions     int64                 `json:"failedActions"`
	Today             model.WindowStats     `json:"today"`
	Week              model.WindowStats     `json:"week"`
	Month             model.WindowStats     `json:"month"`
	ByActionType      []model.KindCount     `json:"byActionType"`
	Recent            []model.ActionAttempt `json:"recentActions"`
}

func (s *StatsService) Stats(ctx context.Context, user *model.User) (*StatsResult, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	today, err := s.attemptRepo.WindowStats(ctx, user.ID, midnight)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	week, err := s.attemptRepo.WindowStats(ctx, user.ID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	month, err := s.attemptRepo.WindowStats(ctx, user.ID, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	byKind, err := s.attemptRepo.AggregateByKind(ctx, user.ID, nil)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	recent, err := s.attemptRepo.FindRecent(ctx, user.ID, 10)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &StatsResult{
		TotalActions:      user.TotalActions,
		SuccessfulActions: user.SuccessfulActions,
		FailedActions:     user.FailedActions,
		Today:             *today,
		Week:              *week,
		Month:             *month,
		ByActionType:      byKind,
		Recent:            recent,
	}, nil
}

// AnalyticsResult covers one lookback period for the dashboard charts.
type AnalyticsResult struct {
	Period       string                     `json:"period"`
	Since        time.Time                  `json:"since"`
	Totals       model.WindowStats          `json:"totals"`
	Timeline     []model.DayCount           `json:"timeline"`
	ByActionType []model.KindCount          `json:"byActionType"`
	TopSessions  []model.SessionPerformance `json:"topSessions"`
}

// analyticsPeriods maps the accepted period names to their lookback.
var analyticsPeriods = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

func (s *StatsService) Analytics(ctx context.Context, userID, period string) (*AnalyticsResult, error) {
	if period == "" {
		period = "7d"
	}
	lookback, ok := analyticsPeriods[period]
	if !ok {
		return nil, apperrors.InvalidInput("period", "must be one of 24h, 7d, 30d, 90d")
	}
	since := time.Now().Add(-lookback)

	totals, err := s.attemptRepo.WindowStats(ctx, userID, since)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	timeline, err := s.attemptRepo.TimelineByDay(ctx, userID, since)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	byKind, err := s.attemptRepo.AggregateByKind(ctx, userID, &since)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	topSessions, err := s.attemptRepo.SessionPerformance(ctx, userID, since, 5)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &AnalyticsResult{
		Period:       period,
		Since:        since,
		Totals:       *totals,
		Timeline:     timeline,
		ByActionType: byKind,
		TopSessions:  topSessions,
	}, nil
}

// CancelPending settles attempts orphaned in pending state, typically
// after a crash mid-dispatch.
func (s *StatsService) CancelPending(ctx context.Context, userID string) (int64, error) {
	cancelled, err := s.attemptRepo.CancelPending(ctx, userID)
	if err != nil {
		return 0, apperrors.Database(err)
	}
	if cancelled > 0 {
		log.Info().Str("userId", userID).Int64("cancelled", cancelled).Msg("pending attempts cancelled")
	}
	return cancelled, nil
}

// Attempt fetches one attempt, scoped to its owner.
func (s *StatsService) Attempt(ctx context.Context, userID, attemptID string) (*model.ActionAttempt, error) {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if attempt == nil || attempt.UserID != userID {
		return nil, apperrors.NotFound("action")
	}
	return attempt, nil
}

// Export returns the user's full retained history, newest first.
func (s *StatsService) Export(ctx context.Context, userID string) ([]model.ActionAttempt, error) {
	items, err := s.attemptRepo.FindByFilter(ctx, model.AttemptFilter{UserID: userID}, 10000, 0)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return items, nil
}
