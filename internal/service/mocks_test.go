package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/pagepilot/action-server-go/internal/automation"
	"github.com/pagepilot/action-server-go/internal/model"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByUserID(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByUserIDOrEmail(ctx context.Context, userID, email string) (*model.User, error) {
	args := m.Called(ctx, userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) RecordLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateSettings(ctx context.Context, id string, params model.UpdateSettingsParams) (*model.User, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) IncrementActionStats(ctx context.Context, id string, success bool) error {
	args := m.Called(ctx, id, success)
	return args.Error(0)
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockUserRepo) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.FacebookSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FacebookSession), args.Error(1)
}

func (m *mockSessionRepo) FindByUserAndFBID(ctx context.Context, userID, fbID string) (*model.FacebookSession, error) {
	args := m.Called(ctx, userID, fbID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FacebookSession), args.Error(1)
}

func (m *mockSessionRepo) ListEligible(ctx context.Context, userID string) ([]model.FacebookSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FacebookSession), args.Error(1)
}

func (m *mockSessionRepo) ListByUser(ctx context.Context, userID string) ([]model.FacebookSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FacebookSession), args.Error(1)
}

func (m *mockSessionRepo) Upsert(ctx context.Context, params model.CreateFacebookSessionParams) (*model.FacebookSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FacebookSession), args.Error(1)
}

func (m *mockSessionRepo) TouchLastUsed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) Deactivate(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) EvictOverLimit(ctx context.Context, userID string, max int) (int64, error) {
	args := m.Called(ctx, userID, max)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) CountEligible(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionRepo) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockAttemptRepo struct {
	mock.Mock
}

func (m *mockAttemptRepo) FindByID(ctx context.Context, id string) (*model.ActionAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ActionAttempt), args.Error(1)
}

func (m *mockAttemptRepo) Create(ctx context.Context, params model.CreateAttemptParams) (*model.ActionAttempt, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ActionAttempt), args.Error(1)
}

func (m *mockAttemptRepo) MarkSuccess(ctx context.Context, id, message string, executionMs int64) error {
	args := m.Called(ctx, id, message, executionMs)
	return args.Error(0)
}

func (m *mockAttemptRepo) MarkFailed(ctx context.Context, id, errorMsg string, executionMs int64) error {
	args := m.Called(ctx, id, errorMsg, executionMs)
	return args.Error(0)
}

func (m *mockAttemptRepo) CancelPending(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAttemptRepo) FindByFilter(ctx context.Context, filter model.AttemptFilter, limit, offset int) ([]model.ActionAttempt, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ActionAttempt), args.Error(1)
}

func (m *mockAttemptRepo) CountByFilter(ctx context.Context, filter model.AttemptFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *mockAttemptRepo) FindRecent(ctx context.Context, userID string, limit int) ([]model.ActionAttempt, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ActionAttempt), args.Error(1)
}

func (m *mockAttemptRepo) WindowStats(ctx context.Context, userID string, since time.Time) (*model.WindowStats, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WindowStats), args.Error(1)
}

func (m *mockAttemptRepo) AggregateByKind(ctx context.Context, userID string, since *time.Time) ([]model.KindCount, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.KindCount), args.Error(1)
}

func (m *mockAttemptRepo) TimelineByDay(ctx context.Context, userID string, since time.Time) ([]model.DayCount, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DayCount), args.Error(1)
}

func (m *mockAttemptRepo) SessionPerformance(ctx context.Context, userID string, since time.Time, limit int) ([]model.SessionPerformance, error) {
	args := m.Called(ctx, userID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SessionPerformance), args.Error(1)
}

func (m *mockAttemptRepo) TrimHistory(ctx context.Context, keep int) (int64, error) {
	args := m.Called(ctx, keep)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAttemptRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockUserSessionRepo struct {
	mock.Mock
}

func (m *mockUserSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.UserSession, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserSession), args.Error(1)
}

func (m *mockUserSessionRepo) Create(ctx context.Context, params model.CreateUserSessionParams) (*model.UserSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserSession), args.Error(1)
}

func (m *mockUserSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockUserSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) Execute(ctx context.Context, params automation.ExecuteParams) (*automation.ExecuteResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*automation.ExecuteResult), args.Error(1)
}

func (m *mockWorker) ValidateSession(ctx context.Context, cookies, userAgent string) (*automation.SessionInfo, error) {
	args := m.Called(ctx, cookies, userAgent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*automation.SessionInfo), args.Error(1)
}

func (m *mockWorker) Login(ctx context.Context, email, password string) (*automation.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*automation.LoginResult), args.Error(1)
}
