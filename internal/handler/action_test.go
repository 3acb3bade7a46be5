package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pagepilot/action-server-go/internal/middleware"
	"github.com/pagepilot/action-server-go/internal/model"
	"github.com/pagepilot/action-server-go/internal/service"
	"github.com/pagepilot/action-server-go/internal/util"
)

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

// Helper to add a user to the request context, mirroring the session
// middleware.
func withUser(req *http.Request, user *model.User) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, user)
	return req.WithContext(ctx)
}

func newActionHandler(attemptRepo *mockAttemptRepo) *ActionHandler {
	dispatcher := service.NewDispatcherService(
		nil, nil, attemptRepo, nil,
		util.NewCipher(""), service.NopPacer{}, nil,
	)
	return NewActionHandler(dispatcher, service.NewStatsService(attemptRepo))
}

func TestActionHandler_ValidateURL(t *testing.T) {
	handler := newActionHandler(new(mockAttemptRepo))

	t.Run("accepts facebook URL and extracts target id", func(t *testing.T) {
		body := bytes.NewBufferString(`{"url": "https://www.facebook.com/posts/123"}`)
		req := httptest.NewRequest(http.MethodPost, "/validate-url", body)
		rec := httptest.NewRecorder()

		handler.ValidateURL(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]any
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["valid"])
		assert.Equal(t, "123", resp["targetId"])
	})

	t.Run("rejects non-facebook URL", func(t *testing.T) {
		body := bytes.NewBufferString(`{"url": "https://example.com/posts/123"}`)
		req := httptest.NewRequest(http.MethodPost, "/validate-url", body)
		rec := httptest.NewRecorder()

		handler.ValidateURL(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]any
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["valid"])
		assert.NotContains(t, resp, "targetId")
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		body := bytes.NewBufferString(`{invalid}`)
		req := httptest.NewRequest(http.MethodPost, "/validate-url", body)
		rec := httptest.NewRecorder()

		handler.ValidateURL(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
	})
}

func TestActionHandler_Perform(t *testing.T) {
	user := &model.User{ID: "u-1", UserID: "alice", MaxSessions: 10}

	t.Run("rejects unknown action type before dispatch", func(t *testing.T) {
		attemptRepo := new(mockAttemptRepo)
		handler := newActionHandler(attemptRepo)

		body := bytes.NewBufferString(`{"actionType": "boost", "targetUrl": "https://facebook.com/posts/1"}`)
		req := withUser(httptest.NewRequest(http.MethodPost, "/actions/perform", body), user)
		rec := httptest.NewRecorder()

		handler.Perform(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
		attemptRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects comment action without a comment", func(t *testing.T) {
		handler := newActionHandler(new(mockAttemptRepo))

		body := bytes.NewBufferString(`{"actionType": "comment", "targetUrl": "https://facebook.com/posts/1"}`)
		req := withUser(httptest.NewRequest(http.MethodPost, "/actions/perform", body), user)
		rec := httptest.NewRecorder()

		handler.Perform(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		handler := newActionHandler(new(mockAttemptRepo))

		body := bytes.NewBufferString(`{not json`)
		req := withUser(httptest.NewRequest(http.MethodPost, "/actions/perform", body), user)
		rec := httptest.NewRecorder()

		handler.Perform(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestActionHandler_History(t *testing.T) {
	user := &model.User{ID: "u-1", UserID: "alice"}

	t.Run("returns paginated history", func(t *testing.T) {
		attemptRepo := new(mockAttemptRepo)
		handler := newActionHandler(attemptRepo)

		filter := model.AttemptFilter{UserID: "u-1", Kind: model.ActionLike}
		attemptRepo.On("CountByFilter", mock.Anything, filter).Return(1, nil)
		attemptRepo.On("FindByFilter", mock.Anything, filter, 20, 0).Return([]model.ActionAttempt{
			{ID: "a-1", ActionKind: model.ActionLike, Status: model.AttemptSuccess},
		}, nil)

		req := withUser(httptest.NewRequest(http.MethodGet, "/history?actionType=like", nil), user)
		rec := httptest.NewRecorder()

		handler.History(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "a-1")
		attemptRepo.AssertExpectations(t)
	})

	t.Run("rejects unknown action type filter", func(t *testing.T) {
		handler := newActionHandler(new(mockAttemptRepo))

		req := withUser(httptest.NewRequest(http.MethodGet, "/history?actionType=boost", nil), user)
		rec := httptest.NewRecorder()

		handler.History(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		handler := newActionHandler(new(mockAttemptRepo))

		req := withUser(httptest.NewRequest(http.MethodGet, "/history?status=exploded", nil), user)
		rec := httptest.NewRecorder()

		handler.History(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestActionHandler_Get(t *testing.T) {
	user := &model.User{ID: "u-1", UserID: "alice"}

	t.Run("rejects malformed id", func(t *testing.T) {
		attemptRepo := new(mockAttemptRepo)
		handler := newActionHandler(attemptRepo)

		router := handler.Routes()
		req := withUser(httptest.NewRequest(http.MethodGet, "/not-a-uuid", nil), user)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		attemptRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("returns 404 for another user's attempt", func(t *testing.T) {
		attemptRepo := new(mockAttemptRepo)
		handler := newActionHandler(attemptRepo)

		id := "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d"
		attemptRepo.On("FindByID", mock.Anything, id).Return(&model.ActionAttempt{
			ID:     id,
			UserID: "u-other",
		}, nil)

		router := handler.Routes()
		req := withUser(httptest.NewRequest(http.MethodGet, "/"+id, nil), user)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		attemptRepo.AssertExpectations(t)
	})
}

func TestActionHandler_CancelPending(t *testing.T) {
	user := &model.User{ID: "u-1", UserID: "alice"}

	attemptRepo := new(mockAttemptRepo)
	handler := newActionHandler(attemptRepo)
	attemptRepo.On("CancelPending", mock.Anything, "u-1").Return(int64(3), nil)

	req := withUser(httptest.NewRequest(http.MethodPost, "/cancel-pending", nil), user)
	rec := httptest.NewRecorder()

	handler.CancelPending(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp["cancelled"])
	attemptRepo.AssertExpectations(t)
}
