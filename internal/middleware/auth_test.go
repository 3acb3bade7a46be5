package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagepilot/action-server-go/internal/model"
	"github.com/pagepilot/action-server-go/internal/service"
	"github.com/pagepilot/action-server-go/internal/util"
)

type mockUserRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByUserID(ctx context.Context, userID string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByUserIDOrEmail(ctx context.Context, userID, email string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) RecordLogin(ctx context.Context, id string) error {
	return nil
}

func (m *mockUserRepo) UpdateSettings(ctx context.Context, id string, params model.UpdateSettingsParams) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) IncrementActionStats(ctx context.Context, id string, success bool) error {
	return nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *mockUserRepo) CountActive(ctx context.Context) (int, error) {
	return 0, nil
}

type mockUserSessionRepo struct {
	findByTokenHashFunc func(ctx context.Context, tokenHash string) (*model.UserSession, error)
}

func (m *mockUserSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.UserSession, error) {
	if m.findByTokenHashFunc != nil {
		return m.findByTokenHashFunc(ctx, tokenHash)
	}
	return nil, nil
}

func (m *mockUserSessionRepo) Create(ctx context.Context, params model.CreateUserSessionParams) (*model.UserSession, error) {
	return nil, nil
}

func (m *mockUserSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return nil
}

func (m *mockUserSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

const testSecret = "middleware-test-secret"

func okHandler(sawUser **model.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*sawUser = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionMiddleware(t *testing.T) {
	t.Run("rejects request without cookie", func(t *testing.T) {
		authService := service.NewAuthService(&mockUserRepo{}, &mockUserSessionRepo{}, testSecret)
		mw := NewSessionMiddleware(authService)

		var sawUser *model.User
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/overview", nil)
		rec := httptest.NewRecorder()

		mw.Handler(okHandler(&sawUser)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, sawUser)
	})

	t.Run("rejects unknown token", func(t *testing.T) {
		authService := service.NewAuthService(&mockUserRepo{}, &mockUserSessionRepo{}, testSecret)
		mw := NewSessionMiddleware(authService)

		var sawUser *model.User
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/overview", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale-token"})
		rec := httptest.NewRecorder()

		mw.Handler(okHandler(&sawUser)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("resolves valid token to user", func(t *testing.T) {
		token, err := util.GenerateToken()
		require.NoError(t, err)
		tokenHash := util.HmacSHA256(testSecret, token)

		userSessionRepo := &mockUserSessionRepo{
			findByTokenHashFunc: func(ctx context.Context, hash string) (*model.UserSession, error) {
				if hash != tokenHash {
					return nil, nil
				}
				return &model.UserSession{
					ID:        "us-1",
					UserID:    "u-1",
					ExpiresAt: time.Now().Add(time.Hour),
				}, nil
			},
		}
		userRepo := &mockUserRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
				return &model.User{ID: "u-1", UserID: "alice", IsActive: true}, nil
			},
		}
		authService := service.NewAuthService(userRepo, userSessionRepo, testSecret)
		mw := NewSessionMiddleware(authService)

		var sawUser *model.User
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/overview", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		rec := httptest.NewRecorder()

		mw.Handler(okHandler(&sawUser)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, sawUser)
		assert.Equal(t, "alice", sawUser.UserID)
	})

	t.Run("disabled account gets 403", func(t *testing.T) {
		token, err := util.GenerateToken()
		require.NoError(t, err)

		userSessionRepo := &mockUserSessionRepo{
			findByTokenHashFunc: func(ctx context.Context, hash string) (*model.UserSession, error) {
				return &model.UserSession{ID: "us-1", UserID: "u-1"}, nil
			},
		}
		userRepo := &mockUserRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
				return &model.User{ID: "u-1", UserID: "alice", IsActive: false}, nil
			},
		}
		authService := service.NewAuthService(userRepo, userSessionRepo, testSecret)
		mw := NewSessionMiddleware(authService)

		var sawUser *model.User
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/overview", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		rec := httptest.NewRecorder()

		mw.Handler(okHandler(&sawUser)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestGetUser(t *testing.T) {
	t.Run("returns nil when no user in context", func(t *testing.T) {
		assert.Nil(t, GetUser(context.Background()))
	})

	t.Run("returns user from context", func(t *testing.T) {
		user := &model.User{ID: "u-1"}
		ctx := context.WithValue(context.Background(), UserContextKey, user)
		assert.Equal(t, user, GetUser(ctx))
	})
}
