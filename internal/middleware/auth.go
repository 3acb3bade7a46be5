package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/pagepilot/action-server-go/internal/config"
	apperrors "github.com/pagepilot/action-server-go/internal/errors"
	"github.com/pagepilot/action-server-go/internal/model"
	"github.com/pagepilot/action-server-go/internal/service"
)

const SessionCookie = "session_token"

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// SessionMiddleware resolves the session cookie to a user and rejects
// requests without a valid session.
type SessionMiddleware struct {
	authService *service.AuthService
}

func NewSessionMiddleware(authService *service.AuthService) *SessionMiddleware {
	return &SessionMiddleware{authService: authService}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		user, err := m.authService.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			status := http.StatusUnauthorized
			message := "Unauthorized"
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeForbidden {
				status = http.StatusForbidden
				message = appErr.Message
			}
			writeJSON(w, status, map[string]string{"error": message})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(config.UserSessionTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
