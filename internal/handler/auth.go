package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pagepilot/action-server-go/internal/audit"
	apperrors "github.com/pagepilot/action-server-go/internal/errors"
	"github.com/pagepilot/action-server-go/internal/middleware"
	"github.com/pagepilot/action-server-go/internal/service"
)

type AuthHandler struct {
	authService  *service.AuthService
	isProduction bool
}

func NewAuthHandler(authService *service.AuthService, isProduction bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		isProduction: isProduction,
	}
}

func (h *AuthHandler) PublicRoutes(loginLimiter *middleware.LoginRateLimiter) chi.Router {
	r := chi.NewRouter()
	r.With(loginLimiter.Handler).Post("/login", h.Login)
	return r
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
	return r
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidRequest("malformed JSON body"))
		return
	}

	user, token, err := h.authService.Login(r.Context(), service.LoginParams{
		UserID:   req.UserID,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLoginFailure,
			Details: map[string]interface{}{"userId": req.UserID},
		})
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginSuccess, UserID: user.UserID})
	middleware.SetSessionCookie(w, token, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err == nil && cookie.Value != "" {
		h.authService.Logout(r.Context(), cookie.Value)
	}

	if user := middleware.GetUser(r.Context()); user != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout, UserID: user.UserID})
	}
	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
