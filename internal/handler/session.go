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

// SessionHandler manages the stored Facebook sessions of the logged-in
// account.
type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/cookies", h.AddFromCookies)
	r.Post("/credentials", h.AddFromCredentials)
	r.Get("/sessions", h.List)
	r.Delete("/sessions/{fbId}", h.Remove)
	return r
}

func (h *SessionHandler) AddFromCookies(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req struct {
		Cookies   string `json:"cookies"`
		UserAgent string `json:"userAgent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidRequest("malformed JSON body"))
		return
	}

	view, err := h.sessionService.AddFromCookies(r.Context(), user, req.Cookies, req.UserAgent)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventFBSessionAdd,
		UserID:  user.UserID,
		Details: map[string]interface{}{"fbId": view.FBID, "method": "cookies"},
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": view,
	})
}

func (h *SessionHandler) AddFromCredentials(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidRequest("malformed JSON body"))
		return
	}

	view, err := h.sessionService.AddFromCredentials(r.Context(), user, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventFBSessionAdd,
		UserID:  user.UserID,
		Details: map[string]interface{}{"fbId": view.FBID, "method": "credentials"},
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": view,
	})
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	views, err := h.sessionService.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": views,
		"total":    len(views),
	})
}

func (h *SessionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	fbID := chi.URLParam(r, "fbId")

	if err := h.sessionService.Remove(r.Context(), user.ID, fbID); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventFBSessionRemove,
		UserID: user.UserID,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
