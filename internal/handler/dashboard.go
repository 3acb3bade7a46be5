package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/pagepilot/action-server-go/internal/errors"
	"github.com/pagepilot/action-server-go/internal/middleware"
	"github.com/pagepilot/action-server-go/internal/model"
	"github.com/pagepilot/action-server-go/internal/service"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	statsService     *service.StatsService
}

func NewDashboardHandler(dashboardService *service.DashboardService, statsService *service.StatsService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		statsService:     statsService,
	}
}

func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/overview", h.Overview)
	r.Get("/analytics", h.Analytics)
	r.Get("/status", h.Status)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)
	r.Get("/export", h.Export)
	return r
}

func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	overview, err := h.dashboardService.Overview(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	result, err := h.statsService.Analytics(r.Context(), user.ID, r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *DashboardHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user.Role != model.RoleAdmin {
		writeError(w, apperrors.Forbidden("admin access required"))
		return
	}

	status, err := h.dashboardService.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *DashboardHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"autoCleanup":       user.AutoCleanup,
		"maxSessions":       user.MaxSessions,
		"notificationEmail": user.NotificationEmail,
	})
}

func (h *DashboardHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req model.UpdateSettingsParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidRequest("malformed JSON body"))
		return
	}

	updated, err := h.dashboardService.UpdateSettings(r.Context(), user, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    updated,
	})
}

func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	items, err := h.statsService.Export(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("action-history-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeJSON(w, http.StatusOK, map[string]any{
		"exportedAt": time.Now().Format(time.RFC3339),
		"total":      len(items),
		"history":    items,
	})
}
