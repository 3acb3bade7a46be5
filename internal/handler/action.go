package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pagepilot/action-server-go/internal/audit"
	"github.com/pagepilot/action-server-go/internal/automation"
	apperrors "github.com/pagepilot/action-server-go/internal/errors"
	"github.com/pagepilot/action-server-go/internal/middleware"
	"github.com/pagepilot/action-server-go/internal/model"
	"github.com/pagepilot/action-server-go/internal/service"
	"github.com/pagepilot/action-server-go/internal/util"
)

// ActionHandler exposes the dispatch workflow and its history.
type ActionHandler struct {
	dispatcher   *service.DispatcherService
	statsService *service.StatsService
}

func NewActionHandler(dispatcher *service.DispatcherService, statsService *service.StatsService) *ActionHandler {
	return &ActionHandler{
		dispatcher:   dispatcher,
		statsService: statsService,
	}
}

// Routes wires everything except Perform, which the caller mounts with a
// longer timeout budget.
func (h *ActionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/validate-url", h.ValidateURL)
	r.Get("/history", h.History)
	r.Get("/stats", h.Stats)
	r.Post("/cancel-pending", h.CancelPending)
	r.Get("/{actionId}", h.Get)
	return r
}

func (h *ActionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	actionID := chi.URLParam(r, "actionId")
	if !util.IsValidUUID(actionID) {
		writeError(w, apperrors.InvalidInput("actionId", "must be a UUID"))
		return
	}

	attempt, err := h.statsService.Attempt(r.Context(), user.ID, actionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *ActionHandler) Perform(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req struct {
		ActionType    string   `json:"actionType"`
		TargetURL     string   `json:"targetUrl"`
		Comment       *string  `json:"comment"`
		SelectedFBIDs []string `json:"selectedSessions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidRequest("malformed JSON body"))
		return
	}

	result, err := h.dispatcher.Perform(r.Context(), user, service.PerformActionParams{
		Kind:          model.ActionKind(req.ActionType),
		TargetURL:     req.TargetURL,
		Comment:       req.Comment,
		SelectedFBIDs: req.SelectedFBIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventActionDispatch,
		UserID: user.UserID,
		Details: map[string]interface{}{
			"actionType": req.ActionType,
			"attempted":  result.Summary.Attempted,
			"successful": result.Summary.Successful,
			"failed":     result.Summary.Failed,
		},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       result.Summary.Successful > 0,
		"message":       result.Message,
		"targetId":      result.TargetID,
		"totalSessions": result.Summary.Attempted,
		"successCount":  result.Summary.Successful,
		"failCount":     result.Summary.Failed,
		"results":       result.Attempts,
	})
}

func (h *ActionHandler) ValidateURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidRequest("malformed JSON body"))
		return
	}

	valid := automation.IsTargetURL(req.URL)
	resp := map[string]any{"valid": valid}
	if valid {
		resp["targetId"] = automation.ExtractTargetID(req.URL)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ActionHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	page := ParsePage(r)

	filter := model.AttemptFilter{UserID: user.ID}
	if kind := r.URL.Query().Get("actionType"); kind != "" {
		filter.Kind = model.ActionKind(kind)
		if !filter.Kind.Valid() {
			writeError(w, apperrors.InvalidInput("actionType", "unknown action type"))
			return
		}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = model.AttemptStatus(status)
		if !filter.Status.Valid() {
			writeError(w, apperrors.InvalidInput("status", "unknown status"))
			return
		}
	}

	result, err := h.statsService.History(r.Context(), filter, page.Page, page.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ActionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	result, err := h.statsService.Stats(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ActionHandler) CancelPending(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	cancelled, err := h.statsService.CancelPending(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	if cancelled > 0 {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventPendingCancel,
			UserID:  user.UserID,
			Details: map[string]interface{}{"cancelled": cancelled},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"cancelled": cancelled,
	})
}
