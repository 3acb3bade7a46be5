package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pagepilot/action-server-go/internal/automation"
	"github.com/pagepilot/action-server-go/internal/config"
	apperrors "github.com/pagepilot/action-server-go/internal/errors"
	"github.com/pagepilot/action-server-go/internal/metrics"
	"github.com/pagepilot/action-server-go/internal/model"
	"github.com/pagepilot/action-server-go/internal/repository"
	"github.com/pagepilot/action-server-go/internal/util"
)

// Executor runs one action through a browser automation worker.
// *automation.Client is the production implementation.
type Executor interface {
	Execute(ctx context.Context, params automation.ExecuteParams) (*automation.ExecuteResult, error)
}

type PerformActionParams struct {
	Kind      model.ActionKind
	TargetURL string
	Comment   *string
	// SelectedFBIDs restricts the dispatch to the named accounts.
	// Empty means every eligible session.
	SelectedFBIDs []string
}

// DispatchResult is the outcome of one dispatch across sessions.
type DispatchResult struct {
	Summary  Summary               `json:"summary"`
	Message  string                `json:"message"`
	TargetID string                `json:"targetId"`
	Attempts []model.ActionAttempt `json:"results"`
}

// DispatcherService walks the user's eligible sessions in order and
// replays the requested action through each, one at a time.
type DispatcherService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.FacebookSessionRepository
	attemptRepo repository.AttemptRepository
	executor    Executor
	cipher      *util.Cipher
	pacer       Pacer
	collector   *metrics.Collector
}

func NewDispatcherService(
	userRepo repository.UserRepository,
	sessionRepo repository.FacebookSessionRepository,
	attemptRepo repository.AttemptRepository,
	executor Executor,
	cipher *util.Cipher,
	pacer Pacer,
	collector *metrics.Collector,
) *DispatcherService {
	return &DispatcherService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		attemptRepo: attemptRepo,
		executor:    executor,
		cipher:      cipher,
		pacer:       pacer,
		collector:   collector,
	}
}

// Perform validates the request, selects eligible sessions and attempts
// the action through each in sequence. Validation failures happen before
// any attempt is recorded; after the first attempt the dispatch always
// returns a result whose counts add up to the number of attempts made.
func (s *DispatcherService) Perform(ctx context.Context, user *model.User, params PerformActionParams) (*DispatchResult, error) {
	if err := s.validate(params); err != nil {
		return nil, err
	}

	sessions, err := s.sessionRepo.ListEligible(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	sessions = filterSelected(sessions, params.SelectedFBIDs)
	if len(sessions) == 0 {
		return nil, apperrors.NoEligibleSession()
	}

	targetID := automation.ExtractTargetID(params.TargetURL)

	log.Info().
		Str("userId", user.UserID).
		Str("actionType", string(params.Kind)).
		Str("targetId", targetID).
		Int("sessions", len(sessions)).
		Msg("dispatch started")

	attempts := make([]model.ActionAttempt, 0, len(sessions))
	for i := range sessions {
		attempt, err := s.attemptSession(ctx, user, &sessions[i], params, targetID)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *attempt)

		if i < len(sessions)-1 {
			if err := s.pacer.Wait(ctx); err != nil {
				log.Warn().
					Str("userId", user.UserID).
					Int("attempted", len(attempts)).
					Msg("dispatch interrupted during pacing")
				break
			}
		}
	}

	summary := Summarize(attempts)
	log.Info().
		Str("userId", user.UserID).
		Str("actionType", string(params.Kind)).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("dispatch finished")

	return &DispatchResult{
		Summary:  summary,
		Message:  summary.String(),
		TargetID: targetID,
		Attempts: attempts,
	}, nil
}

func (s *DispatcherService) validate(params PerformActionParams) error {
	if !params.Kind.Valid() {
		return apperrors.InvalidRequest(fmt.Sprintf("unsupported action type %q", params.Kind))
	}
	if !automation.IsTargetURL(params.TargetURL) {
		return apperrors.InvalidRequest("targetUrl must be a facebook.com or fb.com URL")
	}
	if params.Kind == model.ActionComment {
		if params.Comment == nil || strings.TrimSpace(*params.Comment) == "" {
			return apperrors.InvalidRequest("comment text is required for comment actions")
		}
		if len(*params.Comment) > config.CommentMaxLength {
			return apperrors.InvalidRequest(fmt.Sprintf("comment exceeds %d characters", config.CommentMaxLength))
		}
	}
	return nil
}

// attemptSession records a pending attempt, runs the executor and settles
// the attempt to success or failed. A worker panic or transport error is
// a failed attempt, never a lost record.
func (s *DispatcherService) attemptSession(
	ctx context.Context,
	user *model.User,
	session *model.FacebookSession,
	params PerformActionParams,
	targetID string,
) (*model.ActionAttempt, error) {
	if err := s.sessionRepo.TouchLastUsed(ctx, session.ID); err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("failed to touch session")
	}

	var comment *string
	if params.Kind == model.ActionComment {
		comment = params.Comment
	}

	attempt, err := s.attemptRepo.Create(ctx, model.CreateAttemptParams{
		UserID:     user.ID,
		SessionID:  session.ID,
		FBID:       session.FBID,
		MaskedFBID: util.MaskFBID(session.FBID),
		ActionKind: params.Kind,
		TargetURL:  params.TargetURL,
		TargetID:   targetID,
		Comment:    comment,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	result, execErr := s.execute(ctx, session, params)
	elapsed := result.ExecutionTimeMs

	if execErr == nil && result.Success {
		message := result.Message
		if message == "" {
			message = "ok"
		}
		if err := s.attemptRepo.MarkSuccess(ctx, attempt.ID, message, elapsed); err != nil {
			log.Error().Err(err).Str("attemptId", attempt.ID).Msg("failed to mark attempt success")
		}
		attempt.Status = model.AttemptSuccess
		attempt.ResultMessage = &message
		attempt.ExecutionMs = &elapsed
	} else {
		reason := result.Error
		if execErr != nil {
			reason = execErr.Error()
		}
		if reason == "" {
			reason = "action failed"
		}
		if err := s.attemptRepo.MarkFailed(ctx, attempt.ID, reason, elapsed); err != nil {
			log.Error().Err(err).Str("attemptId", attempt.ID).Msg("failed to mark attempt failed")
		}
		attempt.Status = model.AttemptFailed
		attempt.ErrorMessage = &reason
		attempt.ExecutionMs = &elapsed

		if isCredentialError(reason) {
			deactivated, err := s.sessionRepo.Deactivate(ctx, session.ID)
			if err != nil {
				log.Error().Err(err).Str("sessionId", session.ID).Msg("failed to deactivate session")
			} else if deactivated {
				log.Warn().
					Str("sessionId", session.ID).
					Str("fbId", util.MaskFBID(session.FBID)).
					Msg("session deactivated after credential failure")
			}
		}
	}

	success := attempt.Status == model.AttemptSuccess
	if err := s.userRepo.IncrementActionStats(ctx, user.ID, success); err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("failed to increment action stats")
	}
	s.collector.ObserveAttempt(params.Kind, attempt.Status)
	s.collector.ObserveAttemptDuration(params.Kind, time.Duration(elapsed)*time.Millisecond)

	return attempt, nil
}

// execute calls the worker with panic containment. The returned result is
// never nil.
func (s *DispatcherService) execute(
	ctx context.Context,
	session *model.FacebookSession,
	params PerformActionParams,
) (result *automation.ExecuteResult, err error) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("sessionId", session.ID).Msg("executor panicked")
			err = fmt.Errorf("executor panic: %v", r)
		}
		if result == nil {
			result = &automation.ExecuteResult{ExecutionTimeMs: time.Since(started).Milliseconds()}
		}
	}()

	cookies, err := s.cipher.Decrypt(session.Cookies)
	if err != nil {
		return nil, fmt.Errorf("decrypt session cookies: %w", err)
	}

	var comment string
	if params.Comment != nil {
		comment = *params.Comment
	}
	result, err = s.executor.Execute(ctx, automation.ExecuteParams{
		Cookies:   cookies,
		UserAgent: session.UserAgent,
		Kind:      params.Kind,
		TargetURL: params.TargetURL,
		Comment:   comment,
	})
	if err != nil {
		return nil, err
	}
	if result.ExecutionTimeMs == 0 {
		result.ExecutionTimeMs = time.Since(started).Milliseconds()
	}
	return result, nil
}

// isCredentialError recognizes worker failure messages that mean the
// stored cookies no longer authenticate.
func isCredentialError(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "session expired") || strings.Contains(lower, "invalid")
}

func filterSelected(sessions []model.FacebookSession, fbIDs []string) []model.FacebookSession {
	if len(fbIDs) == 0 {
		return sessions
	}
	selected := make(map[string]bool, len(fbIDs))
	for _, id := range fbIDs {
		selected[id] = true
	}
	filtered := sessions[:0]
	for _, s := range sessions {
		if selected[s.FBID] {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
