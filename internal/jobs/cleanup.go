package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pagepilot/action-server-go/internal/config"
	"github.com/pagepilot/action-server-go/internal/repository"
)

// CleanupJob periodically removes expired sessions and trims retained
// history down to the per-user limit.
type CleanupJob struct {
	fbSessionRepo   repository.FacebookSessionRepository
	userSessionRepo repository.UserSessionRepository
	attemptRepo     repository.AttemptRepository
	interval        time.Duration
	done            chan struct{}
}

func NewCleanupJob(
	fbSessionRepo repository.FacebookSessionRepository,
	userSessionRepo repository.UserSessionRepository,
	attemptRepo repository.AttemptRepository,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		fbSessionRepo:   fbSessionRepo,
		userSessionRepo: userSessionRepo,
		attemptRepo:     attemptRepo,
		interval:        interval,
		done:            make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "facebook sessions", j.fbSessionRepo.DeleteExpired)
	j.runCleanup(ctx, "user sessions", j.userSessionRepo.DeleteExpired)
	j.runCleanup(ctx, "action history", func(ctx context.Context) (int64, error) {
		return j.attemptRepo.TrimHistory(ctx, config.HistoryRetention)
	})
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
