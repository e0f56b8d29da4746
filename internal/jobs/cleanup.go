package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courseloop/academy-server-go/internal/repository"
)

// CleanupJob sweeps expired magic link tokens and sessions. Consumed
// and expired tokens are kept only until the sweep; the authoritative
// single-use check is the conditional update at redemption time.
type CleanupJob struct {
	magicLinkRepo repository.MagicLinkRepository
	sessionRepo   repository.SessionRepository
	interval      time.Duration
	done          chan struct{}
}

func NewCleanupJob(
	magicLinkRepo repository.MagicLinkRepository,
	sessionRepo repository.SessionRepository,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		magicLinkRepo: magicLinkRepo,
		sessionRepo:   sessionRepo,
		interval:      interval,
		done:          make(chan struct{}),
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

	j.runCleanup(ctx, "magic link tokens", j.magicLinkRepo.DeleteExpired)
	j.runCleanup(ctx, "sessions", j.sessionRepo.DeleteExpired)
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
