package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/askboard/askboard-server/internal/api"
	"github.com/askboard/askboard-server/internal/logger"
	"github.com/askboard/askboard-server/internal/service"
)

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	cleanup := func(initial bool) {
		count, err := sessions.DeleteExpiredSessions(ctx)
		switch {
		case err != nil:
			log.Warn("Session cleanup failed", "initial", initial, "error", err)
		case count > 0:
			log.Info("Session cleanup completed", "initial", initial, "deleted", count)
		}
	}

	go func() {
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()

		cleanup(true)

		for {
			select {
			case <-ticker.C:
				cleanup(false)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started")

	return &SessionCleanupJob{cancel: cancel}, nil
}

// RateLimiters holds the per-IP limiters for auth routes and writes.
type RateLimiters struct {
	Auth  *api.RateLimiter
	Write *api.RateLimiter
}

// Shutdown implements do.Shutdownable.
func (r *RateLimiters) Shutdown() error {
	r.Auth.Stop()
	r.Write.Stop()
	return nil
}

// ProvideRateLimiters provides the API rate limiters.
// Auth: 20 per minute with a burst of 10. Writes: 60 per minute with a burst of 20.
func ProvideRateLimiters(i do.Injector) (*RateLimiters, error) {
	return &RateLimiters{
		Auth:  api.NewRateLimiter(20, time.Minute, 10),
		Write: api.NewRateLimiter(60, time.Minute, 20),
	}, nil
}
