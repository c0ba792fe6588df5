package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/askboard/askboard-server/internal/api"
	"github.com/askboard/askboard-server/internal/config"
	"github.com/askboard/askboard-server/internal/logger"
	"github.com/askboard/askboard-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	activityDB := do.MustInvoke[*ActivityDBHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	limiters := do.MustInvoke[*RateLimiters](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:      do.MustInvoke[*service.AuthService](i),
		Sessions:  do.MustInvoke[*service.SessionService](i),
		Questions: do.MustInvoke[*service.QuestionService](i),
		Answers:   do.MustInvoke[*service.AnswerService](i),
		Votes:     do.MustInvoke[*service.VoteService](i),
		Tags:      do.MustInvoke[*service.TagService](i),
		Search:    do.MustInvoke[*service.SearchService](i),
		Activity:  do.MustInvoke[*service.ActivityService](i),
	}

	handler := api.NewServer(storeHandle.Store, activityDB.Store, services, sseHandle.Manager, api.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AuthRateLimiter:  limiters.Auth,
		WriteRateLimiter: limiters.Write,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
