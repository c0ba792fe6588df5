package providers

import (
	"github.com/samber/do/v2"

	"github.com/askboard/askboard-server/internal/auth"
	"github.com/askboard/askboard-server/internal/config"
	"github.com/askboard/askboard-server/internal/logger"
	"github.com/askboard/askboard-server/internal/service"
	"github.com/askboard/askboard-server/internal/sse"
	"github.com/askboard/askboard-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, v, log.Logger), nil
}

// ProvideActivityService provides the activity log service.
func ProvideActivityService(i do.Injector) (*service.ActivityService, error) {
	db := do.MustInvoke[*ActivityDBHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewActivityService(db.Store, log.Logger), nil
}

func feedOptions(cfg *config.Config) service.FeedOptions {
	return service.FeedOptions{
		FeedPageSize:   cfg.Forum.FeedPageSize,
		AnswerPageSize: cfg.Forum.AnswerPageSize,
		MaxPageSize:    cfg.Forum.MaxPageSize,
		FetchTimeout:   cfg.Forum.FetchTimeout,
	}
}

// ProvideQuestionService provides the question service. Its feed snapshot
// is invalidated by every store change.
func ProvideQuestionService(i do.Injector) (*service.QuestionService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	activity := do.MustInvoke[*service.ActivityService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewQuestionService(storeHandle.Store, activity, v, feedOptions(cfg), log.Logger)
	storeHandle.OnChange(func(sse.Event) { svc.Invalidate() })

	return svc, nil
}

// ProvideAnswerService provides the answer service.
func ProvideAnswerService(i do.Injector) (*service.AnswerService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	activity := do.MustInvoke[*service.ActivityService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAnswerService(
		storeHandle.Store,
		activity,
		feedOptions(cfg),
		cfg.Forum.AllowAnonymousAnswers,
		log.Logger,
	), nil
}

// ProvideVoteService provides the vote service.
func ProvideVoteService(i do.Injector) (*service.VoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	activity := do.MustInvoke[*service.ActivityService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVoteService(storeHandle.Store, activity, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}
