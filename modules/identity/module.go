package identity

import (
	"github.com/mazmed/portal/modules/identity/domain/session"
	"github.com/mazmed/portal/modules/identity/infrastructure/oidc"
	"github.com/mazmed/portal/modules/identity/infrastructure/persistence"
	"github.com/mazmed/portal/modules/identity/presentation/controllers"
	"github.com/mazmed/portal/modules/identity/services"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/middleware"
	"github.com/mazmed/portal/pkg/redisconn"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()

	store, err := newSessionStore(conf)
	if err != nil {
		return err
	}
	provider := oidc.NewProvider(conf.OIDC, app.HTTPClient())

	app.RegisterServices(
		store,
		services.NewAuthService(provider, store, services.AuthOptions{
			SessionDuration: conf.Session.Duration,
			TokenSkew:       conf.OIDC.TokenSkew,
			TokenKind:       conf.API.TokenKind,
		}),
	)

	opts := controllers.AuthControllerOptions{Conf: conf}
	if conf.RateLimit.Enabled {
		opts.RateLimitStore = middleware.NewStoreFromConfig(conf, conf.Logger())
	}
	app.RegisterControllers(controllers.NewAuthController(app, opts))
	return nil
}

func (m *Module) Name() string {
	return "identity"
}

func newSessionStore(conf *configuration.Configuration) (session.Store, error) {
	if conf.Session.Store != "redis" {
		return persistence.NewMemorySessionStore(), nil
	}
	client, err := redisconn.New(conf.RedisURL)
	if err != nil {
		return nil, err
	}
	return persistence.NewRedisSessionStore(client, conf.Session.Prefix), nil
}
