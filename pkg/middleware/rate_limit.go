package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/mazmed/portal/pkg/redisconn"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/httpapi"
)

type RateLimitConfig struct {
	RequestsPerPeriod int
	Period            time.Duration
	Store             limiter.Store
	// Prefix separates counters of different limiters sharing one store.
	Prefix string
}

func NewMemoryStore() limiter.Store {
	return memory.NewStore()
}

func NewRedisStore(addr string) (limiter.Store, error) {
	client, err := redisconn.New(addr)
	if err != nil {
		return nil, err
	}
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "portal:ratelimit"})
}

// NewStoreFromConfig returns the configured limiter backend. A Redis store
// that cannot be built falls back to memory.
func NewStoreFromConfig(conf *configuration.Configuration, logger *logrus.Logger) limiter.Store {
	if conf.RateLimit.Storage != "redis" {
		return NewMemoryStore()
	}
	addr := conf.RateLimit.RedisURL
	if addr == "" {
		addr = conf.RedisURL
	}
	store, err := NewRedisStore(addr)
	if err != nil {
		if logger != nil {
			logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
		}
		return NewMemoryStore()
	}
	return store
}

// RateLimit limits requests per client IP. A zero RequestsPerPeriod disables it.
func RateLimit(cfg RateLimitConfig) mux.MiddlewareFunc {
	if cfg.RequestsPerPeriod <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Second
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	rate := limiter.Rate{Period: cfg.Period, Limit: int64(cfg.RequestsPerPeriod)}
	instance := limiter.New(cfg.Store, rate, limiter.WithTrustForwardHeader(false))

	return func(next http.Handler) http.Handler {
		mw := stdlib.NewMiddleware(instance,
			stdlib.WithKeyGetter(func(r *http.Request) string {
				return cfg.Prefix + ":" + instance.GetIPKey(r)
			}),
			stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
				_ = httpapi.Error(w, r, http.StatusTooManyRequests, httpapi.CodeRateLimited, "too many requests", nil)
			}),
		)
		return mw.Handler(next)
	}
}
