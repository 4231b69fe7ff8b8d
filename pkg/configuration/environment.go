package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mazmed/portal/pkg/logging"
)

const Production = "production"

const (
	TokenKindID     = "id_token"
	TokenKindAccess = "access_token"
)

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist, looking in the working directory
// first and then in the nearest directory containing go.mod.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fileExists(file) {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		if wd, err := os.Getwd(); err == nil {
			if root, ok := findGoModRoot(wd); ok {
				for _, file := range envFiles {
					abs := filepath.Join(root, file)
					if fileExists(abs) {
						existing = append(existing, abs)
					}
				}
			}
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

type APIOptions struct {
	BaseURL   string        `env:"API_URL" envDefault:"http://localhost:7071"`
	Timeout   time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	TokenKind string        `env:"API_TOKEN_KIND" envDefault:"id_token"`
}

func (a *APIOptions) Validate() error {
	if strings.TrimSpace(a.BaseURL) == "" {
		return fmt.Errorf("API_URL is required")
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", a.Timeout)
	}
	switch a.TokenKind {
	case TokenKindID, TokenKindAccess:
	default:
		return fmt.Errorf("invalid API_TOKEN_KIND=%q (expected %s|%s)", a.TokenKind, TokenKindID, TokenKindAccess)
	}
	return nil
}

// OIDCOptions configures the identity provider. Endpoint overrides are
// derived from Authority when left empty.
type OIDCOptions struct {
	ClientID     string        `env:"OIDC_CLIENT_ID"`
	ClientSecret string        `env:"OIDC_CLIENT_SECRET"`
	Authority    string        `env:"OIDC_AUTHORITY"`
	AuthorizeURL string        `env:"OIDC_AUTHORIZE_URL"`
	TokenURL     string        `env:"OIDC_TOKEN_URL"`
	LogoutURL    string        `env:"OIDC_LOGOUT_URL"`
	Issuer       string        `env:"OIDC_ISSUER"`
	Scopes       []string      `env:"OIDC_SCOPES" envSeparator:"," envDefault:"openid,profile,offline_access"`
	TokenSkew    time.Duration `env:"OIDC_TOKEN_SKEW" envDefault:"5m"`
	CallbackPath string        `env:"OIDC_CALLBACK_PATH" envDefault:"/auth/callback"`
}

func (o *OIDCOptions) Validate() error {
	if o.ClientID == "" {
		return nil
	}
	if o.Authority == "" && (o.AuthorizeURL == "" || o.TokenURL == "") {
		return fmt.Errorf("OIDC_AUTHORITY or both OIDC_AUTHORIZE_URL and OIDC_TOKEN_URL are required")
	}
	if o.TokenSkew < 0 {
		return fmt.Errorf("OIDC_TOKEN_SKEW must be non-negative, got %s", o.TokenSkew)
	}
	return nil
}

func (o *OIDCOptions) Endpoints() (authorize, token, logout string) {
	base := strings.TrimRight(o.Authority, "/")
	authorize, token, logout = o.AuthorizeURL, o.TokenURL, o.LogoutURL
	if authorize == "" {
		authorize = base + "/oauth2/v2.0/authorize"
	}
	if token == "" {
		token = base + "/oauth2/v2.0/token"
	}
	if logout == "" {
		logout = base + "/oauth2/v2.0/logout"
	}
	return authorize, token, logout
}

type TenancyOptions struct {
	LoopbackMarker string `env:"LOOPBACK_MARKER" envDefault:"localhost"`
	// Honour X-Forwarded-Host only when deployed behind a trusted proxy.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`
}

type SessionOptions struct {
	Store    string        `env:"SESSION_STORE" envDefault:"memory"` // memory or redis
	Duration time.Duration `env:"SESSION_DURATION" envDefault:"12h"`
	Prefix   string        `env:"SESSION_REDIS_PREFIX" envDefault:"portal:session:"`
}

func (s *SessionOptions) Validate(redisURL string) error {
	if s.Store != "memory" && s.Store != "redis" {
		return fmt.Errorf("session Store must be 'memory' or 'redis', got '%s'", s.Store)
	}
	if s.Store == "redis" && redisURL == "" {
		return fmt.Errorf("REDIS_URL is required when SESSION_STORE is 'redis'")
	}
	if s.Duration <= 0 {
		return fmt.Errorf("SESSION_DURATION must be positive, got %s", s.Duration)
	}
	return nil
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"mazmed-portal"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"1000"`
	AuthnRPM  int    `env:"RATE_LIMIT_AUTHN_RPM" envDefault:"60"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL  string `env:"RATE_LIMIT_REDIS_URL"`
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.GlobalRPS > 1000000 {
		return fmt.Errorf("rate limit GlobalRPS too high, maximum is 1,000,000, got %d", r.GlobalRPS)
	}
	if r.AuthnRPM < 0 {
		return fmt.Errorf("rate limit AuthnRPM must be non-negative, got %d", r.AuthnRPM)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return fmt.Errorf("rate limit RedisURL is required when Storage is 'redis'")
	}
	return nil
}

type OpsGuardOptions struct {
	Enabled       bool   `env:"OPS_GUARD_ENABLED" envDefault:"true"`
	CIDRs         string `env:"OPS_GUARD_CIDRS" envDefault:""`
	Token         string `env:"OPS_GUARD_TOKEN" envDefault:""`
	BasicAuthUser string `env:"OPS_GUARD_BASIC_AUTH_USER" envDefault:""`
	BasicAuthPass string `env:"OPS_GUARD_BASIC_AUTH_PASS" envDefault:""`
}

type Configuration struct {
	API           APIOptions
	OIDC          OIDCOptions
	Tenancy       TenancyOptions
	Session       SessionOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions
	OpsGuard      OpsGuardOptions

	RedisURL           string   `env:"REDIS_URL" envDefault:"localhost:6379"`
	ServerPort         int      `env:"PORT" envDefault:"3200"`
	GoAppEnvironment   string   `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress      string   `env:"-"`
	CorsAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"error"`
	LogPath            string   `env:"LOG_PATH" envDefault:"./logs/portal.log"`
	// Header checked for an inbound request id before generating a uuidv4.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// Header checked for the client address before falling back to RemoteAddr.
	RealIPHeader        string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`
	SidCookieKey        string `env:"SID_COOKIE_KEY" envDefault:"portal_sid"`
	OauthStateCookieKey string `env:"OAUTH_STATE_COOKIE_KEY" envDefault:"portal_oauth_state"`
	FlashCookieKey      string `env:"FLASH_COOKIE_KEY" envDefault:"portal_flash"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) Scheme() string {
	if c.GoAppEnvironment == Production { // assume 'https' on production mode
		return "https"
	}
	return "http"
}

// SecureCookies reports whether portal cookies carry the Secure attribute.
func (c *Configuration) SecureCookies() bool {
	return c.GoAppEnvironment == Production
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

// Validate runs every option group check and normalizes tenancy settings.
func (c *Configuration) Validate() error {
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api configuration error: %w", err)
	}
	if err := c.OIDC.Validate(); err != nil {
		return fmt.Errorf("oidc configuration error: %w", err)
	}
	if err := c.Session.Validate(c.RedisURL); err != nil {
		return fmt.Errorf("session configuration error: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}
	c.Tenancy.LoopbackMarker = strings.ToLower(strings.TrimSpace(c.Tenancy.LoopbackMarker))
	if c.Tenancy.LoopbackMarker == "" {
		c.Tenancy.LoopbackMarker = "localhost"
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func findGoModRoot(start string) (string, bool) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
