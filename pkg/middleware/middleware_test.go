package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/constants"
	"github.com/mazmed/portal/pkg/routing"
)

func testConf() *configuration.Configuration {
	return &configuration.Configuration{
		GoAppEnvironment: "development",
		RequestIDHeader:  "X-Request-ID",
		RealIPHeader:     "X-Real-IP",
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRequestParams_DirectHost(t *testing.T) {
	var got *composables.Params
	h := RequestParams(testConf())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = composables.UseParams(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "tula.localhost:3200"
	req.Header.Set("X-Forwarded-Host", "evil.mazmed.com")
	req.Header.Set("X-Real-IP", "10.0.0.7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	require.Equal(t, "tula.localhost:3200", got.Host)
	require.Equal(t, "http://tula.localhost:3200", got.Origin)
	require.Equal(t, "10.0.0.7", got.IP)
}

func TestRequestParams_TrustedProxy(t *testing.T) {
	conf := testConf()
	conf.Tenancy.TrustProxy = true

	var got *composables.Params
	h := RequestParams(conf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = composables.UseParams(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "internal:8080"
	req.Header.Set("X-Forwarded-Host", "tula.mazmed.com, proxy.local")
	req.Header.Set("X-Forwarded-Proto", "https")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "tula.mazmed.com", got.Host)
	require.Equal(t, "https://tula.mazmed.com", got.Origin)
}

func TestProvide(t *testing.T) {
	var got any
	h := Provide(constants.AppKey, "app")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Context().Value(constants.AppKey)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "app", got)
}

func TestWithLogger_SetsRequestScope(t *testing.T) {
	opts := DefaultLoggerOptions()
	opts.Conf = testConf()

	var hasLogger, hasStart bool
	h := WithLogger(quietLogger(), opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasLogger = r.Context().Value(constants.LoggerKey).(*logrus.Entry)
		_, hasStart = composables.UseRequestStart(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
	require.True(t, hasLogger)
	require.True(t, hasStart)
}

func TestWithLogger_RecoversPanicAsJSONOnAPIRoutes(t *testing.T) {
	opts := DefaultLoggerOptions()
	opts.Conf = testConf()
	h := WithLogger(quietLogger(), opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portal/api/session", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestFormatFormValues_Redacts(t *testing.T) {
	out := formatFormValues(map[string][]string{
		"code":        {"abc"},
		"displayName": {"Tula"},
	})
	require.Equal(t, "[redacted]", out["code"])
	require.Equal(t, "Tula", out["displayName"])
}

func TestOpsGuard(t *testing.T) {
	conf := testConf()
	conf.GoAppEnvironment = configuration.Production
	conf.OpsGuard = configuration.OpsGuardOptions{
		Enabled: true,
		CIDRs:         "10.0.0.0/8",
		Token:         "secret",
		BasicAuthUser: "ops",
		BasicAuthPass: "pw",
	}
	h := OpsGuard(conf, routing.DefaultClassifier())(okHandler())

	cases := []struct {
		name   string
		path   string
		setup  func(r *http.Request)
		status int
	}{
		{name: "ui passes", path: "/dashboard", status: http.StatusOK},
		{name: "ops hidden", path: "/health", status: http.StatusNotFound},
		{name: "ops token", path: "/health", setup: func(r *http.Request) { r.Header.Set("X-Ops-Token", "secret") }, status: http.StatusOK},
		{name: "ops bearer", path: "/debug/prometheus", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret") }, status: http.StatusOK},
		{name: "ops cidr", path: "/healthz", setup: func(r *http.Request) { r.Header.Set("X-Real-IP", "10.1.2.3") }, status: http.StatusOK},
		{name: "ops wrong token", path: "/health", setup: func(r *http.Request) { r.Header.Set("X-Ops-Token", "nope") }, status: http.StatusNotFound},
		{name: "ops basic auth", path: "/health", setup: func(r *http.Request) { r.SetBasicAuth("ops", "pw") }, status: http.StatusOK},
		{name: "ops wrong basic auth", path: "/health", setup: func(r *http.Request) { r.SetBasicAuth("ops", "nope") }, status: http.StatusNotFound},
		{name: "static passes", path: "/static/portal.css", status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.RemoteAddr = "203.0.113.9:5555"
			if tc.setup != nil {
				tc.setup(req)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestOpsGuard_DisabledOutsideProduction(t *testing.T) {
	conf := testConf()
	conf.OpsGuard.Enabled = true
	h := OpsGuard(conf, routing.DefaultClassifier())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		RequestsPerPeriod: 2,
		Period:            time.Minute,
		Store:             NewMemoryStore(),
		Prefix:            "test",
	})(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Contains(t, rec.Body.String(), "RATE_LIMITED")

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "198.51.100.4:1000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_ZeroDisables(t *testing.T) {
	h := RateLimit(RateLimitConfig{})(okHandler())
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCors(t *testing.T) {
	h := Cors("https://tula.mazmed.com")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/portal/api/session", nil)
	req.Header.Set("Origin", "https://tula.mazmed.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "https://tula.mazmed.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/portal/api/session", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewStoreFromConfig(t *testing.T) {
	conf := testConf()
	conf.RateLimit.Storage = "memory"
	require.NotNil(t, NewStoreFromConfig(conf, quietLogger()))

	mr := miniredis.RunT(t)
	conf.RateLimit.Storage = "redis"
	conf.RateLimit.RedisURL = mr.Addr()
	store := NewStoreFromConfig(conf, quietLogger())
	require.NotNil(t, store)

	h := RateLimit(RateLimitConfig{RequestsPerPeriod: 1, Period: time.Minute, Store: store, Prefix: "redis"})(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
