package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/routing"
)

// opsCheck grants access to an ops route when it returns true.
type opsCheck func(r *http.Request) bool

// OpsGuard hides health and metrics routes in production. A caller passes
// when any configured check matches: source CIDR, ops token or basic auth.
// Everyone else gets a plain 404 so the routes are not advertised.
func OpsGuard(conf *configuration.Configuration, classifier *routing.Classifier) mux.MiddlewareFunc {
	if conf == nil {
		conf = configuration.Use()
	}
	if classifier == nil {
		classifier = routing.DefaultClassifier()
	}
	active := conf.GoAppEnvironment == configuration.Production && conf.OpsGuard.Enabled
	checks := opsChecks(conf)

	return func(next http.Handler) http.Handler {
		if !active {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if classifier.ClassifyPath(r.URL.Path) != routing.RouteClassOps {
				next.ServeHTTP(w, r)
				return
			}
			for _, check := range checks {
				if check(r) {
					next.ServeHTTP(w, r)
					return
				}
			}
			composables.UseLogger(r.Context()).WithField("path", r.URL.Path).Warn("ops route hidden from caller")
			http.NotFound(w, r)
		})
	}
}

func opsChecks(conf *configuration.Configuration) []opsCheck {
	var checks []opsCheck
	if cidrs := parseCIDRs(conf.OpsGuard.CIDRs); len(cidrs) > 0 {
		header := conf.RealIPHeader
		checks = append(checks, func(r *http.Request) bool {
			ip, ok := realIP(r, header)
			if !ok {
				return false
			}
			addr, err := netip.ParseAddr(ip)
			if err != nil {
				return false
			}
			for _, p := range cidrs {
				if p.Contains(addr) {
					return true
				}
			}
			return false
		})
	}
	if token := strings.TrimSpace(conf.OpsGuard.Token); token != "" {
		checks = append(checks, func(r *http.Request) bool {
			return secretEqual(opsToken(r), token)
		})
	}
	if user := strings.TrimSpace(conf.OpsGuard.BasicAuthUser); user != "" {
		pass := conf.OpsGuard.BasicAuthPass
		checks = append(checks, func(r *http.Request) bool {
			u, p, ok := r.BasicAuth()
			return ok && secretEqual(u, user) && secretEqual(p, pass)
		})
	}
	return checks
}

func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func parseCIDRs(raw string) []netip.Prefix {
	var out []netip.Prefix
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t' }) {
		if p, err := netip.ParsePrefix(part); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// opsToken reads X-Ops-Token, then a bearer Authorization header.
func opsToken(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get("X-Ops-Token")); t != "" {
		return t
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// realIP prefers the configured proxy header (first hop) over RemoteAddr.
func realIP(r *http.Request, header string) (string, bool) {
	addr := r.RemoteAddr
	if header != "" {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			addr = firstHeaderValue(v)
		}
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", false
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host, true
	}
	return addr, true
}
