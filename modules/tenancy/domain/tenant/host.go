package tenant

import (
	"net"
	"regexp"
	"strings"
)

const DefaultLoopbackMarker = "localhost"

var invalidIDChars = regexp.MustCompile(`[^a-z0-9-]`)

// SanitizeID lowercases raw and drops every character outside [a-z0-9-].
func SanitizeID(raw string) string {
	return invalidIDChars.ReplaceAllString(strings.ToLower(raw), "")
}

// NormalizeHost lowercases a Host header value and strips the port.
func NormalizeHost(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(raw); err == nil {
		return strings.Trim(h, "[]")
	}
	return strings.TrimSuffix(raw, ".")
}

// SubdomainFromHost extracts the tenant identifier from host.
//
// Hosts containing the loopback marker carry a subdomain when they have more
// than one label (tula.localhost); other hosts need more than two labels
// (tula.mazmed.com). The identifiers "www" and the marker itself mean the
// platform context and return false.
func SubdomainFromHost(host, loopbackMarker string) (string, bool) {
	host = NormalizeHost(host)
	if host == "" {
		return "", false
	}
	if loopbackMarker == "" {
		loopbackMarker = DefaultLoopbackMarker
	}
	if net.ParseIP(host) != nil {
		return "", false
	}

	labels := strings.Split(host, ".")
	minLabels := 2
	if strings.Contains(host, loopbackMarker) {
		minLabels = 1
	}
	if len(labels) <= minLabels {
		return "", false
	}

	id := labels[0]
	if id == "" || id == "www" || id == loopbackMarker {
		return "", false
	}
	return id, true
}
