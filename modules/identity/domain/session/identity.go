package session

import (
	"regexp"
	"sort"
	"strings"
)

const (
	ClaimTenantID  = "TenantId"
	ClaimName      = "name"
	ClaimUsername  = "preferred_username"
	ClaimEmail     = "email"
	ClaimEmails    = "emails"
	ClaimLoginHint = "login_hint"
	ClaimNonce     = "nonce"

	platformAdminPrefix = "superadmin"
)

// Directory extension attributes arrive as extension_<appId>_TenantId.
var extensionTenantClaim = regexp.MustCompile(`^extension_(?:.+_)?TenantId$`)

// Identity is the signed-in account as seen by the portal. It is re-derived
// from ID token claims on every authentication event.
type Identity struct {
	name      string
	username  string
	loginHint string
	tenantID  string
	claims    map[string]any
}

// FromClaims builds an Identity, resolving the tenant claim once.
func FromClaims(claims map[string]any) Identity {
	copied := make(map[string]any, len(claims))
	for k, v := range claims {
		copied[k] = v
	}
	tenantID, _ := ExtractTenantClaim(copied)
	return Identity{
		name:      stringClaim(copied, ClaimName),
		username:  usernameFromClaims(copied),
		loginHint: stringClaim(copied, ClaimLoginHint),
		tenantID:  tenantID,
		claims:    copied,
	}
}

func (i Identity) Name() string { return i.name }

func (i Identity) Username() string { return i.username }

func (i Identity) LoginHint() string { return i.loginHint }

// TenantID is the tenant bound by the identity provider, empty when absent.
func (i Identity) TenantID() string { return i.tenantID }

func (i Identity) HasTenant() bool { return i.tenantID != "" }

func (i Identity) IsZero() bool { return i.username == "" && i.name == "" && len(i.claims) == 0 }

// IsPlatformAdmin reports whether the account is a platform operator.
func (i Identity) IsPlatformAdmin() bool {
	return strings.HasPrefix(i.username, platformAdminPrefix)
}

// DisplayName prefers the name claim and falls back to the username.
func (i Identity) DisplayName() string {
	if i.name != "" {
		return i.name
	}
	return i.username
}

// LogoutHint identifies the account to the provider's end-session endpoint.
func (i Identity) LogoutHint() string {
	if i.loginHint != "" {
		return i.loginHint
	}
	return i.username
}

func (i Identity) Claims() map[string]any {
	out := make(map[string]any, len(i.claims))
	for k, v := range i.claims {
		out[k] = v
	}
	return out
}

// ExtractTenantClaim prefers the normalized TenantId claim and otherwise
// scans for a directory extension attribute in sorted key order.
func ExtractTenantClaim(claims map[string]any) (string, bool) {
	if v := stringClaim(claims, ClaimTenantID); v != "" {
		return v, true
	}
	keys := make([]string, 0, len(claims))
	for k := range claims {
		if extensionTenantClaim.MatchString(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := stringClaim(claims, k); v != "" {
			return v, true
		}
	}
	return "", false
}

func usernameFromClaims(claims map[string]any) string {
	for _, key := range []string{ClaimUsername, "username", ClaimEmail, "upn"} {
		if v := stringClaim(claims, key); v != "" {
			return v
		}
	}
	if emails, ok := claims[ClaimEmails].([]any); ok {
		for _, e := range emails {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func stringClaim(claims map[string]any, key string) string {
	v, ok := claims[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
