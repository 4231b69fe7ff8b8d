package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	AppKey       ContextKey = "app"
	LoggerKey    ContextKey = "logger"
	RequestStart ContextKey = "requestStart"
	ParamsKey    ContextKey = "params"
	TenantKey    ContextKey = "tenant"
	ResolvedKey  ContextKey = "tenantResolution"
	IdentityKey  ContextKey = "identity"
	SessionKey   ContextKey = "session"
	HeadKey      ContextKey = "head"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
