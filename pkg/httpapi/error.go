// Package httpapi writes the JSON responses of the portal's internal API
// routes, including the error envelope shared with middleware.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Code identifies a failure class for scripts polling /portal/api.
type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeMethodNotAllowed    Code = "METHOD_NOT_ALLOWED"
	CodePortalNotFound      Code = "PORTAL_NOT_FOUND"
	CodeTenantMismatch      Code = "TENANT_MISMATCH"
	CodeInteractionRequired Code = "INTERACTION_REQUIRED"
	CodeAuthFailed          Code = "AUTHENTICATION_FAILED"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeInternal            Code = "INTERNAL_SERVER_ERROR"
)

const requestIDHeader = "X-Request-Id"

type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    Code              `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// WriteJSON writes payload uncached; portal API answers carry session state.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

// Error writes the envelope for r. The request path and the request id
// assigned by the logging middleware are added to meta.
func Error(w http.ResponseWriter, r *http.Request, status int, code Code, message string, meta map[string]string) error {
	merged := make(map[string]string, len(meta)+2)
	for k, v := range meta {
		merged[k] = v
	}
	if r != nil {
		merged["path"] = r.URL.Path
	}
	if id := requestID(w, r); id != "" {
		merged["request_id"] = id
	}
	return WriteJSON(w, status, &ErrorEnvelope{Code: code, Message: message, Meta: merged})
}

func requestID(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(w.Header().Get(requestIDHeader)); id != "" {
		return id
	}
	if r != nil {
		return strings.TrimSpace(r.Header.Get(requestIDHeader))
	}
	return ""
}
