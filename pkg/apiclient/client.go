// Package apiclient is the portal's only door to the backend REST API.
// Calls are never retried; every failure surfaces to the caller.
package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/metrics"
)

var tracer = otel.Tracer("portal-apiclient")

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	rc *resty.Client
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	rc := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	return &Client{rc: rc}
}

// Call describes one backend request.
type Call struct {
	Operation  string
	Method     string
	Path       string
	PathParams map[string]string
	Body       any
	Result     any
	// Public calls go out without the bearer token.
	Public bool
}

// Do executes call. Non-2xx responses return *Error.
func (c *Client) Do(ctx context.Context, call Call) error {
	ctx, span := tracer.Start(ctx, "backend."+call.Operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", call.Method),
			attribute.String("http.route", call.Path),
		),
	)
	defer span.End()

	req := c.rc.R().SetContext(ctx)
	if !call.Public {
		token, err := composables.UseBearerToken(ctx)
		if err != nil {
			span.SetStatus(codes.Error, "missing bearer token")
			return errors.Wrap(err, call.Operation)
		}
		req.SetAuthToken(token)
	}
	if len(call.PathParams) > 0 {
		req.SetPathParams(call.PathParams)
	}
	if call.Body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(call.Body)
	}
	resp, err := req.Execute(call.Method, call.Path)
	if err != nil {
		metrics.ObserveBackend(call.Operation, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return errors.Wrapf(err, "%s %s", call.Method, call.Path)
	}

	status := resp.StatusCode()
	metrics.ObserveBackend(call.Operation, status)
	span.SetAttributes(attribute.Int("http.status_code", status))
	if resp.IsError() || status >= http.StatusMultipleChoices {
		apiErr := &Error{Operation: call.Operation, StatusCode: status}
		var body errorBody
		if json.Unmarshal(resp.Body(), &body) == nil {
			apiErr.Message = strings.TrimSpace(body.Error)
		}
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	// Decoded regardless of the response Content-Type.
	if call.Result != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), call.Result); err != nil {
			span.RecordError(err)
			return errors.Wrapf(err, "decode %s response", call.Operation)
		}
	}
	return nil
}
