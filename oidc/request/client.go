// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oidcnative/oidc"
	"github.com/hashicorp/oidcnative/oidc/response"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxResponseSize bounds how much of a response body is read.
const DefaultMaxResponseSize = 1 << 20

const tracerName = "github.com/hashicorp/oidcnative/oidc/request"

// Client sends requests to a provider.  Each execution sends exactly one
// HTTP request: there are no retries and nothing is cached.  A Client is
// safe for concurrent use and is typically shared by every request of an
// application.
type Client struct {
	httpClient *http.Client
	logger     hclog.Logger
	tracer     trace.Tracer
	mapper     *oidc.ErrorMapper
	now        func() time.Time
	maxBody    int64
}

// NewClient creates a new Client.  Without WithHTTPClient it uses a client
// from oidc.NewHTTPClient with the default timeouts, trusting the ProviderCA
// of the WithAccount account.
// Supported options: WithHTTPClient, WithAccount, WithLogger, WithErrorMapper,
// WithTracerProvider, WithNow, WithMaxResponseSize
func NewClient(opt ...oidc.Option) (*Client, error) {
	const op = "request.NewClient"
	opts := getClientOpts(opt...)
	if opts.withMaxResponseSize <= 0 {
		return nil, fmt.Errorf("%s: max response size must be greater than zero: %w", op, oidc.ErrInvalidParameter)
	}
	hc := opts.withHTTPClient
	if hc == nil {
		var hcOpts []oidc.Option
		if a := opts.withAccount; a != nil && a.ProviderCA() != "" {
			hcOpts = append(hcOpts, oidc.WithProviderCA(a.ProviderCA()))
		}
		var err error
		if hc, err = oidc.NewHTTPClient(hcOpts...); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	tp := opts.withTracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Client{
		httpClient: hc,
		logger:     opts.withLogger,
		tracer:     tp.Tracer(tracerName),
		mapper:     opts.withErrorMapper,
		now:        opts.withNowFunc,
		maxBody:    opts.withMaxResponseSize,
	}, nil
}

// HTTPClient returns the HTTP client requests are sent with.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

// ErrorMapper returns the mapper the Client classifies failures with.
func (c *Client) ErrorMapper() *oidc.ErrorMapper { return c.mapper }

// execute sends r and reads the whole (bounded) response.  Transport and read
// failures are oidc.KindNetwork; the response is not inspected.
func (c *Client) execute(ctx context.Context, o Operation, r *HTTPRequest) (*response.Raw, error) {
	const op = "Client.execute"
	ctx, span := c.tracer.Start(ctx, "oidc."+o.String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.full", r.Endpoint()),
		),
	)
	defer span.End()

	logger := c.logger.With("operation", o.String(), "method", r.Method, "endpoint", r.Endpoint())
	logger.Debug("sending request")
	start := c.now()

	req, err := r.toHTTP(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, oidc.NewAuthorizationError(oidc.KindConfiguration, oidc.WithOp(op), oidc.WithMsg("unable to create request"), oidc.WithWrap(err))
	}

	hc := c.httpClient
	if !r.FollowRedirects {
		noRedirects := *c.httpClient
		noRedirects.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		hc = &noRedirects
	}

	resp, err := hc.Do(req)
	if err != nil {
		logger.Debug("request failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, oidc.NewAuthorizationError(oidc.KindNetwork, oidc.WithOp(op), oidc.WithMsg("unable to send request"), oidc.WithWrap(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		logger.Debug("unable to read response", "status", resp.StatusCode, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failure")
		return nil, oidc.NewAuthorizationError(oidc.KindNetwork, oidc.WithOp(op), oidc.WithStatusCode(resp.StatusCode), oidc.WithMsg("unable to read response"), oidc.WithWrap(err))
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if int64(len(body)) > c.maxBody {
		span.SetStatus(codes.Error, "response too large")
		return nil, oidc.NewAuthorizationError(oidc.KindMalformedResponse, oidc.WithOp(op), oidc.WithStatusCode(resp.StatusCode), oidc.WithMsg(fmt.Sprintf("response exceeds %d bytes", c.maxBody)))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	logger.Debug("received response", "status", resp.StatusCode, "elapsed", c.now().Sub(start))

	return &response.Raw{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
