// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package request

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hashicorp/oidcnative/oidc"
	"github.com/hashicorp/oidcnative/oidc/callback"
	"github.com/hashicorp/oidcnative/oidc/dispatch"
	"github.com/hashicorp/oidcnative/oidc/response"
)

// Request is a built request which yields a T when it succeeds.  A Request
// may be executed more than once; each execution sends one HTTP request.
type Request[T any] interface {
	// Operation is the kind of the request.
	Operation() Operation

	// HTTPRequest returns a copy of the HTTP request which will be sent.
	HTTPRequest() *HTTPRequest

	// ExecuteRequest sends the request and blocks until it's been parsed.
	// A returned error is always an *oidc.AuthorizationError.
	ExecuteRequest(ctx context.Context) (T, error)

	// DispatchRequest hands the request to the dispatcher and returns without
	// waiting for it.  The callback is invoked exactly once, from the
	// dispatcher's executor.  An error is returned only when the executor
	// rejects the request, and the callback is then never invoked.
	DispatchRequest(ctx context.Context, d *dispatch.Dispatcher, cb callback.Callback[T]) error
}

// call is the Request every variant is built as.  parse turns the raw
// response into the result, the only part which differs per variant.
type call[T any] struct {
	client  *Client
	op      Operation
	httpReq *HTTPRequest
	mapper  *oidc.ErrorMapper
	parse   func(ctx context.Context, raw *response.Raw, m *oidc.ErrorMapper) (T, error)
}

var _ Request[*response.Token] = (*call[*response.Token])(nil)

func newCall[T any](c *Client, o Operation, hr *HTTPRequest, m *oidc.ErrorMapper, parse func(context.Context, *response.Raw, *oidc.ErrorMapper) (T, error)) *call[T] {
	if m == nil {
		m = c.mapper
	}
	return &call[T]{client: c, op: o, httpReq: hr, mapper: m, parse: parse}
}

// Operation returns the kind of the request.
func (r *call[T]) Operation() Operation { return r.op }

// HTTPRequest returns a copy of the HTTP request which will be sent.
func (r *call[T]) HTTPRequest() *HTTPRequest { return r.httpReq.clone() }

// ExecuteRequest sends the request and parses its response.
func (r *call[T]) ExecuteRequest(ctx context.Context) (T, error) {
	v, err := r.run(ctx)
	if err != nil {
		return v, oidc.ConvertError(err)
	}
	return v, nil
}

// DispatchRequest runs the request on the dispatcher's executor.
func (r *call[T]) DispatchRequest(ctx context.Context, d *dispatch.Dispatcher, cb callback.Callback[T]) error {
	const op = "Request.DispatchRequest"
	if err := dispatch.Dispatch(ctx, d, cb, r.run); err != nil {
		return fmt.Errorf("%s: %s: %w", op, r.op, err)
	}
	return nil
}

func (r *call[T]) run(ctx context.Context) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	raw, err := r.client.execute(ctx, r.op, r.httpReq)
	if err != nil {
		return zero, err
	}
	return r.parse(ctx, raw, r.mapper)
}

// configErr is the error of a request which can't be built.
func configErr(op, msg string, wrapped error) *oidc.AuthorizationError {
	return oidc.NewAuthorizationError(
		oidc.KindConfiguration,
		oidc.WithOp(op),
		oidc.WithMsg(msg),
		oidc.WithWrap(wrapped),
	)
}

// endpoint returns the URL of e, or a configuration error when config
// doesn't have one.
func endpoint(op string, config *oidc.ProviderConfiguration, e oidc.Endpoint) (string, error) {
	if config == nil {
		return "", configErr(op, "missing provider configuration", oidc.ErrNilParameter)
	}
	u, err := config.EndpointURL(e)
	if err != nil {
		return "", configErr(op, fmt.Sprintf("provider has no %s", e), err)
	}
	return u, nil
}

func checkClient(op string, c *Client) error {
	if c == nil {
		return configErr(op, "missing client", oidc.ErrNilParameter)
	}
	return nil
}

func checkAccount(op string, a *oidc.Account) error {
	if a == nil {
		return configErr(op, "missing account", oidc.ErrNilParameter)
	}
	return nil
}

// clientAuth applies the client authentication of opts, or the public client
// id of the account.
func clientAuth(op string, opts requestOptions, a *oidc.Account, endpointURL string, hr *HTTPRequest) error {
	auth := opts.withClientAuth
	if auth == nil {
		auth = oidc.PublicClient{ClientID: a.ClientID()}
	}
	if err := auth.Apply(endpointURL, hr.Form, hr.Header); err != nil {
		return configErr(op, "unable to apply client authentication", err)
	}
	return nil
}

// addExtra adds the params of WithExtraParams which aren't already set.
func addExtra(dst url.Values, extra url.Values) {
	for k, vs := range extra {
		if _, ok := dst[k]; ok {
			continue
		}
		dst[k] = append([]string(nil), vs...)
	}
}
