// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package request

import (
	"context"
	"net/url"

	"github.com/hashicorp/oidcnative/oidc"
	"github.com/hashicorp/oidcnative/oidc/response"
)

// NewRevokeRequest creates a request which revokes the token.
// Supported options: WithTokenTypeHint, WithClientAuthentication,
// WithExtraParams, WithErrorMapper
func NewRevokeRequest(c *Client, a *oidc.Account, config *oidc.ProviderConfiguration, token string, opt ...oidc.Option) (Request[*response.Revoke], error) {
	const op = "request.NewRevokeRequest"
	hr, opts, err := newTokenFormRequest(op, c, a, config, oidc.RevocationEndpoint, token, opt...)
	if err != nil {
		return nil, err
	}
	return newCall(c, OpRevoke, hr, opts.withErrorMapper,
		func(_ context.Context, raw *response.Raw, m *oidc.ErrorMapper) (*response.Revoke, error) {
			return response.ParseRevoke(raw, m)
		}), nil
}

// NewIntrospectRequest creates a request which asks the provider whether the
// token is active.
// Supported options: WithTokenTypeHint, WithClientAuthentication,
// WithExtraParams, WithErrorMapper
func NewIntrospectRequest(c *Client, a *oidc.Account, config *oidc.ProviderConfiguration, token string, opt ...oidc.Option) (Request[*response.Introspect], error) {
	const op = "request.NewIntrospectRequest"
	hr, opts, err := newTokenFormRequest(op, c, a, config, oidc.IntrospectionEndpoint, token, opt...)
	if err != nil {
		return nil, err
	}
	return newCall(c, OpIntrospect, hr, opts.withErrorMapper,
		func(_ context.Context, raw *response.Raw, m *oidc.ErrorMapper) (*response.Introspect, error) {
			return response.ParseIntrospect(raw, m)
		}), nil
}

// newTokenFormRequest builds the POST of a token to the revocation or
// introspection endpoint.
func newTokenFormRequest(op string, c *Client, a *oidc.Account, config *oidc.ProviderConfiguration, e oidc.Endpoint, token string, opt ...oidc.Option) (*HTTPRequest, requestOptions, error) {
	opts := getRequestOpts(opt...)
	if err := checkClient(op, c); err != nil {
		return nil, opts, err
	}
	if err := checkAccount(op, a); err != nil {
		return nil, opts, err
	}
	if token == "" {
		return nil, opts, configErr(op, "missing token", oidc.ErrInvalidParameter)
	}
	u, err := endpoint(op, config, e)
	if err != nil {
		return nil, opts, err
	}
	form := url.Values{"token": {token}}
	if opts.withTokenHint != "" {
		form.Set("token_type_hint", opts.withTokenHint)
	}
	hr, err := newPOST(u, form)
	if err != nil {
		return nil, opts, configErr(op, "invalid "+string(e), err)
	}
	if err := clientAuth(op, opts, a, u, hr); err != nil {
		return nil, opts, err
	}
	addExtra(hr.Form, opts.withExtraParams)
	return hr, opts, nil
}
