// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package request

import (
	"context"

	"github.com/hashicorp/oidcnative/oidc"
	"github.com/hashicorp/oidcnative/oidc/response"
)

// NewUserInfoRequest creates a request for the claims of the user the access
// token was issued to.
// Supported options: WithErrorMapper
func NewUserInfoRequest(c *Client, config *oidc.ProviderConfiguration, accessToken oidc.AccessToken, opt ...oidc.Option) (Request[*response.UserInfo], error) {
	const op = "request.NewUserInfoRequest"
	if err := checkClient(op, c); err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, configErr(op, "missing access token", oidc.ErrInvalidParameter)
	}
	u, err := endpoint(op, config, oidc.UserInfoEndpoint)
	if err != nil {
		return nil, err
	}
	opts := getRequestOpts(opt...)
	hr, err := newGET(u, nil)
	if err != nil {
		return nil, configErr(op, "invalid userinfo endpoint", err)
	}
	hr.Header.Set("Authorization", "Bearer "+string(accessToken))
	return newCall(c, OpUserInfo, hr, opts.withErrorMapper,
		func(_ context.Context, raw *response.Raw, m *oidc.ErrorMapper) (*response.UserInfo, error) {
			return response.ParseUserInfo(raw, m)
		}), nil
}
