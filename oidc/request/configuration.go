// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package request

import (
	"context"

	"github.com/hashicorp/oidcnative/oidc"
	"github.com/hashicorp/oidcnative/oidc/response"
)

// NewConfigurationRequest creates a request which fetches the provider's
// discovery document from the account's discovery URI.  The document's
// issuer must match the account's issuer.
// Supported options: WithErrorMapper
func NewConfigurationRequest(c *Client, a *oidc.Account, opt ...oidc.Option) (Request[*oidc.ProviderConfiguration], error) {
	const op = "request.NewConfigurationRequest"
	if err := checkClient(op, c); err != nil {
		return nil, err
	}
	if err := checkAccount(op, a); err != nil {
		return nil, err
	}
	opts := getRequestOpts(opt...)
	hr, err := newGET(a.DiscoveryURL(), nil)
	if err != nil {
		return nil, configErr(op, "invalid discovery URI", err)
	}
	issuer := a.Issuer()
	parse := func(_ context.Context, raw *response.Raw, m *oidc.ErrorMapper) (*oidc.ProviderConfiguration, error) {
		return response.ParseConfiguration(raw, m, issuer)
	}
	return newCall(c, OpConfiguration, hr, opts.withErrorMapper, parse), nil
}
