// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package response

import (
	"fmt"
	"strings"

	"github.com/hashicorp/oidcnative/oidc"
)

// ParseConfiguration parses a discovery document.  The document must
// publish at least an issuer, an authorization_endpoint and a
// token_endpoint.  When expectedIssuer is set, the published issuer must
// match it, ignoring a trailing slash.
// See: https://openid.net/specs/openid-connect-discovery-1_0.html#ProviderConfigurationValidation
func ParseConfiguration(raw *Raw, m *oidc.ErrorMapper, expectedIssuer string) (*oidc.ProviderConfiguration, error) {
	const op = "response.ParseConfiguration"
	if raw == nil {
		return nil, malformed(op, nil, "no response", oidc.ErrNilParameter)
	}
	if !raw.IsSuccess() {
		return nil, Classify(op, raw, m)
	}
	if e := errorBody(op, raw, m); e != nil {
		return nil, e
	}
	var c oidc.ProviderConfiguration
	if err := decodeJSON(op, raw, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, malformed(op, raw, "invalid provider configuration", err)
	}
	if expectedIssuer != "" && strings.TrimSuffix(c.Issuer, "/") != strings.TrimSuffix(expectedIssuer, "/") {
		return nil, malformed(op, raw, fmt.Sprintf("issuer %q does not match %q", c.Issuer, expectedIssuer), oidc.ErrInvalidIssuer)
	}
	return &c, nil
}
