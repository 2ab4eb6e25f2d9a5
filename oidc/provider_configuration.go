// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/oauth2"
)

// Endpoint names a provider endpoint.
type Endpoint string

const (
	AuthorizationEndpoint Endpoint = "authorization_endpoint"
	TokenEndpoint         Endpoint = "token_endpoint"
	RevocationEndpoint    Endpoint = "revocation_endpoint"
	IntrospectionEndpoint Endpoint = "introspection_endpoint"
	UserInfoEndpoint      Endpoint = "userinfo_endpoint"
	EndSessionEndpoint    Endpoint = "end_session_endpoint"
	RegistrationEndpoint  Endpoint = "registration_endpoint"
	JWKSEndpoint          Endpoint = "jwks_uri"
)

// ProviderConfiguration describes one provider's endpoints and metadata, as
// published in its discovery document.  It's derived once and is then
// shared read-only by every request built against it.
// See: https://openid.net/specs/openid-connect-discovery-1_0.html#ProviderMetadata
type ProviderConfiguration struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint,omitempty"`
	JWKSURI               string `json:"jwks_uri,omitempty"`
	RegistrationEndpoint  string `json:"registration_endpoint,omitempty"`
	RevocationEndpoint    string `json:"revocation_endpoint,omitempty"`
	IntrospectionEndpoint string `json:"introspection_endpoint,omitempty"`
	EndSessionEndpoint    string `json:"end_session_endpoint,omitempty"`

	ScopesSupported                  []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported           []string `json:"response_types_supported,omitempty"`
	GrantTypesSupported              []string `json:"grant_types_supported,omitempty"`
	SubjectTypesSupported            []string `json:"subject_types_supported,omitempty"`
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported,omitempty"`
	CodeChallengeMethodsSupported    []string `json:"code_challenge_methods_supported,omitempty"`
	ClaimsSupported                  []string `json:"claims_supported,omitempty"`
	TokenEndpointAuthMethods         []string `json:"token_endpoint_auth_methods_supported,omitempty"`
}

// Validate checks the fields every oidc provider must publish: issuer,
// authorization_endpoint and token_endpoint.  All failures are returned
// together.
func (c *ProviderConfiguration) Validate() error {
	const op = "ProviderConfiguration.Validate"
	if c == nil {
		return fmt.Errorf("%s: provider configuration is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if c.Issuer == "" {
		result = multierror.Append(result, fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidIssuer))
	}
	for _, e := range []Endpoint{AuthorizationEndpoint, TokenEndpoint} {
		if _, err := c.EndpointURL(e); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", op, err))
		}
	}
	return result.ErrorOrNil()
}

// EndpointURL returns the URL of the named endpoint, or an error wrapping
// ErrMissingEndpoint when the provider did not publish it.
func (c *ProviderConfiguration) EndpointURL(e Endpoint) (string, error) {
	const op = "ProviderConfiguration.EndpointURL"
	if c == nil {
		return "", fmt.Errorf("%s: provider configuration is nil: %w", op, ErrNilParameter)
	}
	var u string
	switch e {
	case AuthorizationEndpoint:
		u = c.AuthorizationEndpoint
	case TokenEndpoint:
		u = c.TokenEndpoint
	case RevocationEndpoint:
		u = c.RevocationEndpoint
	case IntrospectionEndpoint:
		u = c.IntrospectionEndpoint
	case UserInfoEndpoint:
		u = c.UserInfoEndpoint
	case EndSessionEndpoint:
		u = c.EndSessionEndpoint
	case RegistrationEndpoint:
		u = c.RegistrationEndpoint
	case JWKSEndpoint:
		u = c.JWKSURI
	default:
		return "", fmt.Errorf("%s: unknown endpoint %q: %w", op, e, ErrInvalidParameter)
	}
	if u == "" {
		return "", fmt.Errorf("%s: %s: %w", op, e, ErrMissingEndpoint)
	}
	if err := validateURL(u, true); err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, e, err)
	}
	return u, nil
}

// OAuth2Endpoint returns the provider's authorization and token endpoints
// for use with golang.org/x/oauth2.
func (c *ProviderConfiguration) OAuth2Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  c.AuthorizationEndpoint,
		TokenURL: c.TokenEndpoint,
	}
}
