// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/oidcnative/oidc/internal/strutils"
)

const (
	// ScopeOpenID is the required scope for all oidc requests.
	ScopeOpenID = "openid"

	// WellKnownConfiguration is the path of the discovery document relative
	// to the discovery URI.
	WellKnownConfiguration = "/.well-known/openid-configuration"
)

// Account identifies an oidc client and the provider it signs in with. An
// Account is immutable after construction and is safe to share across
// concurrent requests.
type Account struct {
	clientID              string
	redirectURI           string
	endSessionRedirectURI string
	discoveryURI          string
	scopes                []string
	providerCA            string
}

// NewAccount creates a new Account. The discoveryURI is the base URI of the
// provider, for example https://example.okta.com/oauth2/default.  The
// "openid" scope is always requested.
// Supported options: WithScopes, WithEndSessionRedirectURI, WithProviderCA
func NewAccount(clientID, redirectURI, discoveryURI string, opt ...Option) (*Account, error) {
	const op = "oidc.NewAccount"
	opts := getAccountOpts(opt...)
	a := &Account{
		clientID:              clientID,
		redirectURI:           redirectURI,
		endSessionRedirectURI: opts.withEndSessionRedirectURI,
		discoveryURI:          strings.TrimSuffix(strings.TrimSpace(discoveryURI), "/"),
		scopes:                strutils.RemoveDuplicatesStable(append([]string{ScopeOpenID}, opts.withScopes...), false),
		providerCA:            opts.withProviderCA,
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid account: %w", op, err)
	}
	return a, nil
}

// Validate the account. All failures are returned together.
func (a *Account) Validate() error {
	const op = "Account.Validate"
	if a == nil {
		return fmt.Errorf("%s: account is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if a.clientID == "" {
		result = multierror.Append(result, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter))
	}
	if err := validateURL(a.redirectURI, false); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: redirect URI: %w", op, err))
	}
	if a.endSessionRedirectURI != "" {
		if err := validateURL(a.endSessionRedirectURI, false); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: end session redirect URI: %w", op, err))
		}
	}
	if err := validateURL(a.discoveryURI, true); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: discovery URI: %w", op, err))
	}
	return result.ErrorOrNil()
}

// ClientID returns the client id of the account.
func (a *Account) ClientID() string { return a.clientID }

// RedirectURI returns the redirect URI registered for the client.
func (a *Account) RedirectURI() string { return a.redirectURI }

// EndSessionRedirectURI returns the post logout redirect URI (if any).
func (a *Account) EndSessionRedirectURI() string { return a.endSessionRedirectURI }

// DiscoveryURI returns the base URI of the provider.
func (a *Account) DiscoveryURI() string { return a.discoveryURI }

// Issuer returns the issuer expected in the account's discovery document:
// the discovery URI without the well-known suffix.
func (a *Account) Issuer() string {
	return strings.TrimSuffix(a.discoveryURI, WellKnownConfiguration)
}

// ProviderCA returns the optional PEM encoded CA used to verify the provider.
func (a *Account) ProviderCA() string { return a.providerCA }

// Scopes returns a copy of the scopes requested by the account. The first
// scope is always "openid".
func (a *Account) Scopes() []string {
	cp := make([]string, len(a.scopes))
	copy(cp, a.scopes)
	return cp
}

// DiscoveryURL returns the URL of the provider's discovery document.
func (a *Account) DiscoveryURL() string {
	if strings.HasSuffix(a.discoveryURI, WellKnownConfiguration) {
		return a.discoveryURI
	}
	return a.discoveryURI + WellKnownConfiguration
}

// validateURL checks that s is a non-empty, parsable URL. When requireHTTP is
// true, the scheme must be http or https. Redirect URIs of native apps often
// use custom schemes, so they only need a scheme.
func validateURL(s string, requireHTTP bool) error {
	if s == "" {
		return fmt.Errorf("empty URL: %w", ErrInvalidParameter)
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%q is not a valid URL: %w", s, ErrInvalidParameter)
	}
	switch {
	case u.Scheme == "":
		return fmt.Errorf("%q is missing a scheme: %w", s, ErrInvalidParameter)
	case requireHTTP && !strutils.StrListContains([]string{"http", "https"}, u.Scheme):
		return fmt.Errorf("%q scheme is not http or https: %w", s, ErrInvalidParameter)
	case requireHTTP && u.Host == "":
		return fmt.Errorf("%q is missing a host: %w", s, ErrInvalidParameter)
	}
	return nil
}

// accountOptions is the set of available options for an Account
type accountOptions struct {
	withScopes                []string
	withEndSessionRedirectURI string
	withProviderCA            string
}

func accountDefaults() accountOptions {
	return accountOptions{}
}

func getAccountOpts(opt ...Option) accountOptions {
	opts := accountDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithScopes provides an optional list of scopes to request in addition to
// "openid".
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*accountOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithEndSessionRedirectURI provides an optional post logout redirect URI.
func WithEndSessionRedirectURI(uri string) Option {
	return func(o interface{}) {
		if o, ok := o.(*accountOptions); ok {
			o.withEndSessionRedirectURI = uri
		}
	}
}

// WithProviderCA provides an optional PEM encoded CA cert used to verify
// the provider's TLS certificate. Used by NewAccount and NewHTTPClient.
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *accountOptions:
			v.withProviderCA = cert
		case *httpClientOptions:
			v.withProviderCA = cert
		}
	}
}
