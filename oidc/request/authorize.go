// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package request

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/oidcnative/oidc"
	"github.com/hashicorp/oidcnative/oidc/internal/strutils"
	"github.com/hashicorp/oidcnative/oidc/response"
)

// DefaultStateLifetime is how long a generated state is valid for.
const DefaultStateLifetime = 10 * time.Minute

// authorizeParams are the state, nonce and PKCE verifier one authorization
// is bound to.
type authorizeParams struct {
	state    string
	nonce    string
	verifier *oidc.CodeVerifier
}

// newAuthorizeParams generates the params which weren't provided as options.
func newAuthorizeParams(op string, opts requestOptions) (authorizeParams, error) {
	s, err := oidc.NewState(DefaultStateLifetime)
	if err != nil {
		return authorizeParams{}, oidc.NewAuthorizationError(oidc.KindGeneral, oidc.WithOp(op), oidc.WithMsg("unable to generate state"), oidc.WithWrap(err))
	}
	p := authorizeParams{
		state:    s.ID(),
		nonce:    s.Nonce(),
		verifier: s.CodeVerifier(),
	}
	if opts.withState != "" {
		p.state = opts.withState
	}
	if opts.withNonce != "" {
		p.nonce = opts.withNonce
	}
	if opts.withCodeVerifier != nil {
		p.verifier = opts.withCodeVerifier
	}
	return p, nil
}

// authorizeQuery returns the parameters of an authorization request using
// the code flow with PKCE.
func authorizeQuery(a *oidc.Account, opts requestOptions, p authorizeParams) url.Values {
	scopes := a.Scopes()
	if len(opts.withScopes) > 0 {
		scopes = strutils.RemoveDuplicatesStable(append([]string{oidc.ScopeOpenID}, opts.withScopes...), false)
	}
	q := url.Values{
		"client_id":             {a.ClientID()},
		"redirect_uri":          {a.RedirectURI()},
		"response_type":         {"code"},
		"scope":                 {strings.Join(scopes, " ")},
		"state":                 {p.state},
		"nonce":                 {p.nonce},
		"code_challenge":        {p.verifier.Challenge()},
		"code_challenge_method": {string(p.verifier.Method())},
	}
	if opts.withPrompt != "" {
		q.Set("prompt", opts.withPrompt)
	}
	if opts.withLoginHint != "" {
		q.Set("login_hint", opts.withLoginHint)
	}
	if len(opts.withUILocales) > 0 {
		locales := make([]string, 0, len(opts.withUILocales))
		for _, l := range opts.withUILocales {
			locales = append(locales, l.String())
		}
		q.Set("ui_locales", strings.Join(locales, " "))
	}
	addExtra(q, opts.withExtraParams)
	return q
}

// NativeAuthorizeRequest exchanges a session token for an authorization code
// without a browser.  The provider responds with a redirect to the account's
// redirect URI, which isn't followed: the code is read from its Location.
type NativeAuthorizeRequest struct {
	*call[*response.Authorize]
	account *oidc.Account
	config  *oidc.ProviderConfiguration
	params  authorizeParams
}

// NewNativeAuthorizeRequest creates a native authorize request for the
// session token.  A state, nonce and PKCE verifier are generated unless
// they're provided, and the prompt defaults to PromptNone.
// Supported options: WithState, WithNonce, WithCodeVerifier, WithScopes,
// WithPrompt, WithLoginHint, WithUILocales, WithExtraParams, WithErrorMapper
func NewNativeAuthorizeRequest(c *Client, a *oidc.Account, sessionToken string, config *oidc.ProviderConfiguration, opt ...oidc.Option) (*NativeAuthorizeRequest, error) {
	const op = "request.NewNativeAuthorizeRequest"
	if err := checkClient(op, c); err != nil {
		return nil, err
	}
	if err := checkAccount(op, a); err != nil {
		return nil, err
	}
	if sessionToken == "" {
		return nil, configErr(op, "missing session token", oidc.ErrInvalidParameter)
	}
	u, err := endpoint(op, config, oidc.AuthorizationEndpoint)
	if err != nil {
		return nil, err
	}
	opts := getRequestOpts(opt...)
	if opts.withPrompt == "" {
		opts.withPrompt = PromptNone
	}
	p, err := newAuthorizeParams(op, opts)
	if err != nil {
		return nil, err
	}
	q := authorizeQuery(a, opts, p)
	q.Set("sessionToken", sessionToken)
	hr, err := newGET(u, q)
	if err != nil {
		return nil, configErr(op, "invalid authorization endpoint", err)
	}
	hr.FollowRedirects = false

	r := &NativeAuthorizeRequest{
		account: a,
		config:  config,
		params:  p,
	}
	r.call = newCall(c, OpNativeAuthorize, hr, opts.withErrorMapper,
		func(_ context.Context, raw *response.Raw, m *oidc.ErrorMapper) (*response.Authorize, error) {
			return response.ParseAuthorize(raw, m, p.state)
		})
	return r, nil
}

// State is the state sent with the request.
func (r *NativeAuthorizeRequest) State() string { return r.params.state }

// Nonce is the nonce the id_token issued for the code must carry.
func (r *NativeAuthorizeRequest) Nonce() string { return r.params.nonce }

// CodeVerifier is the PKCE verifier the code must be exchanged with.
func (r *NativeAuthorizeRequest) CodeVerifier() *oidc.CodeVerifier { return r.params.verifier }

// TokenRequest creates the request which exchanges the authorization's code
// for tokens, bound to this request's verifier and nonce.
func (r *NativeAuthorizeRequest) TokenRequest(authz *response.Authorize, opt ...oidc.Option) (*TokenRequest, error) {
	opt = append([]oidc.Option{WithNonce(r.params.nonce)}, opt...)
	return NewTokenRequest(r.client, r.account, r.config, authz, r.params.verifier, opt...)
}

// BrowserAuthorizeRequest is an authorization which happens in a browser.
// It's never sent by a Client: the caller sends the user agent to URL and
// parses the redirect back with ParseRedirect.
type BrowserAuthorizeRequest struct {
	account *oidc.Account
	config  *oidc.ProviderConfiguration
	params  authorizeParams
	url     string
	mapper  *oidc.ErrorMapper
}

// NewBrowserAuthorizeRequest creates a browser authorize request.
// Supported options: WithState, WithNonce, WithCodeVerifier, WithScopes,
// WithPrompt, WithLoginHint, WithUILocales, WithExtraParams, WithErrorMapper
func NewBrowserAuthorizeRequest(a *oidc.Account, config *oidc.ProviderConfiguration, opt ...oidc.Option) (*BrowserAuthorizeRequest, error) {
	const op = "request.NewBrowserAuthorizeRequest"
	if err := checkAccount(op, a); err != nil {
		return nil, err
	}
	u, err := endpoint(op, config, oidc.AuthorizationEndpoint)
	if err != nil {
		return nil, err
	}
	opts := getRequestOpts(opt...)
	p, err := newAuthorizeParams(op, opts)
	if err != nil {
		return nil, err
	}
	hr, err := newGET(u, authorizeQuery(a, opts, p))
	if err != nil {
		return nil, configErr(op, "invalid authorization endpoint", err)
	}
	return &BrowserAuthorizeRequest{
		account: a,
		config:  config,
		params:  p,
		url:     hr.URL,
		mapper:  opts.withErrorMapper,
	}, nil
}

// Operation returns OpBrowserAuthorize.
func (r *BrowserAuthorizeRequest) Operation() Operation { return OpBrowserAuthorize }

// URL is where the user agent must be sent.
func (r *BrowserAuthorizeRequest) URL() string { return r.url }

// State is the state sent with the request.
func (r *BrowserAuthorizeRequest) State() string { return r.params.state }

// Nonce is the nonce the id_token issued for the code must carry.
func (r *BrowserAuthorizeRequest) Nonce() string { return r.params.nonce }

// CodeVerifier is the PKCE verifier the code must be exchanged with.
func (r *BrowserAuthorizeRequest) CodeVerifier() *oidc.CodeVerifier { return r.params.verifier }

// ParseRedirect parses the URI the user agent was redirected back to.
func (r *BrowserAuthorizeRequest) ParseRedirect(redirectURI string) (*response.Authorize, error) {
	authz, err := response.ParseAuthorizeRedirect(redirectURI, r.mapper, r.params.state)
	if err != nil {
		return nil, oidc.ConvertError(err)
	}
	return authz, nil
}

// TokenRequest creates the request which exchanges the authorization's code
// for tokens, bound to this request's verifier and nonce.
func (r *BrowserAuthorizeRequest) TokenRequest(c *Client, authz *response.Authorize, opt ...oidc.Option) (*TokenRequest, error) {
	opt = append([]oidc.Option{WithNonce(r.params.nonce)}, opt...)
	return NewTokenRequest(c, r.account, r.config, authz, r.params.verifier, opt...)
}
