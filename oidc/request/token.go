// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package request

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/oidcnative/jwt"
	"github.com/hashicorp/oidcnative/oidc"
	"github.com/hashicorp/oidcnative/oidc/internal/strutils"
	"github.com/hashicorp/oidcnative/oidc/response"
)

// TokenRequest is a request to the token endpoint: an authorization code
// exchange or a refresh.
type TokenRequest struct {
	*call[*response.Token]
}

// NewTokenRequest creates a request which exchanges the authorization's code
// for tokens using the PKCE verifier the authorization was requested with.
// With WithIDTokenValidator the id_token is required and verified, including
// its nonce when one is provided with WithNonce.
// Supported options: WithNonce, WithClientAuthentication,
// WithIDTokenValidator, WithExtraParams, WithErrorMapper
func NewTokenRequest(c *Client, a *oidc.Account, config *oidc.ProviderConfiguration, authz *response.Authorize, verifier *oidc.CodeVerifier, opt ...oidc.Option) (*TokenRequest, error) {
	const op = "request.NewTokenRequest"
	switch {
	case authz == nil:
		return nil, configErr(op, "missing authorization", oidc.ErrNilParameter)
	case authz.Code == "":
		return nil, configErr(op, "missing authorization code", oidc.ErrInvalidParameter)
	case verifier == nil:
		return nil, configErr(op, "missing code verifier", oidc.ErrNilParameter)
	}
	return newTokenRequest(op, OpToken, c, a, config, map[string]string{
		"grant_type":    "authorization_code",
		"code":          authz.Code,
		"code_verifier": verifier.Verifier(),
	}, true, opt...)
}

// NewRefreshTokenRequest creates a request which refreshes tokens.  The
// scopes default to the account's.  An id_token in the response is verified
// when WithIDTokenValidator is used, but isn't required.
// Supported options: WithScopes, WithClientAuthentication,
// WithIDTokenValidator, WithExtraParams, WithErrorMapper
func NewRefreshTokenRequest(c *Client, a *oidc.Account, config *oidc.ProviderConfiguration, refreshToken oidc.RefreshToken, opt ...oidc.Option) (*TokenRequest, error) {
	const op = "request.NewRefreshTokenRequest"
	if refreshToken == "" {
		return nil, configErr(op, "missing refresh token", oidc.ErrInvalidParameter)
	}
	return newTokenRequest(op, OpRefreshToken, c, a, config, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": string(refreshToken),
	}, false, opt...)
}

func newTokenRequest(op string, o Operation, c *Client, a *oidc.Account, config *oidc.ProviderConfiguration, grant map[string]string, requireIDToken bool, opt ...oidc.Option) (*TokenRequest, error) {
	if err := checkClient(op, c); err != nil {
		return nil, err
	}
	if err := checkAccount(op, a); err != nil {
		return nil, err
	}
	u, err := endpoint(op, config, oidc.TokenEndpoint)
	if err != nil {
		return nil, err
	}
	opts := getRequestOpts(opt...)

	form := make(map[string][]string, len(grant)+2)
	for k, v := range grant {
		form[k] = []string{v}
	}
	switch o {
	case OpToken:
		form["redirect_uri"] = []string{a.RedirectURI()}
	case OpRefreshToken:
		scopes := a.Scopes()
		if len(opts.withScopes) > 0 {
			scopes = strutils.RemoveDuplicatesStable(append([]string{oidc.ScopeOpenID}, opts.withScopes...), false)
		}
		form["scope"] = []string{strings.Join(scopes, " ")}
	}
	hr, err := newPOST(u, form)
	if err != nil {
		return nil, configErr(op, "invalid token endpoint", err)
	}
	if err := clientAuth(op, opts, a, u, hr); err != nil {
		return nil, err
	}
	addExtra(hr.Form, opts.withExtraParams)

	v := &idTokenCheck{
		validator: opts.withValidator,
		required:  requireIDToken,
		expected: jwt.Expected{
			Issuer:            config.Issuer,
			Audiences:         []string{a.ClientID()},
			Nonce:             opts.withNonce,
			SigningAlgorithms: jwt.ParseAlgs(config.IDTokenSigningAlgValuesSupported...),
			Now:               c.now,
		},
	}
	return &TokenRequest{
		call: newCall(c, o, hr, opts.withErrorMapper,
			func(ctx context.Context, raw *response.Raw, m *oidc.ErrorMapper) (*response.Token, error) {
				tk, err := response.ParseToken(raw, m, c.now())
				if err != nil {
					return nil, err
				}
				if err := v.check(ctx, raw, tk); err != nil {
					return nil, err
				}
				return tk, nil
			}),
	}, nil
}

// idTokenCheck verifies the id_token of a token response.
type idTokenCheck struct {
	validator *jwt.Validator
	required  bool
	expected  jwt.Expected
}

func (v *idTokenCheck) check(ctx context.Context, raw *response.Raw, tk *response.Token) error {
	const op = "request.(idTokenCheck).check"
	if v.validator == nil {
		return nil
	}
	if tk.IDToken == "" {
		if !v.required {
			return nil
		}
		return oidc.NewAuthorizationError(
			oidc.KindMalformedResponse,
			oidc.WithOp(op),
			oidc.WithStatusCode(raw.StatusCode),
			oidc.WithMsg("missing id_token"),
			oidc.WithWrap(oidc.ErrMissingRequiredField),
		)
	}
	claims, err := v.validator.Validate(ctx, string(tk.IDToken), v.expected)
	if err != nil {
		return oidc.NewAuthorizationError(
			oidc.KindGeneral,
			oidc.WithOp(op),
			oidc.WithStatusCode(raw.StatusCode),
			oidc.WithMsg("id_token failed validation"),
			oidc.WithWrap(fmt.Errorf("%w: %w", oidc.ErrInvalidIDToken, err)),
		)
	}
	tk.Claims = claims
	return nil
}
