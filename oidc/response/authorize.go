// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package response

import (
	"fmt"
	"net/url"

	"github.com/hashicorp/oidcnative/oidc"
)

// Authorize is the result of a successful authorization: the code to
// exchange for tokens and the echoed state.
type Authorize struct {
	Code  string
	State string

	// Params are all of the parameters of the redirect.
	Params url.Values
}

// ParseAuthorize parses the redirect a provider responds with to a native
// authorize request.  The code and state are read from the Location.  When
// expectedState is set, an echoed state which differs is rejected.
func ParseAuthorize(raw *Raw, m *oidc.ErrorMapper, expectedState string) (*Authorize, error) {
	const op = "response.ParseAuthorize"
	if raw == nil {
		return nil, malformed(op, nil, "no response", oidc.ErrNilParameter)
	}
	if !raw.IsRedirect() {
		if !raw.IsSuccess() {
			return nil, Classify(op, raw, m)
		}
		if e := errorBody(op, raw, m); e != nil {
			return nil, e
		}
		return nil, malformed(op, raw, "expected a redirect", nil)
	}
	loc := raw.Header.Get("Location")
	if loc == "" {
		return nil, missingField(op, raw, "Location")
	}
	return parseRedirect(op, raw.StatusCode, loc, m, expectedState, raw)
}

// ParseAuthorizeRedirect parses the redirect URI a browser was sent back to
// after an authorization.
func ParseAuthorizeRedirect(redirectURI string, m *oidc.ErrorMapper, expectedState string) (*Authorize, error) {
	const op = "response.ParseAuthorizeRedirect"
	if redirectURI == "" {
		return nil, malformed(op, nil, "empty redirect URI", oidc.ErrInvalidParameter)
	}
	return parseRedirect(op, 0, redirectURI, m, expectedState, nil)
}

func parseRedirect(op string, status int, loc string, m *oidc.ErrorMapper, expectedState string, raw *Raw) (*Authorize, error) {
	u, err := url.Parse(loc)
	if err != nil {
		return nil, malformed(op, raw, "unable to parse redirect", err)
	}
	params := u.Query()
	if params.Get("code") == "" && params.Get("error") == "" && u.Fragment != "" {
		// response_mode=fragment
		if fp, err := url.ParseQuery(u.Fragment); err == nil {
			params = fp
		}
	}
	if e := classifyParams(op, status, params, m); e != nil {
		return nil, e
	}
	state := params.Get("state")
	if expectedState != "" && state != "" && state != expectedState {
		return nil, oidc.NewAuthorizationError(
			oidc.KindGeneral,
			oidc.WithOp(op),
			oidc.WithMsg(fmt.Sprintf("state %q does not match the request", state)),
			oidc.WithWrap(oidc.ErrResponseStateInvalid),
		)
	}
	code := params.Get("code")
	if code == "" {
		return nil, missingField(op, raw, "code")
	}
	return &Authorize{
		Code:   code,
		State:  state,
		Params: params,
	}, nil
}
