// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package response

import (
	"math"
	"strings"
	"time"

	"github.com/hashicorp/oidcnative/oidc"
	"golang.org/x/oauth2"
)

// Token is the result of a successful token exchange or refresh.
// See: https://www.rfc-editor.org/rfc/rfc6749#section-5.1
type Token struct {
	AccessToken  oidc.AccessToken  `json:"access_token"`
	TokenType    string            `json:"token_type"`
	ExpiresIn    int64             `json:"expires_in,omitempty"`
	Scope        string            `json:"scope,omitempty"`
	RefreshToken oidc.RefreshToken `json:"refresh_token,omitempty"`
	IDToken      oidc.IDToken      `json:"id_token,omitempty"`

	// Expiry is computed from ExpiresIn when the response is parsed. It's
	// zero when the provider didn't send expires_in.
	Expiry time.Time `json:"-"`

	// Claims are the verified id_token claims, when the id_token was
	// validated.
	Claims map[string]interface{} `json:"-"`
}

// maxExpiresIn is the largest expires_in, in seconds, which fits a
// time.Duration.  Larger values are capped to it.
const maxExpiresIn = math.MaxInt64 / int64(time.Second)

// ParseToken parses a token endpoint response.  access_token and token_type
// are required.
func ParseToken(raw *Raw, m *oidc.ErrorMapper, now time.Time) (*Token, error) {
	const op = "response.ParseToken"
	if raw == nil {
		return nil, malformed(op, nil, "no response", oidc.ErrNilParameter)
	}
	if !raw.IsSuccess() {
		return nil, Classify(op, raw, m)
	}
	if e := errorBody(op, raw, m); e != nil {
		return nil, e
	}
	var tk Token
	if err := decodeJSON(op, raw, &tk); err != nil {
		return nil, err
	}
	switch {
	case tk.AccessToken == "":
		return nil, missingField(op, raw, "access_token")
	case tk.TokenType == "":
		return nil, missingField(op, raw, "token_type")
	case tk.ExpiresIn < 0:
		return nil, malformed(op, raw, "expires_in is negative", nil)
	}
	if tk.ExpiresIn > maxExpiresIn {
		tk.ExpiresIn = maxExpiresIn
	}
	if tk.ExpiresIn > 0 {
		tk.Expiry = now.Add(time.Duration(tk.ExpiresIn) * time.Second)
	}
	return &tk, nil
}

// Scopes returns the granted scopes.
func (t *Token) Scopes() []string {
	return strings.Fields(t.Scope)
}

// IsExpired returns true when the access_token has expired at now.  A token
// without an expiry never expires.
func (t *Token) IsExpired(now time.Time) bool {
	return !t.Expiry.IsZero() && !now.Before(t.Expiry)
}

// OAuth2Token converts the Token for use with golang.org/x/oauth2.  The
// id_token and scope are available through the returned token's Extra.
func (t *Token) OAuth2Token() *oauth2.Token {
	tk := &oauth2.Token{
		AccessToken:  string(t.AccessToken),
		TokenType:    t.TokenType,
		RefreshToken: string(t.RefreshToken),
		Expiry:       t.Expiry,
	}
	extra := map[string]interface{}{}
	if t.IDToken != "" {
		extra["id_token"] = string(t.IDToken)
	}
	if t.Scope != "" {
		extra["scope"] = t.Scope
	}
	return tk.WithExtra(extra)
}
