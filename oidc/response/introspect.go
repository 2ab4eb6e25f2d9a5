// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package response

import (
	"encoding/json"
	"time"

	"github.com/hashicorp/oidcnative/oidc"
)

// Introspect is the result of a token introspection.  Only Active is
// guaranteed; the other fields are set for active tokens when the provider
// chooses to return them.
// See: https://www.rfc-editor.org/rfc/rfc7662#section-2.2
type Introspect struct {
	Active    bool            `json:"active"`
	Scope     string          `json:"scope,omitempty"`
	ClientID  string          `json:"client_id,omitempty"`
	Username  string          `json:"username,omitempty"`
	TokenType string          `json:"token_type,omitempty"`
	Exp       int64           `json:"exp,omitempty"`
	Iat       int64           `json:"iat,omitempty"`
	Nbf       int64           `json:"nbf,omitempty"`
	Subject   string          `json:"sub,omitempty"`
	Audience  json.RawMessage `json:"aud,omitempty"`
	Issuer    string          `json:"iss,omitempty"`
	JTI       string          `json:"jti,omitempty"`
}

// ParseIntrospect parses an introspection endpoint response.  The "active"
// member is required.
func ParseIntrospect(raw *Raw, m *oidc.ErrorMapper) (*Introspect, error) {
	const op = "response.ParseIntrospect"
	if raw == nil {
		return nil, malformed(op, nil, "no response", oidc.ErrNilParameter)
	}
	if !raw.IsSuccess() {
		return nil, Classify(op, raw, m)
	}
	if e := errorBody(op, raw, m); e != nil {
		return nil, e
	}
	var members map[string]json.RawMessage
	if err := decodeJSON(op, raw, &members); err != nil {
		return nil, err
	}
	if _, ok := members["active"]; !ok {
		return nil, missingField(op, raw, "active")
	}
	var i Introspect
	if err := decodeJSON(op, raw, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// ExpiresAt returns the expiry of the token, or the zero time when it's not
// known.
func (i *Introspect) ExpiresAt() time.Time {
	if i.Exp == 0 {
		return time.Time{}
	}
	return time.Unix(i.Exp, 0)
}
