// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// AccessToken is an oauth access_token
type AccessToken string

// RedactedAccessToken is the redacted string or json for an oauth access_token
const RedactedAccessToken = "[REDACTED: access_token]"

// String will redact the token
func (t AccessToken) String() string {
	return RedactedAccessToken
}

// MarshalJSON will redact the token
func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAccessToken)
}

// RefreshToken is an oauth refresh_token
type RefreshToken string

// RedactedRefreshToken is the redacted string or json for an oauth refresh_token
const RedactedRefreshToken = "[REDACTED: refresh_token]"

// String will redact the token
func (t RefreshToken) String() string {
	return RedactedRefreshToken
}

// MarshalJSON will redact the token
func (t RefreshToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedRefreshToken)
}

// IDToken is an oidc id_token
type IDToken string

// RedactedIDToken is the redacted string or json for an oidc id_token
const RedactedIDToken = "[REDACTED: id_token]"

// String will redact the token
func (t IDToken) String() string {
	return RedactedIDToken
}

// MarshalJSON will redact the token
func (t IDToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedIDToken)
}

// unverifiedAlgs are the algorithms accepted when decoding claims without
// verifying the signature.
var unverifiedAlgs = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.EdDSA,
}

// Claims decodes the IDToken claims into claims WITHOUT verifying the
// signature. Use the jwt package to verify an id_token.
func (t IDToken) Claims(claims interface{}) error {
	const op = "IDToken.Claims"
	if len(t) == 0 {
		return fmt.Errorf("%s: id_token is empty: %w", op, ErrInvalidParameter)
	}
	if claims == nil {
		return fmt.Errorf("%s: claims interface is nil: %w", op, ErrNilParameter)
	}
	parsed, err := jwt.ParseSigned(string(t), unverifiedAlgs)
	if err != nil {
		return fmt.Errorf("%s: unable to parse id_token: %w", op, ErrInvalidIDToken)
	}
	if err := parsed.UnsafeClaimsWithoutVerification(claims); err != nil {
		return fmt.Errorf("%s: unable to decode id_token claims: %w", op, err)
	}
	return nil
}
