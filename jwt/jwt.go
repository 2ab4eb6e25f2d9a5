// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/oidcnative/oidc"
)

// DefaultLeeway is the leeway applied to the exp, nbf and iat claims when
// Expected.ClockSkewLeeway is zero.
const DefaultLeeway = jwt.DefaultLeeway

// Validator validates JSON Web Tokens (JWT) by providing signature
// verification and claims set validation.  Validator can contain either
// single or multiple KeySets and will try to verify the JWT by looping
// through the KeySets until one succeeds.
type Validator struct {
	keySets []KeySet
}

// NewValidator returns a Validator that uses the given KeySets to verify JWT signatures.
func NewValidator(keySets ...KeySet) (*Validator, error) {
	const op = "jwt.NewValidator"
	if len(keySets) == 0 {
		return nil, fmt.Errorf("%s: keySets must not be empty: %w", op, oidc.ErrInvalidParameter)
	}
	var result *multierror.Error
	for i, ks := range keySets {
		if ks == nil {
			result = multierror.Append(result, fmt.Errorf("%s: keySet %d is nil: %w", op, i, oidc.ErrNilParameter))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &Validator{
		keySets: keySets,
	}, nil
}

// Expected defines the expected claims values to assert when validating a JWT.
// For claims that have an empty value in Expected, validation will be skipped.
type Expected struct {
	// Issuer is the expected "iss" claim
	Issuer string

	// Subject is the expected "sub" claim
	Subject string

	// ID is the expected "jti" claim
	ID string

	// Audiences is the set of expected "aud" claims; at least one must match.
	Audiences []string

	// Nonce is the expected "nonce" claim of an id_token.
	Nonce string

	// SigningAlgorithms provides the list of expected JWS "alg" header values.
	// Defaults to RS256 when empty, which every oidc provider must support.
	SigningAlgorithms []Alg

	// ClockSkewLeeway is the leeway applied to the time based claims.  Zero
	// means DefaultLeeway and a negative value means no leeway.
	ClockSkewLeeway time.Duration

	// Now provides the current time used during time-based claims validation.
	// Defaults to time.Now.
	Now func() time.Time
}

// Validate validates JWTs of the JWS compact serialization form.
//
// The validation steps are: the JWS "alg" header must be one of
// Expected.SigningAlgorithms; the signature must verify with one of the
// KeySets; the "exp" claim is required and, together with "nbf" and "iat",
// is checked against the current time; then every non-empty Expected value
// is asserted.  The claims of the token are returned.
func (v *Validator) Validate(ctx context.Context, token string, expected Expected) (map[string]interface{}, error) {
	const op = "Validator.Validate"
	if v == nil || len(v.keySets) == 0 {
		return nil, fmt.Errorf("%s: validator has no key sets: %w", op, oidc.ErrNilParameter)
	}
	if err := validateSigningAlgorithm(token, expected.SigningAlgorithms); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var allClaims map[string]interface{}
	var sigErr error
	for _, ks := range v.keySets {
		var err error
		if allClaims, err = ks.VerifySignature(ctx, token); err == nil {
			sigErr = nil
			break
		}
		sigErr = multierror.Append(sigErr, err)
	}
	if sigErr != nil {
		return nil, fmt.Errorf("%s: %w", op, sigErr)
	}

	var c jwt.Claims
	if err := remarshal(allClaims, &c); err != nil {
		return nil, fmt.Errorf("%s: unable to decode registered claims: %w: %s", op, oidc.ErrInvalidIDToken, err)
	}
	if c.Expiry == nil {
		return nil, fmt.Errorf("%s: exp: %w", op, oidc.ErrMissingClaim)
	}

	now := time.Now
	if expected.Now != nil {
		now = expected.Now
	}
	leeway := expected.ClockSkewLeeway
	switch {
	case leeway == 0:
		leeway = DefaultLeeway
	case leeway < 0:
		leeway = 0
	}
	err := c.ValidateWithLeeway(jwt.Expected{
		Issuer:  expected.Issuer,
		Subject: expected.Subject,
		ID:      expected.ID,
		Time:    now(),
	}, leeway)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrExpired):
		return nil, fmt.Errorf("%s: %w", op, oidc.ErrExpiredToken)
	case errors.Is(err, jwt.ErrInvalidIssuer):
		return nil, fmt.Errorf("%s: %w", op, oidc.ErrInvalidIssuer)
	default:
		return nil, fmt.Errorf("%s: %w: %s", op, oidc.ErrInvalidIDToken, err)
	}

	if err := validateAudience(expected.Audiences, c.Audience); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if expected.Nonce != "" {
		if n, _ := allClaims["nonce"].(string); n != expected.Nonce {
			return nil, fmt.Errorf("%s: %w", op, oidc.ErrInvalidNonce)
		}
	}
	return allClaims, nil
}

// validateSigningAlgorithm checks whether the JWS "alg" header is one of the
// expected algorithms.
func validateSigningAlgorithm(token string, expectedAlgorithms []Alg) error {
	const op = "jwt.validateSigningAlgorithm"
	if len(expectedAlgorithms) == 0 {
		expectedAlgorithms = []Alg{RS256}
	}
	if err := SupportedSigningAlgorithm(expectedAlgorithms...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	// go-jose rejects tokens signed with an algorithm outside the list.
	parsed, err := jwt.ParseSigned(token, joseAlgs(expectedAlgorithms))
	if err != nil {
		return fmt.Errorf("%s: %w: %s", op, oidc.ErrInvalidIDToken, err)
	}
	if len(parsed.Headers) != 1 {
		return fmt.Errorf("%s: expected exactly one signature: %w", op, oidc.ErrInvalidSignature)
	}
	return nil
}

// validateAudience returns an error if audClaim does not contain at least one
// of the expectedAudiences.  Trailing slashes are ignored on both sides.
func validateAudience(expectedAudiences, audClaim []string) error {
	const op = "jwt.validateAudience"
	if len(expectedAudiences) == 0 {
		return nil
	}
	for _, e := range expectedAudiences {
		for _, a := range audClaim {
			if strings.TrimSuffix(e, "/") == strings.TrimSuffix(a, "/") {
				return nil
			}
		}
	}
	return fmt.Errorf("%s: %w", op, oidc.ErrInvalidAudience)
}

func remarshal(in map[string]interface{}, out interface{}) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
