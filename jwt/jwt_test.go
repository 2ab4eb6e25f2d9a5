// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/oidcnative/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	t.Parallel()
	tp := oidc.StartTestEndpoint(t)
	pub, priv := tp.SigningKeys()
	ctx := context.Background()

	staticKeySet, err := NewStaticKeySet([]string{pub})
	require.NoError(t, err)
	v, err := NewValidator(staticKeySet)
	require.NoError(t, err)

	now := time.Now()
	sign := func(c jwt.Claims, private map[string]interface{}) string {
		return oidc.TestSignJWT(t, priv, c, private)
	}
	es256 := []Alg{ES256}

	tests := []struct {
		name      string
		token     func() string
		expected  Expected
		wantErr   bool
		wantIsErr error
	}{
		{
			name:  "valid with all assertions",
			token: func() string { return sign(testClaims(now), map[string]interface{}{"nonce": "n-1"}) },
			expected: Expected{
				Issuer:            "https://example.com/",
				Subject:           "alice@example.com",
				ID:                "abc123",
				Audiences:         []string{"other", "www.example.com/"},
				Nonce:             "n-1",
				SigningAlgorithms: es256,
			},
		},
		{
			name: "valid within leeway",
			token: func() string {
				c := testClaims(now)
				c.Expiry = jwt.NewNumericDate(now.Add(-30 * time.Second))
				return sign(c, nil)
			},
			expected: Expected{SigningAlgorithms: es256},
		},
		{
			name: "expired outside leeway",
			token: func() string {
				c := testClaims(now)
				c.Expiry = jwt.NewNumericDate(now.Add(-30 * time.Second))
				return sign(c, nil)
			},
			expected:  Expected{SigningAlgorithms: es256, ClockSkewLeeway: -1},
			wantErr:   true,
			wantIsErr: oidc.ErrExpiredToken,
		},
		{
			name:  "expired with Now",
			token: func() string { return sign(testClaims(now), nil) },
			expected: Expected{
				SigningAlgorithms: es256,
				Now:               func() time.Time { return now.Add(time.Hour) },
			},
			wantErr:   true,
			wantIsErr: oidc.ErrExpiredToken,
		},
		{
			name: "missing exp",
			token: func() string {
				c := testClaims(now)
				c.Expiry = nil
				return sign(c, nil)
			},
			expected:  Expected{SigningAlgorithms: es256},
			wantErr:   true,
			wantIsErr: oidc.ErrMissingClaim,
		},
		{
			name:      "wrong issuer",
			token:     func() string { return sign(testClaims(now), nil) },
			expected:  Expected{Issuer: "https://wrong.com/", SigningAlgorithms: es256},
			wantErr:   true,
			wantIsErr: oidc.ErrInvalidIssuer,
		},
		{
			name:      "wrong subject",
			token:     func() string { return sign(testClaims(now), nil) },
			expected:  Expected{Subject: "bob@example.com", SigningAlgorithms: es256},
			wantErr:   true,
			wantIsErr: oidc.ErrInvalidIDToken,
		},
		{
			name:      "wrong audience",
			token:     func() string { return sign(testClaims(now), nil) },
			expected:  Expected{Audiences: []string{"www.other.com"}, SigningAlgorithms: es256},
			wantErr:   true,
			wantIsErr: oidc.ErrInvalidAudience,
		},
		{
			name:      "wrong nonce",
			token:     func() string { return sign(testClaims(now), map[string]interface{}{"nonce": "n-1"}) },
			expected:  Expected{Nonce: "n-2", SigningAlgorithms: es256},
			wantErr:   true,
			wantIsErr: oidc.ErrInvalidNonce,
		},
		{
			name:      "missing nonce",
			token:     func() string { return sign(testClaims(now), nil) },
			expected:  Expected{Nonce: "n-2", SigningAlgorithms: es256},
			wantErr:   true,
			wantIsErr: oidc.ErrInvalidNonce,
		},
		{
			name:      "unexpected algorithm defaults to RS256",
			token:     func() string { return sign(testClaims(now), nil) },
			expected:  Expected{},
			wantErr:   true,
			wantIsErr: oidc.ErrInvalidIDToken,
		},
		{
			name: "unknown signing key",
			token: func() string {
				_, other := oidc.TestGenerateKeys(t)
				return oidc.TestSignJWT(t, other, testClaims(now), nil)
			},
			expected:  Expected{SigningAlgorithms: es256},
			wantErr:   true,
			wantIsErr: oidc.ErrInvalidSignature,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := v.Validate(ctx, tt.token(), tt.expected)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			assert.Equal("alice@example.com", got["sub"])
		})
	}
}

func TestValidator_MultipleKeySets(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tp := oidc.StartTestEndpoint(t)
	_, priv := tp.SigningKeys()
	ctx := context.Background()

	rsaPriv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(err)
	static, err := NewStaticKeySet([]string{testPublicKeyPEM(t, rsaPriv.Public())})
	require.NoError(err)
	remote, err := NewJSONWebKeySet(ctx, tp.ProviderConfiguration().JWKSURI, tp.CACert())
	require.NoError(err)

	v, err := NewValidator(static, remote)
	require.NoError(err)

	_, err = v.Validate(ctx, oidc.TestSignJWT(t, priv, testClaims(time.Now()), nil), Expected{SigningAlgorithms: []Alg{ES256}})
	assert.NoError(err)
	_, err = v.Validate(ctx, testSignJWT(t, rsaPriv, RS256, testClaims(time.Now()), nil), Expected{})
	assert.NoError(err)
}

func TestNewValidator(t *testing.T) {
	t.Parallel()
	ks, err := NewJSONWebKeySet(context.Background(), "https://issuer.com/keys", "")
	require.NoError(t, err)

	tests := []struct {
		name      string
		keySets   []KeySet
		wantErr   bool
		wantIsErr error
	}{
		{name: "new validator with keySet", keySets: []KeySet{ks}},
		{name: "new validator with multiple keySets", keySets: []KeySet{ks, ks}},
		{name: "new validator with no keySets", wantErr: true, wantIsErr: oidc.ErrInvalidParameter},
		{name: "new validator with nil keySet in keySets", keySets: []KeySet{ks, nil}, wantErr: true, wantIsErr: oidc.ErrNilParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewValidator(tt.keySets...)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantIsErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
		})
	}
}

func Test_validateAudience(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name              string
		expectedAudiences []string
		audClaim          []string
		wantErr           bool
	}{
		{name: "skip validation for empty audiences", expectedAudiences: []string{}, audClaim: []string{"aud1"}},
		{name: "at least one valid audience", expectedAudiences: []string{"aud11", "aud1", "aud12"}, audClaim: []string{"aud0", "aud1"}},
		{name: "no valid audience", expectedAudiences: []string{"aud11", "aud15"}, audClaim: []string{"aud0", "aud13"}, wantErr: true},
		{name: "bound audience with trailing slash matches", expectedAudiences: []string{"aud11/"}, audClaim: []string{"aud11"}},
		{name: "aud claim with trailing slash matches", expectedAudiences: []string{"aud11"}, audClaim: []string{"aud11/"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateAudience(tt.expectedAudiences, tt.audClaim)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, oidc.ErrInvalidAudience)
				return
			}
			require.NoError(t, err)
		})
	}
}

func Test_validateSigningAlgorithm(t *testing.T) {
	t.Parallel()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	claims := testClaims(time.Now())

	tests := []struct {
		name               string
		token              func() string
		expectedAlgorithms []Alg
		wantErr            bool
	}{
		{
			name:               "default of RS256 when expected algorithms is empty",
			token:              func() string { return testSignJWT(t, priv, RS256, claims, nil) },
			expectedAlgorithms: []Alg{},
		},
		{
			name:               "jwt signed with at least one expected signing algorithm",
			token:              func() string { return testSignJWT(t, priv, PS384, claims, nil) },
			expectedAlgorithms: []Alg{RS256, EdDSA, RS512, PS384, PS256},
		},
		{
			name:               "jwt signed with unexpected algorithm",
			token:              func() string { return testSignJWT(t, priv, RS256, claims, nil) },
			expectedAlgorithms: []Alg{RS512, PS384, ES256},
			wantErr:            true,
		},
		{
			name:               "unsupported signing algorithm",
			token:              func() string { return testSignJWT(t, priv, RS256, claims, nil) },
			expectedAlgorithms: []Alg{Alg("none")},
			wantErr:            true,
		},
		{
			name: "malformed jwt",
			token: func() string {
				return strings.Split(testSignJWT(t, priv, RS256, claims, nil), ".")[0]
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateSigningAlgorithm(tt.token(), tt.expectedAlgorithms)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
