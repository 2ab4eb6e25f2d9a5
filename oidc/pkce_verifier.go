// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// ChallengeMethod represents PKCE code challenge methods as defined by RFC
// 7636.
type ChallengeMethod string

const (
	// S256 is the SHA-256 code challenge method.
	// See: https://datatracker.ietf.org/doc/html/rfc7636#section-4.2
	S256 ChallengeMethod = "S256"
)

// verifierLen is the length of a generated verifier: 32 random bytes encoded
// with base64url and no padding.
const verifierLen = 43

// CodeVerifier is a PKCE code verifier and its derived S256 challenge.
// See: https://datatracker.ietf.org/doc/html/rfc7636
type CodeVerifier struct {
	verifier  string
	challenge string
	method    ChallengeMethod
}

// NewCodeVerifier creates a new CodeVerifier using the S256 method.
func NewCodeVerifier() (*CodeVerifier, error) {
	const op = "oidc.NewCodeVerifier"
	data, err := uuid.GenerateRandomBytes(32)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read random bytes: %w", op, err)
	}
	v := &CodeVerifier{
		verifier: base64.RawURLEncoding.EncodeToString(data),
		method:   S256,
	}
	if v.challenge, err = CreateCodeChallenge(v.method, v); err != nil {
		return nil, fmt.Errorf("%s: unable to create code challenge: %w", op, err)
	}
	return v, nil
}

// Verifier returns the code verifier sent with the token request.
func (v *CodeVerifier) Verifier() string { return v.verifier }

// Challenge returns the code challenge sent with the authorize request.
func (v *CodeVerifier) Challenge() string { return v.challenge }

// Method returns the code challenge method.
func (v *CodeVerifier) Method() ChallengeMethod { return v.method }

// CreateCodeChallenge creates a code challenge from the verifier. Only S256
// is supported.
func CreateCodeChallenge(method ChallengeMethod, v *CodeVerifier) (string, error) {
	const op = "oidc.CreateCodeChallenge"
	if v == nil {
		return "", fmt.Errorf("%s: verifier is nil: %w", op, ErrNilParameter)
	}
	if method != S256 {
		return "", fmt.Errorf("%s: %s is not a supported challenge method: %w", op, method, ErrUnsupportedChallengeMethod)
	}
	sum := sha256.Sum256([]byte(v.verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}
