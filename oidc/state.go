// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"
	"time"
)

// DefaultStateExpirySkew defines a default time skew when checking a State's
// expiration.
const DefaultStateExpirySkew = 1 * time.Second

// State is the data which uniquely represents one authorization attempt: an
// opaque state value echoed by the provider, a nonce bound into the id_token
// and the PKCE verifier for the code exchange. The ID and the Nonce are never
// equal.
type State struct {
	id       string
	nonce    string
	verifier *CodeVerifier

	expiration time.Time
	nowFunc    func() time.Time
}

// NewState creates a new State which expires after expireIn.
// Supported options: WithNow
func NewState(expireIn time.Duration, opt ...Option) (*State, error) {
	const op = "oidc.NewState"
	if expireIn <= 0 {
		return nil, fmt.Errorf("%s: expireIn not greater than zero: %w", op, ErrInvalidParameter)
	}
	opts := getStateOpts(opt...)
	nonce, err := NewID(WithPrefix("n"))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a state's nonce: %w", op, err)
	}
	id, err := NewID(WithPrefix("st"))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a state's id: %w", op, err)
	}
	v, err := NewCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a state's code verifier: %w", op, err)
	}
	s := &State{
		id:       id,
		nonce:    nonce,
		verifier: v,
		nowFunc:  opts.withNowFunc,
	}
	s.expiration = s.now().Add(expireIn)
	return s, nil
}

// ID is the opaque value sent as the "state" parameter.
func (s *State) ID() string { return s.id }

// Nonce is sent as the "nonce" parameter and must be echoed in the id_token.
func (s *State) Nonce() string { return s.nonce }

// CodeVerifier is the PKCE verifier for the attempt.
func (s *State) CodeVerifier() *CodeVerifier { return s.verifier }

// IsExpired returns true if the state has expired, allowing for
// DefaultStateExpirySkew.
func (s *State) IsExpired() bool {
	return s.expiration.Before(s.now().Add(DefaultStateExpirySkew))
}

func (s *State) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now()
}

// stateOptions is the set of available options for State functions
type stateOptions struct {
	withNowFunc func() time.Time
}

func stateDefaults() stateOptions {
	return stateOptions{}
}

func getStateOpts(opt ...Option) stateOptions {
	opts := stateDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithNow provides an optional func for determining what the current time it
// is.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*stateOptions); ok {
			o.withNowFunc = now
		}
	}
}
