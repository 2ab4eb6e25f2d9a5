// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidParameter           = errors.New("invalid parameter")
	ErrNilParameter               = errors.New("nil parameter")
	ErrInvalidCACert              = errors.New("invalid CA certificate")
	ErrInvalidIssuer              = errors.New("invalid issuer")
	ErrIDGeneratorFailed          = errors.New("id generation failed")
	ErrMissingEndpoint            = errors.New("missing endpoint")
	ErrResponseStateInvalid       = errors.New("invalid response state")
	ErrMissingRequiredField       = errors.New("missing required field")
	ErrUnsupportedChallengeMethod = errors.New("unsupported PKCE challenge method")
	ErrInvalidIDToken             = errors.New("invalid id_token")
	ErrInvalidSignature           = errors.New("invalid signature")
	ErrInvalidNonce               = errors.New("invalid nonce")
	ErrInvalidAudience            = errors.New("invalid audience")
	ErrExpiredToken               = errors.New("token is expired")
	ErrUnsupportedAlg             = errors.New("unsupported signing algorithm")
	ErrMissingClaim               = errors.New("missing required claim")
)

// Kind classifies an AuthorizationError. A Kind is also an error, so callers
// can branch with errors.Is(err, oidc.KindUnauthorized).
type Kind int

const (
	// KindGeneral covers internal failures and failure statuses which carry no
	// OAuth error body.
	KindGeneral Kind = iota

	// KindConfiguration is returned when a request cannot be built because a
	// required parameter or provider endpoint is missing.
	KindConfiguration

	// KindNetwork is returned for connection, TLS, timeout and read failures.
	KindNetwork

	// KindUnauthorized is returned for HTTP 401 responses and for OAuth codes
	// reporting a revoked or invalid session.
	KindUnauthorized

	// KindOAuth is returned when the provider reports an OAuth error code.
	KindOAuth

	// KindMalformedResponse is returned when a success response does not match
	// the expected schema.
	KindMalformedResponse
)

// String returns the name of the Kind.
func (k Kind) String() string {
	switch k {
	case KindGeneral:
		return "general error"
	case KindConfiguration:
		return "configuration error"
	case KindNetwork:
		return "network error"
	case KindUnauthorized:
		return "unauthorized"
	case KindOAuth:
		return "oauth error"
	case KindMalformedResponse:
		return "malformed response"
	default:
		return fmt.Sprintf("unknown kind (%d)", int(k))
	}
}

// Error implements the error interface so a Kind can be an errors.Is target.
func (k Kind) Error() string { return k.String() }

// AuthorizationError is the single error type returned by request
// execution and delivered to callbacks.
type AuthorizationError struct {
	// Kind classifies the failure.
	Kind Kind

	// Op is the operation which raised the error.
	Op string

	// StatusCode is the HTTP status of the response, or zero when no response
	// was received.
	StatusCode int

	// Code, Description and URI are the OAuth error, error_description and
	// error_uri reported by the provider (if any).
	Code        string
	Description string
	URI         string

	// Msg is a human readable description of the failure.
	Msg string

	// Wrapped is the underlying cause (if any).
	Wrapped error
}

// NewAuthorizationError creates a new AuthorizationError of the given kind.
// Supported options: WithOp, WithMsg, WithWrap, WithStatusCode,
// WithOAuthError
func NewAuthorizationError(k Kind, opt ...Option) *AuthorizationError {
	opts := getErrOpts(opt...)
	return &AuthorizationError{
		Kind:        k,
		Op:          opts.withOp,
		StatusCode:  opts.withStatusCode,
		Code:        opts.withCode,
		Description: opts.withDescription,
		URI:         opts.withURI,
		Msg:         opts.withErrMsg,
		Wrapped:     opts.withErrWrapped,
	}
}

// Error satisfies the error interface and returns a string of the form
// "op: msg: kind (status): code: description: wrapped".
func (e *AuthorizationError) Error() string {
	if e == nil {
		return ""
	}
	var parts []string
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Msg != "" {
		parts = append(parts, e.Msg)
	}
	k := e.Kind.String()
	if e.StatusCode != 0 {
		k = fmt.Sprintf("%s (status %d)", k, e.StatusCode)
	}
	parts = append(parts, k)
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if e.Wrapped != nil {
		parts = append(parts, e.Wrapped.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the wrapped cause.
func (e *AuthorizationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Wrapped
}

// Is reports whether target is the error's Kind.
func (e *AuthorizationError) Is(target error) bool {
	if e == nil {
		return false
	}
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// ConvertError returns err as an *AuthorizationError. Errors which are not
// already an AuthorizationError are wrapped as KindGeneral. It returns nil
// when err is nil.
func ConvertError(err error) *AuthorizationError {
	if err == nil {
		return nil
	}
	var authErr *AuthorizationError
	if errors.As(err, &authErr) {
		return authErr
	}
	return NewAuthorizationError(KindGeneral, WithWrap(err))
}

// errOptions is the set of available options for AuthorizationError
type errOptions struct {
	withOp          string
	withErrMsg      string
	withErrWrapped  error
	withStatusCode  int
	withCode        string
	withDescription string
	withURI         string
}

func errDefaults() errOptions {
	return errOptions{}
}

func getErrOpts(opt ...Option) errOptions {
	opts := errDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithOp provides an optional operation for the error.
func WithOp(op string) Option {
	return func(o interface{}) {
		if o, ok := o.(*errOptions); ok {
			o.withOp = op
		}
	}
}

// WithMsg provides an optional message for the error.
func WithMsg(msg string) Option {
	return func(o interface{}) {
		if o, ok := o.(*errOptions); ok {
			o.withErrMsg = msg
		}
	}
}

// WithWrap provides an optional cause to wrap.
func WithWrap(e error) Option {
	return func(o interface{}) {
		if o, ok := o.(*errOptions); ok {
			o.withErrWrapped = e
		}
	}
}

// WithStatusCode provides an optional HTTP status for the error.
func WithStatusCode(status int) Option {
	return func(o interface{}) {
		if o, ok := o.(*errOptions); ok {
			o.withStatusCode = status
		}
	}
}

// WithOAuthError provides the provider's OAuth error, error_description and
// error_uri.
func WithOAuthError(code, description, uri string) Option {
	return func(o interface{}) {
		if o, ok := o.(*errOptions); ok {
			o.withCode = code
			o.withDescription = description
			o.withURI = uri
		}
	}
}
