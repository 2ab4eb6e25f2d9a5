// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import "net/http"

// OAuth 2.0 and OIDC error codes returned in the "error" parameter.
// See: https://www.rfc-editor.org/rfc/rfc6749#section-5.2 and
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
const (
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidClient           = "invalid_client"
	CodeInvalidGrant            = "invalid_grant"
	CodeUnauthorizedClient      = "unauthorized_client"
	CodeUnsupportedGrantType    = "unsupported_grant_type"
	CodeInvalidScope            = "invalid_scope"
	CodeAccessDenied            = "access_denied"
	CodeUnsupportedResponseType = "unsupported_response_type"
	CodeServerError             = "server_error"
	CodeTemporarilyUnavailable  = "temporarily_unavailable"
	CodeUnsupportedTokenType    = "unsupported_token_type"
	CodeInvalidToken            = "invalid_token"
	CodeLoginRequired           = "login_required"
	CodeInteractionRequired     = "interaction_required"
	CodeConsentRequired         = "consent_required"
)

// ErrorMapper classifies a failed response into a Kind. Status mappings take
// precedence over OAuth code mappings. An OAuth code without a mapping is
// KindOAuth, and a response with neither is KindGeneral.
//
// An ErrorMapper is immutable and safe for concurrent use.
type ErrorMapper struct {
	statusKinds map[int]Kind
	codeKinds   map[string]Kind
}

// NewErrorMapper creates an ErrorMapper from the default mappings plus any
// overrides.
// Supported options: WithStatusKind, WithCodeKind
func NewErrorMapper(opt ...Option) *ErrorMapper {
	opts := getMapperOpts(opt...)
	m := &ErrorMapper{
		statusKinds: make(map[int]Kind, len(opts.withStatusKinds)),
		codeKinds:   make(map[string]Kind, len(opts.withCodeKinds)),
	}
	for s, k := range opts.withStatusKinds {
		m.statusKinds[s] = k
	}
	for c, k := range opts.withCodeKinds {
		m.codeKinds[c] = k
	}
	return m
}

// DefaultErrorMapper returns an ErrorMapper with only the default mappings.
func DefaultErrorMapper() *ErrorMapper {
	return NewErrorMapper()
}

// Classify returns the Kind for an HTTP status and an (optional) OAuth error
// code.
func (m *ErrorMapper) Classify(status int, code string) Kind {
	if m == nil {
		m = DefaultErrorMapper()
	}
	if k, ok := m.statusKinds[status]; ok {
		return k
	}
	if code == "" {
		return KindGeneral
	}
	if k, ok := m.codeKinds[code]; ok {
		return k
	}
	return KindOAuth
}

// mapperOptions is the set of available options for an ErrorMapper
type mapperOptions struct {
	withStatusKinds map[int]Kind
	withCodeKinds   map[string]Kind
}

func mapperDefaults() mapperOptions {
	return mapperOptions{
		withStatusKinds: map[int]Kind{
			http.StatusUnauthorized: KindUnauthorized,
		},
		withCodeKinds: map[string]Kind{
			CodeInvalidToken:            KindUnauthorized,
			CodeLoginRequired:           KindUnauthorized,
			CodeInvalidRequest:          KindOAuth,
			CodeInvalidClient:           KindOAuth,
			CodeInvalidGrant:            KindOAuth,
			CodeUnauthorizedClient:      KindOAuth,
			CodeUnsupportedGrantType:    KindOAuth,
			CodeInvalidScope:            KindOAuth,
			CodeAccessDenied:            KindOAuth,
			CodeUnsupportedResponseType: KindOAuth,
			CodeServerError:             KindOAuth,
			CodeTemporarilyUnavailable:  KindOAuth,
			CodeUnsupportedTokenType:    KindOAuth,
			CodeInteractionRequired:     KindOAuth,
			CodeConsentRequired:         KindOAuth,
		},
	}
}

func getMapperOpts(opt ...Option) mapperOptions {
	opts := mapperDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithStatusKind maps an HTTP status to a Kind, overriding any default
// mapping for that status.
func WithStatusKind(status int, k Kind) Option {
	return func(o interface{}) {
		if o, ok := o.(*mapperOptions); ok {
			o.withStatusKinds[status] = k
		}
	}
}

// WithCodeKind maps an OAuth error code to a Kind, overriding any default
// mapping for that code.
func WithCodeKind(code string, k Kind) Option {
	return func(o interface{}) {
		if o, ok := o.(*mapperOptions); ok {
			o.withCodeKinds[code] = k
		}
	}
}
