// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthorizationError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	tests := []struct {
		name string
		kind Kind
		opt  []Option
		want *AuthorizationError
	}{
		{
			name: "all-options",
			kind: KindUnauthorized,
			opt: []Option{
				WithOp("alice.Bob"),
				WithWrap(cause),
				WithMsg("test msg"),
				WithStatusCode(http.StatusUnauthorized),
				WithOAuthError(CodeInvalidToken, "revoked", "https://example.com/err"),
			},
			want: &AuthorizationError{
				Kind:        KindUnauthorized,
				Op:          "alice.Bob",
				Wrapped:     cause,
				Msg:         "test msg",
				StatusCode:  http.StatusUnauthorized,
				Code:        CodeInvalidToken,
				Description: "revoked",
				URI:         "https://example.com/err",
			},
		},
		{
			name: "no-options",
			want: &AuthorizationError{
				Kind: KindGeneral,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			got := NewAuthorizationError(tt.kind, tt.opt...)
			assert.Equal(tt.want, got)
		})
	}
}

func TestAuthorizationError_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  *AuthorizationError
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "kind-only",
			err:  NewAuthorizationError(KindNetwork),
			want: "network error",
		},
		{
			name: "everything",
			err: NewAuthorizationError(
				KindOAuth,
				WithOp("TokenRequest.ExecuteRequest"),
				WithMsg("token request failed"),
				WithStatusCode(http.StatusBadRequest),
				WithOAuthError(CodeInvalidGrant, "unexpected code", ""),
				WithWrap(ErrInvalidParameter),
			),
			want: "TokenRequest.ExecuteRequest: token request failed: oauth error (status 400): invalid_grant: unexpected code: invalid parameter",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAuthorizationError_Is(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	err := NewAuthorizationError(KindUnauthorized, WithWrap(ErrResponseStateInvalid))
	wrapped := fmt.Errorf("outer: %w", err)

	assert.True(errors.Is(wrapped, KindUnauthorized))
	assert.False(errors.Is(wrapped, KindOAuth))
	assert.True(errors.Is(wrapped, ErrResponseStateInvalid))

	var nilErr *AuthorizationError
	assert.False(nilErr.Is(KindGeneral))
	assert.Nil(nilErr.Unwrap())
}

func TestKind_String(t *testing.T) {
	t.Parallel()
	tests := []struct {
		kind Kind
		want string
	}{
		{KindGeneral, "general error"},
		{KindConfiguration, "configuration error"},
		{KindNetwork, "network error"},
		{KindUnauthorized, "unauthorized"},
		{KindOAuth, "oauth error"},
		{KindMalformedResponse, "malformed response"},
		{Kind(42), "unknown kind (42)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
			assert.Equal(t, tt.want, tt.kind.Error())
		})
	}
}

func TestConvertError(t *testing.T) {
	t.Parallel()

	authErr := NewAuthorizationError(KindNetwork, WithMsg("timeout"))
	tests := []struct {
		name     string
		e        error
		wantNil  bool
		wantKind Kind
		wantSame bool
	}{
		{
			name:    "nil",
			e:       nil,
			wantNil: true,
		},
		{
			name:     "not-convertible",
			e:        errors.New("test error"),
			wantKind: KindGeneral,
		},
		{
			name:     "wrapped-authorization-error",
			e:        fmt.Errorf("outer: %w", authErr),
			wantKind: KindNetwork,
			wantSame: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got := ConvertError(tt.e)
			if tt.wantNil {
				assert.Nil(got)
				return
			}
			require.NotNil(got)
			assert.Equal(tt.wantKind, got.Kind)
			if tt.wantSame {
				assert.Same(authErr, got)
			}
		})
	}
}

func Test_getErrOpts(t *testing.T) {
	t.Parallel()
	t.Run("WithMsg", func(t *testing.T) {
		assert := assert.New(t)
		opts := getErrOpts()
		testOpts := errDefaults()
		assert.Equal(opts, testOpts)

		opts = getErrOpts(WithMsg("test msg"))
		testOpts.withErrMsg = "test msg"
		assert.Equal(opts, testOpts)
	})
	t.Run("WithWrap", func(t *testing.T) {
		assert := assert.New(t)
		e := NewAuthorizationError(KindGeneral, WithOp("t.Run(WithWrap"))
		opts := getErrOpts(WithWrap(e))
		testOpts := errDefaults()
		testOpts.withErrWrapped = e
		assert.Equal(opts, testOpts)
	})
	t.Run("WithOp", func(t *testing.T) {
		assert := assert.New(t)
		opts := getErrOpts(WithOp("alice.bob"))
		testOpts := errDefaults()
		testOpts.withOp = "alice.bob"
		assert.Equal(opts, testOpts)
	})
	t.Run("WithOAuthError", func(t *testing.T) {
		assert := assert.New(t)
		opts := getErrOpts(WithOAuthError("c", "d", "u"))
		testOpts := errDefaults()
		testOpts.withCode, testOpts.withDescription, testOpts.withURI = "c", "d", "u"
		assert.Equal(opts, testOpts)
	})
}
