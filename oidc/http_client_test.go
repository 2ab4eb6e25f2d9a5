// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()
	tp := StartTestEndpoint(t)

	tests := []struct {
		name        string
		opts        []Option
		wantTimeout time.Duration
		wantErr     bool
		wantIsErr   error
	}{
		{
			name:        "defaults",
			wantTimeout: DefaultConnectTimeout + DefaultReadTimeout,
		},
		{
			name:        "with-ca-and-timeouts",
			opts:        []Option{WithProviderCA(tp.CACert()), WithConnectTimeout(time.Second), WithReadTimeout(2 * time.Second)},
			wantTimeout: 3 * time.Second,
		},
		{
			name:      "bad-ca",
			opts:      []Option{WithProviderCA("not-a-pem")},
			wantErr:   true,
			wantIsErr: ErrInvalidCACert,
		},
		{
			name:      "zero-timeout",
			opts:      []Option{WithReadTimeout(0)},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := NewHTTPClient(tt.opts...)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			assert.Equal(tt.wantTimeout, got.Timeout)
			_, ok := got.Transport.(*http.Transport)
			assert.True(ok)
		})
	}

	t.Run("trusts-provider-ca", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewHTTPClient(WithProviderCA(tp.CACert()))
		require.NoError(err)
		resp, err := c.Get(tp.Issuer() + WellKnownConfiguration)
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusOK, resp.StatusCode)
	})
	t.Run("rejects-unknown-ca", func(t *testing.T) {
		c, err := NewHTTPClient()
		require.NoError(t, err)
		_, err = c.Get(tp.Issuer() + WellKnownConfiguration)
		assert.Error(t, err)
	})
}

func TestClientContext(t *testing.T) {
	t.Parallel()
	c := &http.Client{}
	ctx := ClientContext(context.Background(), c)
	got, ok := ctx.Value(oauth2.HTTPClient).(*http.Client)
	require.True(t, ok)
	assert.Same(t, c, got)
}
