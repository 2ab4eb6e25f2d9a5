// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package request

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oidcnative/oidc"
	"github.com/hashicorp/oidcnative/oidc/callback"
	"github.com/hashicorp/oidcnative/oidc/dispatch"
	"github.com/hashicorp/oidcnative/oidc/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type testEnv struct {
	tp      *oidc.TestEndpoint
	client  *Client
	account *oidc.Account
	config  *oidc.ProviderConfiguration
}

func newTestEnv(t *testing.T, opt ...oidc.Option) *testEnv {
	t.Helper()
	require := require.New(t)
	tp := oidc.StartTestEndpoint(t)

	hc, err := oidc.NewHTTPClient(append([]oidc.Option{oidc.WithProviderCA(tp.CACert())}, opt...)...)
	require.NoError(err)
	c, err := NewClient(
		WithHTTPClient(hc),
		WithLogger(hclog.New(&hclog.LoggerOptions{Name: t.Name(), Level: hclog.Debug})),
		WithTracerProvider(noop.NewTracerProvider()),
	)
	require.NoError(err)
	a, err := oidc.NewAccount("test-client-id", "com.example.app:/callback", tp.Issuer(), oidc.WithScopes("profile", "offline_access"))
	require.NoError(err)
	return &testEnv{
		tp:      tp,
		client:  c,
		account: a,
		config:  tp.ProviderConfiguration(),
	}
}

func requireKind(t *testing.T, err error, k oidc.Kind) *oidc.AuthorizationError {
	t.Helper()
	require.Error(t, err)
	var authErr *oidc.AuthorizationError
	require.True(t, errors.As(err, &authErr), "not an AuthorizationError: %T %v", err, err)
	require.Equalf(t, k, authErr.Kind, "wrong kind: %v", err)
	assert.ErrorIs(t, err, k)
	return authErr
}

func newDispatcher(t *testing.T) (*dispatch.Dispatcher, *dispatch.Pool) {
	t.Helper()
	require := require.New(t)
	pool, err := dispatch.NewPool(4)
	require.NoError(err)
	t.Cleanup(func() { pool.ShutdownNow() })
	d, err := dispatch.NewDispatcher(pool)
	require.NoError(err)
	return d, pool
}

func TestNewClient(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	c, err := NewClient()
	require.NoError(err)
	assert.NotNil(c.httpClient)
	assert.Same(c.httpClient, c.HTTPClient())
	assert.NotNil(c.ErrorMapper())
	assert.Equal(int64(DefaultMaxResponseSize), c.maxBody)

	_, err = NewClient(WithMaxResponseSize(0))
	require.Error(err)
	assert.ErrorIs(err, oidc.ErrInvalidParameter)

	m := oidc.NewErrorMapper(oidc.WithStatusKind(http.StatusTeapot, oidc.KindNetwork))
	c, err = NewClient(WithErrorMapper(m), WithErrorMapper(nil))
	require.NoError(err)
	assert.Same(m, c.ErrorMapper())
}

func TestNewClient_WithAccount(t *testing.T) {
	t.Parallel()
	tp := oidc.StartTestEndpoint(t)
	tests := []struct {
		name     string
		caPEM    string
		wantErr  bool
		wantKind oidc.Kind
	}{
		{name: "trusts-account-ca", caPEM: tp.CACert()},
		{name: "system-roots", wantErr: true, wantKind: oidc.KindNetwork},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			var accountOpts []oidc.Option
			if tt.caPEM != "" {
				accountOpts = append(accountOpts, oidc.WithProviderCA(tt.caPEM))
			}
			a, err := oidc.NewAccount("test-client-id", "com.example.app:/callback", tp.Issuer(), accountOpts...)
			require.NoError(err)
			c, err := NewClient(WithAccount(a), WithTracerProvider(noop.NewTracerProvider()))
			require.NoError(err)

			r, err := NewConfigurationRequest(c, a)
			require.NoError(err)
			cfg, err := r.ExecuteRequest(context.Background())
			if tt.wantErr {
				assert.Nil(cfg)
				requireKind(t, err, tt.wantKind)
				return
			}
			require.NoError(err)
			assert.Equal(tp.Issuer(), cfg.Issuer)
		})
	}
}

// The provider redirects with the code ABC123 and echoes the state xyz, and
// both execution paths must produce the same result.
func TestNativeAuthorize_ExecuteAndDispatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("execute", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		env := newTestEnv(t)
		env.tp.EnqueueNativeAuthorizeSuccess("ABC123", "xyz")

		r, err := NewNativeAuthorizeRequest(env.client, env.account, "session-token", env.config, WithState("xyz"))
		require.NoError(err)
		authz, err := r.ExecuteRequest(ctx)
		require.NoError(err)
		assert.Equal("ABC123", authz.Code)
		assert.Equal("xyz", authz.State)
		assert.Equal(1, env.tp.RequestCount())
	})
	t.Run("dispatch", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		env := newTestEnv(t)
		env.tp.EnqueueNativeAuthorizeSuccess("ABC123", "xyz")
		d, _ := newDispatcher(t)

		r, err := NewNativeAuthorizeRequest(env.client, env.account, "session-token", env.config, WithState("xyz"))
		require.NoError(err)
		cb := callback.NewChannel[*response.Authorize]()
		require.NoError(r.DispatchRequest(ctx, d, cb))

		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		authz, err := cb.Wait(waitCtx)
		require.NoError(err)
		assert.Equal("ABC123", authz.Code)
		assert.Equal("xyz", authz.State)
	})
}

func TestUnauthorizedRevoked_ExecuteAndDispatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	check := func(t *testing.T, err error) {
		authErr := requireKind(t, err, oidc.KindUnauthorized)
		assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
		assert.Equal(t, oidc.CodeInvalidToken, authErr.Code)
		assert.NotEmpty(t, authErr.Description)
	}

	t.Run("execute", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.tp.EnqueueUnauthorizedRevoked()
		r, err := NewNativeAuthorizeRequest(env.client, env.account, "revoked", env.config)
		require.NoError(t, err)
		_, err = r.ExecuteRequest(ctx)
		check(t, err)
	})
	t.Run("dispatch", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.tp.EnqueueUnauthorizedRevoked()
		d, _ := newDispatcher(t)
		r, err := NewNativeAuthorizeRequest(env.client, env.account, "revoked", env.config)
		require.NoError(t, err)

		var successes atomic.Int32
		errCh := make(chan *oidc.AuthorizationError, 1)
		cb := callback.Funcs[*response.Authorize]{
			Success: func(*response.Authorize) { successes.Add(1) },
			Error:   func(err *oidc.AuthorizationError) { errCh <- err },
		}
		require.NoError(t, r.DispatchRequest(ctx, d, cb))
		select {
		case err := <-errCh:
			check(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("callback was not invoked")
		}
		assert.Zero(t, successes.Load())
	})
}

func TestDispatchRequest_Concurrent(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	d, pool := newDispatcher(t)

	const n = 20
	for i := 0; i < n; i++ {
		env.tp.EnqueueRevokeSuccess()
	}

	var wg sync.WaitGroup
	var successes, failures atomic.Int32
	wg.Add(n)
	for i := 0; i < n; i++ {
		r, err := NewRevokeRequest(env.client, env.account, env.config, "test-refresh-token", WithTokenTypeHint(TokenTypeHintRefreshToken))
		require.NoError(err)
		cb := callback.Funcs[*response.Revoke]{
			Success: func(*response.Revoke) { successes.Add(1); wg.Done() },
			Error:   func(*oidc.AuthorizationError) { failures.Add(1); wg.Done() },
		}
		require.NoError(r.DispatchRequest(ctx, d, cb))
	}
	wg.Wait()

	pool.Shutdown()
	awaitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(pool.AwaitTermination(awaitCtx))

	assert.Equal(int32(n), successes.Load())
	assert.Zero(failures.Load())
	assert.Equal(n, env.tp.RequestCount())
}

func TestDispatchRequest_Rejected(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	env := newTestEnv(t)
	d, pool := newDispatcher(t)
	pool.Shutdown()

	r, err := NewConfigurationRequest(env.client, env.account)
	require.NoError(err)
	var calls atomic.Int32
	cb := callback.Funcs[*oidc.ProviderConfiguration]{
		Success: func(*oidc.ProviderConfiguration) { calls.Add(1) },
		Error:   func(*oidc.AuthorizationError) { calls.Add(1) },
	}
	err = r.DispatchRequest(context.Background(), d, cb)
	require.Error(err)
	assert.ErrorIs(err, dispatch.ErrRejected)
	assert.Zero(calls.Load())
	assert.Zero(env.tp.RequestCount())

	err = r.DispatchRequest(context.Background(), nil, cb)
	require.Error(err)
	assert.ErrorIs(err, oidc.ErrNilParameter)
}

func TestExecuteRequest_Failures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("malformed-success", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.tp.Enqueue(oidc.TestResponse{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       `{"token_type": "Bearer"`,
		})
		r, err := NewRefreshTokenRequest(env.client, env.account, env.config, "test-refresh-token")
		require.NoError(t, err)
		_, err = r.ExecuteRequest(ctx)
		authErr := requireKind(t, err, oidc.KindMalformedResponse)
		assert.Equal(t, http.StatusOK, authErr.StatusCode)
	})
	t.Run("missing-required-field", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.tp.EnqueueJSON(http.StatusOK, map[string]interface{}{"token_type": "Bearer"})
		r, err := NewRefreshTokenRequest(env.client, env.account, env.config, "test-refresh-token")
		require.NoError(t, err)
		_, err = r.ExecuteRequest(ctx)
		requireKind(t, err, oidc.KindMalformedResponse)
		assert.ErrorIs(t, err, oidc.ErrMissingRequiredField)
	})
	t.Run("oauth-error", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.tp.EnqueueOAuthError(http.StatusBadRequest, oidc.CodeInvalidGrant, "The refresh token is invalid or expired.")
		r, err := NewRefreshTokenRequest(env.client, env.account, env.config, "expired")
		require.NoError(t, err)
		_, err = r.ExecuteRequest(ctx)
		authErr := requireKind(t, err, oidc.KindOAuth)
		assert.Equal(t, oidc.CodeInvalidGrant, authErr.Code)
	})
	t.Run("unknown-oauth-code", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.tp.EnqueueOAuthError(http.StatusBadRequest, "mfa_required", "")
		r, err := NewRefreshTokenRequest(env.client, env.account, env.config, "refresh")
		require.NoError(t, err)
		_, err = r.ExecuteRequest(ctx)
		authErr := requireKind(t, err, oidc.KindOAuth)
		assert.Equal(t, "mfa_required", authErr.Code)
	})
	t.Run("server-error", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.tp.Enqueue(oidc.TestResponse{StatusCode: http.StatusBadGateway, Body: "<html>bad gateway</html>"})
		r, err := NewConfigurationRequest(env.client, env.account)
		require.NoError(t, err)
		_, err = r.ExecuteRequest(ctx)
		authErr := requireKind(t, err, oidc.KindGeneral)
		assert.Equal(t, http.StatusBadGateway, authErr.StatusCode)
	})
	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, oidc.WithReadTimeout(50*time.Millisecond))
		env.tp.Enqueue(oidc.TestResponse{StatusCode: http.StatusOK, Delay: 2 * time.Second})
		r, err := NewRevokeRequest(env.client, env.account, env.config, "token")
		require.NoError(t, err)
		_, err = r.ExecuteRequest(ctx)
		authErr := requireKind(t, err, oidc.KindNetwork)
		assert.Zero(t, authErr.StatusCode)
	})
	t.Run("connection-refused", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.tp.Stop()
		r, err := NewConfigurationRequest(env.client, env.account)
		require.NoError(t, err)
		_, err = r.ExecuteRequest(ctx)
		requireKind(t, err, oidc.KindNetwork)
	})
	t.Run("canceled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		r, err := NewConfigurationRequest(env.client, env.account)
		require.NoError(t, err)
		_, err = r.ExecuteRequest(cancelCtx)
		requireKind(t, err, oidc.KindNetwork)
		assert.ErrorIs(t, err, context.Canceled)
	})
	t.Run("response-too-large", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		tp := oidc.StartTestEndpoint(t)
		hc, err := oidc.NewHTTPClient(oidc.WithProviderCA(tp.CACert()))
		require.NoError(err)
		c, err := NewClient(WithHTTPClient(hc), WithMaxResponseSize(16))
		require.NoError(err)
		a, err := oidc.NewAccount("test-client-id", "com.example.app:/callback", tp.Issuer())
		require.NoError(err)
		tp.EnqueueConfiguration()
		r, err := NewConfigurationRequest(c, a)
		require.NoError(err)
		_, err = r.ExecuteRequest(ctx)
		requireKind(t, err, oidc.KindMalformedResponse)
	})
	t.Run("custom-mapper", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.tp.EnqueueOAuthError(http.StatusBadRequest, "mfa_required", "")
		m := oidc.NewErrorMapper(oidc.WithCodeKind("mfa_required", oidc.KindUnauthorized))
		r, err := NewRefreshTokenRequest(env.client, env.account, env.config, "refresh", WithErrorMapper(m))
		require.NoError(t, err)
		_, err = r.ExecuteRequest(ctx)
		requireKind(t, err, oidc.KindUnauthorized)
	})
}

func TestConfigurationErrors_BeforeIO(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	noEndpoints := &oidc.ProviderConfiguration{Issuer: env.config.Issuer}
	authz := &response.Authorize{Code: "ABC123"}
	v, err := oidc.NewCodeVerifier()
	require.NoError(t, err)

	tests := []struct {
		name  string
		build func() error
	}{
		{"configuration-nil-client", func() error { _, err := NewConfigurationRequest(nil, env.account); return err }},
		{"configuration-nil-account", func() error { _, err := NewConfigurationRequest(env.client, nil); return err }},
		{"native-missing-session-token", func() error {
			_, err := NewNativeAuthorizeRequest(env.client, env.account, "", env.config)
			return err
		}},
		{"native-nil-config", func() error {
			_, err := NewNativeAuthorizeRequest(env.client, env.account, "session", nil)
			return err
		}},
		{"native-missing-endpoint", func() error {
			_, err := NewNativeAuthorizeRequest(env.client, env.account, "session", noEndpoints)
			return err
		}},
		{"browser-missing-endpoint", func() error {
			_, err := NewBrowserAuthorizeRequest(env.account, noEndpoints)
			return err
		}},
		{"token-nil-authorization", func() error {
			_, err := NewTokenRequest(env.client, env.account, env.config, nil, v)
			return err
		}},
		{"token-missing-code", func() error {
			_, err := NewTokenRequest(env.client, env.account, env.config, &response.Authorize{}, v)
			return err
		}},
		{"token-nil-verifier", func() error {
			_, err := NewTokenRequest(env.client, env.account, env.config, authz, nil)
			return err
		}},
		{"token-missing-endpoint", func() error {
			_, err := NewTokenRequest(env.client, env.account, noEndpoints, authz, v)
			return err
		}},
		{"refresh-missing-token", func() error {
			_, err := NewRefreshTokenRequest(env.client, env.account, env.config, "")
			return err
		}},
		{"revoke-missing-token", func() error {
			_, err := NewRevokeRequest(env.client, env.account, env.config, "")
			return err
		}},
		{"revoke-missing-endpoint", func() error {
			_, err := NewRevokeRequest(env.client, env.account, noEndpoints, "token")
			return err
		}},
		{"introspect-missing-endpoint", func() error {
			_, err := NewIntrospectRequest(env.client, env.account, noEndpoints, "token")
			return err
		}},
		{"userinfo-missing-token", func() error {
			_, err := NewUserInfoRequest(env.client, env.config, "")
			return err
		}},
		{"userinfo-missing-endpoint", func() error {
			_, err := NewUserInfoRequest(env.client, noEndpoints, "access")
			return err
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			requireKind(t, tt.build(), oidc.KindConfiguration)
		})
	}
	assert.Zero(t, env.tp.RequestCount())
}
