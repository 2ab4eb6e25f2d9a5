// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// native_cli signs in with an Okta style session token, without a browser,
// and then exercises the rest of the requests against the same provider.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oidcnative/jwt"
	"github.com/hashicorp/oidcnative/oidc"
	"github.com/hashicorp/oidcnative/oidc/callback"
	"github.com/hashicorp/oidcnative/oidc/dispatch"
	"github.com/hashicorp/oidcnative/oidc/request"
	"github.com/hashicorp/oidcnative/oidc/response"
)

// config is read from the environment.
type config struct {
	ClientID     string        `env:"OIDC_CLIENT_ID,required"`
	Issuer       string        `env:"OIDC_ISSUER,required"`
	RedirectURI  string        `env:"OIDC_REDIRECT_URI,required"`
	SessionToken string        `env:"OIDC_SESSION_TOKEN,required"`
	Scopes       []string      `env:"OIDC_SCOPES" envSeparator:"," envDefault:"profile,email,offline_access"`
	ProviderCA   string        `env:"OIDC_PROVIDER_CA_FILE,file"`
	Workers      int           `env:"OIDC_WORKERS" envDefault:"2"`
	Timeout      time.Duration `env:"OIDC_TIMEOUT" envDefault:"1m"`
}

func main() {
	debug := flag.Bool("debug", false, "log requests at debug level")
	revoke := flag.Bool("revoke", false, "revoke the refresh token when done")
	flag.Parse()

	level := hclog.Info
	if *debug {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{Name: "native-cli", Level: level})

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := run(ctx, logger, cfg, *revoke); err != nil {
		var authErr *oidc.AuthorizationError
		if errors.As(err, &authErr) {
			logger.Error("request failed", "kind", authErr.Kind, "op", authErr.Op, "status", authErr.StatusCode, "code", authErr.Code)
		}
		fmt.Fprintf(os.Stderr, "%s\n\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger hclog.Logger, cfg config, revoke bool) error {
	const op = "run"
	accountOpts := []oidc.Option{oidc.WithScopes(cfg.Scopes...)}
	if cfg.ProviderCA != "" {
		accountOpts = append(accountOpts, oidc.WithProviderCA(cfg.ProviderCA))
	}
	account, err := oidc.NewAccount(cfg.ClientID, cfg.RedirectURI, cfg.Issuer, accountOpts...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	client, err := request.NewClient(request.WithAccount(account), request.WithLogger(logger.Named("request")))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	cfgReq, err := request.NewConfigurationRequest(client, account)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	pc, err := cfgReq.ExecuteRequest(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("discovered provider", "issuer", pc.Issuer)

	ks, err := jwt.NewJSONWebKeySet(ctx, pc.JWKSURI, account.ProviderCA(), jwt.WithHTTPClient(client.HTTPClient()))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	validator, err := jwt.NewValidator(ks)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	authReq, err := request.NewNativeAuthorizeRequest(client, account, cfg.SessionToken, pc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	authz, err := authReq.ExecuteRequest(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tokenReq, err := authReq.TokenRequest(authz, request.WithIDTokenValidator(validator))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tk, err := tokenReq.ExecuteRequest(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	printJSON("id_token claims", tk.Claims)

	// The rest of the requests are dispatched concurrently.
	pool, err := dispatch.NewPool(cfg.Workers, dispatch.WithLogger(logger.Named("pool")))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer pool.ShutdownNow()
	d, err := dispatch.NewDispatcher(pool, dispatch.WithLogger(logger.Named("dispatch")))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	uiReq, err := request.NewUserInfoRequest(client, pc, tk.AccessToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	userInfo := callback.NewChannel[*response.UserInfo]()
	if err := uiReq.DispatchRequest(ctx, d, userInfo); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	refreshed := callback.NewChannel[*response.Token]()
	if tk.RefreshToken != "" {
		refreshReq, err := request.NewRefreshTokenRequest(client, account, pc, tk.RefreshToken, request.WithIDTokenValidator(validator))
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := refreshReq.DispatchRequest(ctx, d, refreshed); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	info, err := userInfo.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var claims map[string]interface{}
	if err := info.Claims(&claims); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	printJSON("userinfo", claims)

	if tk.RefreshToken == "" {
		logger.Info("no refresh token was issued; request the offline_access scope")
		return nil
	}
	next, err := refreshed.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("refreshed tokens", "expiry", next.Expiry, "scopes", next.Scopes())

	if !revoke {
		return nil
	}
	rt := next.RefreshToken
	if rt == "" {
		rt = tk.RefreshToken
	}
	revokeReq, err := request.NewRevokeRequest(client, account, pc, string(rt), request.WithTokenTypeHint(request.TokenTypeHintRefreshToken))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	revoked := make(chan error, 1)
	err = revokeReq.DispatchRequest(ctx, d, callback.Funcs[*response.Revoke]{
		Success: func(*response.Revoke) { revoked <- nil },
		Error:   func(err *oidc.AuthorizationError) { revoked <- err },
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	pool.Shutdown()
	if err := pool.AwaitTermination(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := <-revoked; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("revoked refresh token")
	return nil
}

func printJSON(title string, v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", title, err)
		return
	}
	fmt.Printf("%s:\n%s\n", title, b)
}
