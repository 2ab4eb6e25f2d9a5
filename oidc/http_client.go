// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
)

const (
	// DefaultConnectTimeout bounds dialing and the TLS handshake.
	DefaultConnectTimeout = 15 * time.Second

	// DefaultReadTimeout bounds waiting for and reading the response.
	DefaultReadTimeout = 10 * time.Second
)

// NewHTTPClient creates a new http client which will use the optional CA
// certificate PEM if provided, otherwise it will use the installed system CA
// chain.  The client enforces the connect and read timeouts; exceeding either
// surfaces as a transport error.
// Supported options: WithProviderCA, WithConnectTimeout, WithReadTimeout
func NewHTTPClient(opt ...Option) (*http.Client, error) {
	const op = "oidc.NewHTTPClient"
	opts := getHTTPClientOpts(opt...)
	if opts.withConnectTimeout <= 0 || opts.withReadTimeout <= 0 {
		return nil, fmt.Errorf("%s: timeouts must be greater than zero: %w", op, ErrInvalidParameter)
	}

	tr := cleanhttp.DefaultPooledTransport()
	tr.DialContext = (&net.Dialer{
		Timeout:   opts.withConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	tr.TLSHandshakeTimeout = opts.withConnectTimeout
	tr.ResponseHeaderTimeout = opts.withReadTimeout

	if opts.withProviderCA != "" {
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM([]byte(opts.withProviderCA)); !ok {
			return nil, fmt.Errorf("%s: could not parse CA PEM value successfully: %w", op, ErrInvalidCACert)
		}
		tr.TLSClientConfig = &tls.Config{
			RootCAs:    certPool,
			MinVersion: tls.VersionTLS12,
		}
	}

	return &http.Client{
		Transport: tr,
		Timeout:   opts.withConnectTimeout + opts.withReadTimeout,
	}, nil
}

// ClientContext is a helper function that returns a new Context that carries
// the provided HTTP client. This method sets the same context key used by the
// github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the returned
// context works for those packages as well.
func ClientContext(ctx context.Context, client *http.Client) context.Context {
	// simple to implement as a wrapper for the coreos package
	return gooidc.ClientContext(ctx, client)
}

// httpClientOptions is the set of available options for NewHTTPClient
type httpClientOptions struct {
	withProviderCA     string
	withConnectTimeout time.Duration
	withReadTimeout    time.Duration
}

func httpClientDefaults() httpClientOptions {
	return httpClientOptions{
		withConnectTimeout: DefaultConnectTimeout,
		withReadTimeout:    DefaultReadTimeout,
	}
}

func getHTTPClientOpts(opt ...Option) httpClientOptions {
	opts := httpClientDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithConnectTimeout provides an optional connect timeout for NewHTTPClient.
func WithConnectTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*httpClientOptions); ok {
			o.withConnectTimeout = d
		}
	}
}

// WithReadTimeout provides an optional read timeout for NewHTTPClient.
func WithReadTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*httpClientOptions); ok {
			o.withReadTimeout = d
		}
	}
}
