// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package request

import (
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oidcnative/jwt"
	"github.com/hashicorp/oidcnative/oidc"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
)

// clientOptions is the set of available options for a Client
type clientOptions struct {
	withHTTPClient      *http.Client
	withAccount         *oidc.Account
	withLogger          hclog.Logger
	withErrorMapper     *oidc.ErrorMapper
	withTracerProvider  trace.TracerProvider
	withNowFunc         func() time.Time
	withMaxResponseSize int64
}

func clientDefaults() clientOptions {
	return clientOptions{
		withLogger:          hclog.NewNullLogger(),
		withErrorMapper:     oidc.DefaultErrorMapper(),
		withNowFunc:         time.Now,
		withMaxResponseSize: DefaultMaxResponseSize,
	}
}

func getClientOpts(opt ...oidc.Option) clientOptions {
	opts := clientDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// requestOptions is the set of available options for the requests
type requestOptions struct {
	withState        string
	withNonce        string
	withScopes       []string
	withCodeVerifier *oidc.CodeVerifier
	withPrompt       string
	withLoginHint    string
	withUILocales    []language.Tag
	withTokenHint    string
	withClientAuth   oidc.ClientAuthentication
	withValidator    *jwt.Validator
	withExtraParams  url.Values
	withErrorMapper  *oidc.ErrorMapper
}

func requestDefaults() requestOptions {
	return requestOptions{}
}

func getRequestOpts(opt ...oidc.Option) requestOptions {
	opts := requestDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// WithHTTPClient provides the http client a Client sends requests with.
func WithHTTPClient(c *http.Client) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithAccount provides the account a Client is built for.  Without
// WithHTTPClient, the Client's HTTP client verifies the provider with the
// account's ProviderCA when it has one.
func WithAccount(a *oidc.Account) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withAccount = a
		}
	}
}

// WithLogger provides an optional logger for a Client.
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithErrorMapper provides the mapper failures are classified with.  For a
// Client it applies to every request; for a single request it overrides the
// Client's.
func WithErrorMapper(m *oidc.ErrorMapper) oidc.Option {
	return func(o interface{}) {
		if m == nil {
			return
		}
		switch v := o.(type) {
		case *clientOptions:
			v.withErrorMapper = m
		case *requestOptions:
			v.withErrorMapper = m
		}
	}
}

// WithTracerProvider provides the otel TracerProvider spans are created with.
// The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withTracerProvider = tp
		}
	}
}

// WithNow provides an optional func for determining what the current time it
// is.
func WithNow(now func() time.Time) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok && now != nil {
			o.withNowFunc = now
		}
	}
}

// WithMaxResponseSize bounds how much of a response body is read.  Larger
// responses are oidc.KindMalformedResponse.
func WithMaxResponseSize(n int64) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withMaxResponseSize = n
		}
	}
}

// WithState provides the state of an authorize request.  By default a
// random state is generated.
func WithState(state string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withState = state
		}
	}
}

// WithNonce provides the nonce of an authorize request, or the nonce the
// id_token of a token response must carry.
func WithNonce(nonce string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withNonce = nonce
		}
	}
}

// WithScopes overrides the scopes of the account for one request.  The
// "openid" scope is always included for authorize requests.
func WithScopes(scopes ...string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithCodeVerifier provides the PKCE verifier of an authorize request.  By
// default a new verifier is generated.
func WithCodeVerifier(v *oidc.CodeVerifier) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withCodeVerifier = v
		}
	}
}

// WithPrompt provides the prompt parameter of an authorize request.
// Native authorize requests default to PromptNone.
func WithPrompt(prompt string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withPrompt = prompt
		}
	}
}

// WithLoginHint provides the login_hint parameter of an authorize request.
func WithLoginHint(hint string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withLoginHint = hint
		}
	}
}

// WithUILocales provides the ui_locales parameter of an authorize request,
// in order of preference.
func WithUILocales(locales ...language.Tag) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withUILocales = locales
		}
	}
}

// WithTokenTypeHint provides the token_type_hint of a revoke or introspect
// request.
func WithTokenTypeHint(hint string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withTokenHint = hint
		}
	}
}

// WithClientAuthentication provides how the client authenticates to the
// token, revocation and introspection endpoints.  Defaults to
// oidc.PublicClient.
func WithClientAuthentication(a oidc.ClientAuthentication) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withClientAuth = a
		}
	}
}

// WithIDTokenValidator verifies the id_token of a token response.  Without
// it the id_token is returned unverified.
func WithIDTokenValidator(v *jwt.Validator) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withValidator = v
		}
	}
}

// WithExtraParams adds provider specific parameters to the query of an
// authorize request or the form of a token, revoke or introspect request.
// They never replace the parameters the request sets itself.
func WithExtraParams(params map[string]string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			if o.withExtraParams == nil {
				o.withExtraParams = url.Values{}
			}
			for k, v := range params {
				o.withExtraParams.Set(k, v)
			}
		}
	}
}

// Prompts of an authorize request.
const (
	PromptNone          = "none"
	PromptLogin         = "login"
	PromptConsent       = "consent"
	PromptSelectAccount = "select_account"
)

// Token type hints of a revoke or introspect request.
const (
	TokenTypeHintAccessToken  = "access_token"
	TokenTypeHintRefreshToken = "refresh_token"
	TokenTypeHintIDToken      = "id_token"
	TokenTypeHintDeviceSecret = "device_secret"
)
