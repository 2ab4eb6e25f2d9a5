// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"
)

// TestResponse is a canned response served by a TestEndpoint.
type TestResponse struct {
	StatusCode int
	Header     http.Header
	Body       string

	// Delay holds the response back; the wait ends early if the client goes
	// away.
	Delay time.Duration
}

// RecordedRequest is a request received by a TestEndpoint.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	Header http.Header
}

// TestEndpoint is a local TLS server which plays the part of an oidc provider
// in tests.  Responses are enqueued and served in FIFO order, one per request,
// and every request is recorded.  The JWKS endpoint is always served from the
// endpoint's signing key and does not consume the queue, and the discovery
// document is served when the queue is empty.
type TestEndpoint struct {
	httpServer *httptest.Server
	caCert     string

	jwks *jose.JSONWebKeySet

	mu          sync.Mutex
	queue       []TestResponse
	requests    []RecordedRequest
	clientID    string
	redirectURI string
	subject     string

	ecdsaPublicKey  string
	ecdsaPrivateKey string

	t *testing.T
}

const (
	testIssuerPath   = "/oauth2/default"
	testJWKSPath     = testIssuerPath + "/v1/keys"
	testDiscoverPath = testIssuerPath + WellKnownConfiguration
)

// StartTestEndpoint creates a disposable TestEndpoint which is stopped when
// the test completes.
func StartTestEndpoint(t *testing.T) *TestEndpoint {
	t.Helper()
	p := &TestEndpoint{
		clientID:    "test-client-id",
		redirectURI: "com.example.app:/callback",
		subject:     "00u1a2b3c4d5e6f7g8h9",
		t:           t,
	}
	p.ecdsaPublicKey, p.ecdsaPrivateKey = TestGenerateKeys(t)
	p.jwks = testJWKS(t, p.ecdsaPublicKey)

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.Stop)

	p.caCert = testPEM("CERTIFICATE", p.httpServer.Certificate().Raw)

	return p
}

// Stop stops the running TestEndpoint.  It's safe to call more than once.
func (p *TestEndpoint) Stop() {
	p.httpServer.Close()
}

// Addr returns the base URL of the running TLS server.
func (p *TestEndpoint) Addr() string { return p.httpServer.URL }

// Issuer returns the issuer, which is also the account discovery URI.
func (p *TestEndpoint) Issuer() string { return p.Addr() + testIssuerPath }

// CACert returns the pem-encoded CA certificate used by the TLS server.
func (p *TestEndpoint) CACert() string { return p.caCert }

// SigningKeys returns the pem-encoded keys used to sign id_tokens.
func (p *TestEndpoint) SigningKeys() (pub, priv string) {
	return p.ecdsaPublicKey, p.ecdsaPrivateKey
}

// SetClientID configures the audience of issued id_tokens.
func (p *TestEndpoint) SetClientID(clientID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
}

// SetRedirectURI configures the redirect URI used in authorize responses.
func (p *TestEndpoint) SetRedirectURI(uri string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.redirectURI = uri
}

// ProviderConfiguration returns the endpoint's provider configuration.
func (p *TestEndpoint) ProviderConfiguration() *ProviderConfiguration {
	base := p.Issuer() + "/v1"
	return &ProviderConfiguration{
		Issuer:                           p.Issuer(),
		AuthorizationEndpoint:            base + "/authorize",
		TokenEndpoint:                    base + "/token",
		UserInfoEndpoint:                 base + "/userinfo",
		JWKSURI:                          p.Addr() + testJWKSPath,
		RevocationEndpoint:               base + "/revoke",
		IntrospectionEndpoint:            base + "/introspect",
		EndSessionEndpoint:               base + "/logout",
		ScopesSupported:                  []string{ScopeOpenID, "profile", "email", "offline_access"},
		ResponseTypesSupported:           []string{"code"},
		GrantTypesSupported:              []string{"authorization_code", "refresh_token"},
		SubjectTypesSupported:            []string{"public"},
		IDTokenSigningAlgValuesSupported: []string{"ES256"},
		CodeChallengeMethodsSupported:    []string{string(S256)},
	}
}

// Enqueue adds a canned response.
func (p *TestEndpoint) Enqueue(r TestResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, r)
}

// EnqueueJSON adds a canned JSON response.
func (p *TestEndpoint) EnqueueJSON(status int, body interface{}) {
	p.t.Helper()
	b, err := json.Marshal(body)
	require.NoError(p.t, err)
	p.Enqueue(TestResponse{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       string(b),
	})
}

// EnqueueNativeAuthorizeSuccess adds the redirect a provider sends after a
// successful session token authorization.
func (p *TestEndpoint) EnqueueNativeAuthorizeSuccess(code, state string) {
	p.mu.Lock()
	redirectURI := p.redirectURI
	p.mu.Unlock()
	q := url.Values{}
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	p.Enqueue(TestResponse{
		StatusCode: http.StatusFound,
		Header:     http.Header{"Location": {redirectURI + "?" + q.Encode()}},
	})
}

// EnqueueAuthorizeError adds the redirect a provider sends when an
// authorization fails.
func (p *TestEndpoint) EnqueueAuthorizeError(state, errorCode, errorMessage string) {
	p.mu.Lock()
	redirectURI := p.redirectURI
	p.mu.Unlock()
	q := url.Values{}
	q.Set("error", errorCode)
	if errorMessage != "" {
		q.Set("error_description", errorMessage)
	}
	if state != "" {
		q.Set("state", state)
	}
	p.Enqueue(TestResponse{
		StatusCode: http.StatusFound,
		Header:     http.Header{"Location": {redirectURI + "?" + q.Encode()}},
	})
}

// EnqueueUnauthorizedRevoked adds a 401 for a revoked session or token.
func (p *TestEndpoint) EnqueueUnauthorizedRevoked() {
	p.EnqueueOAuthError(http.StatusUnauthorized, CodeInvalidToken, "The session token is invalid or has been revoked.")
}

// EnqueueOAuthError adds an OAuth error response.
func (p *TestEndpoint) EnqueueOAuthError(status int, errorCode, errorMessage string) {
	p.t.Helper()
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}
	p.EnqueueJSON(status, &body)
}

// EnqueueTokenSuccess adds a token response with an access_token,
// refresh_token and an id_token signed by the endpoint for the nonce.
func (p *TestEndpoint) EnqueueTokenSuccess(nonce string) {
	p.t.Helper()
	p.EnqueueJSON(http.StatusOK, map[string]interface{}{
		"access_token":  "test-access-token",
		"token_type":    "Bearer",
		"expires_in":    3600,
		"scope":         "openid profile offline_access",
		"refresh_token": "test-refresh-token",
		"id_token":      p.SignIDToken(nonce, 5*time.Minute),
	})
}

// SignIDToken returns an id_token for the configured client, signed by the
// endpoint and expiring after expireIn.
func (p *TestEndpoint) SignIDToken(nonce string, expireIn time.Duration) string {
	p.t.Helper()
	p.mu.Lock()
	clientID, subject := p.clientID, p.subject
	p.mu.Unlock()
	now := time.Now()
	claims := jwt.Claims{
		Subject:   subject,
		Issuer:    p.Issuer(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
		Expiry:    jwt.NewNumericDate(now.Add(expireIn)),
		Audience:  jwt.Audience{clientID},
	}
	return TestSignJWT(p.t, p.ecdsaPrivateKey, claims, map[string]interface{}{"nonce": nonce})
}

// EnqueueConfiguration adds the endpoint's discovery document.
func (p *TestEndpoint) EnqueueConfiguration() {
	p.t.Helper()
	p.EnqueueJSON(http.StatusOK, p.ProviderConfiguration())
}

// EnqueueRevokeSuccess adds an empty 200 as sent by a revocation endpoint.
func (p *TestEndpoint) EnqueueRevokeSuccess() {
	p.Enqueue(TestResponse{StatusCode: http.StatusOK})
}

// EnqueueIntrospect adds an introspection response.
func (p *TestEndpoint) EnqueueIntrospect(active bool) {
	p.t.Helper()
	body := map[string]interface{}{"active": active}
	if active {
		p.mu.Lock()
		body["client_id"], body["sub"] = p.clientID, p.subject
		p.mu.Unlock()
		body["token_type"] = "Bearer"
		body["scope"] = "openid profile"
		body["exp"] = time.Now().Add(time.Hour).Unix()
	}
	p.EnqueueJSON(http.StatusOK, body)
}

// EnqueueUserInfo adds a userinfo response with the endpoint's subject plus
// the claims provided.
func (p *TestEndpoint) EnqueueUserInfo(claims map[string]interface{}) {
	p.t.Helper()
	body := map[string]interface{}{}
	for k, v := range claims {
		body[k] = v
	}
	p.mu.Lock()
	body["sub"] = p.subject
	p.mu.Unlock()
	p.EnqueueJSON(http.StatusOK, body)
}

// TakeRequest removes and returns the oldest recorded request.
func (p *TestEndpoint) TakeRequest() (RecordedRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return RecordedRequest{}, false
	}
	r := p.requests[0]
	p.requests = p.requests[1:]
	return r, true
}

// RequestCount returns the number of recorded requests which have not been
// taken.
func (p *TestEndpoint) RequestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *TestEndpoint) writeJSON(w http.ResponseWriter, out interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

// ServeHTTP implements the test endpoint's http.Handler.
func (p *TestEndpoint) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path == testJWKSPath {
		w.Header().Set("Content-Type", "application/json")
		_ = p.writeJSON(w, p.jwks)
		return
	}

	_ = req.ParseForm()
	rec := RecordedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
		Form:   req.PostForm,
		Header: req.Header.Clone(),
	}

	p.mu.Lock()
	p.requests = append(p.requests, rec)
	var next *TestResponse
	if len(p.queue) > 0 {
		next = &p.queue[0]
		p.queue = p.queue[1:]
	}
	p.mu.Unlock()

	if next == nil {
		if req.URL.Path == testDiscoverPath && req.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_ = p.writeJSON(w, p.ProviderConfiguration())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprintf(w, `{"error":%q,"error_description":"no response enqueued for %s"}`, CodeInvalidRequest, req.URL.Path)
		return
	}

	if next.Delay > 0 {
		select {
		case <-time.After(next.Delay):
		case <-req.Context().Done():
			return
		}
	}
	for k, vs := range next.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := next.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, next.Body)
}

// testJWKS converts a pem-encoded public key into JWKS data suitable for a
// verification endpoint response
func testJWKS(t *testing.T, pubKey string) *jose.JSONWebKeySet {
	t.Helper()
	require := require.New(t)

	block, _ := pem.Decode([]byte(pubKey))
	require.NotNil(block)

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(err)

	return &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{
			{
				Key:       pub,
				Algorithm: string(jose.ES256),
				Use:       "sig",
			},
		},
	}
}
