// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/go-uuid"
)

// ClientAssertionJWTType is the client_assertion_type for private_key_jwt.
// See: https://www.rfc-editor.org/rfc/rfc7523.html#section-2.2
const ClientAssertionJWTType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// ClientSecret is an oauth client secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// ClientAuthentication adds a client's credentials to requests sent to the
// token, revocation and introspection endpoints.
type ClientAuthentication interface {
	// Apply adds the credentials to the form and/or header of a request
	// sent to endpointURL.
	Apply(endpointURL string, form url.Values, h http.Header) error
}

// PublicClient authenticates a public (native) client by only sending its
// client_id.  It's the default for requests built from an Account.
type PublicClient struct {
	ClientID string
}

// Apply implements ClientAuthentication.
func (c PublicClient) Apply(_ string, form url.Values, _ http.Header) error {
	const op = "PublicClient.Apply"
	if c.ClientID == "" {
		return fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	}
	form.Set("client_id", c.ClientID)
	return nil
}

// ClientSecretBasic authenticates with HTTP basic auth.
// See: https://www.rfc-editor.org/rfc/rfc6749#section-2.3.1
type ClientSecretBasic struct {
	ClientID     string
	ClientSecret ClientSecret
}

// Apply implements ClientAuthentication.
func (c ClientSecretBasic) Apply(_ string, _ url.Values, h http.Header) error {
	const op = "ClientSecretBasic.Apply"
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%s: client id and secret are required: %w", op, ErrInvalidParameter)
	}
	creds := url.QueryEscape(c.ClientID) + ":" + url.QueryEscape(string(c.ClientSecret))
	h.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(creds)))
	return nil
}

// ClientSecretPost authenticates by sending the client secret in the form.
type ClientSecretPost struct {
	ClientID     string
	ClientSecret ClientSecret
}

// Apply implements ClientAuthentication.
func (c ClientSecretPost) Apply(_ string, form url.Values, _ http.Header) error {
	const op = "ClientSecretPost.Apply"
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%s: client id and secret are required: %w", op, ErrInvalidParameter)
	}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", string(c.ClientSecret))
	return nil
}

// PrivateKeyJWT authenticates with a client assertion JWT signed by the
// client's private key (private_key_jwt).  A new assertion, with a new jti,
// is signed for every request.
type PrivateKeyJWT struct {
	clientID string
	alg      jose.SignatureAlgorithm
	key      interface{}
	keyID    string

	// these are overwritten for testing
	genID func() (string, error)
	now   func() time.Time
}

// NewPrivateKeyJWT creates a PrivateKeyJWT. The key may be any private key
// type go-jose accepts for alg.
// Supported options: WithKeyID
func NewPrivateKeyJWT(clientID string, key interface{}, alg jose.SignatureAlgorithm, opt ...Option) (*PrivateKeyJWT, error) {
	const op = "oidc.NewPrivateKeyJWT"
	switch {
	case clientID == "":
		return nil, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	case key == nil:
		return nil, fmt.Errorf("%s: private key is nil: %w", op, ErrNilParameter)
	case alg == "":
		return nil, fmt.Errorf("%s: signing algorithm is empty: %w", op, ErrInvalidParameter)
	}
	opts := getClientAuthOpts(opt...)
	p := &PrivateKeyJWT{
		clientID: clientID,
		alg:      alg,
		key:      key,
		keyID:    opts.withKeyID,
		genID:    uuid.GenerateUUID,
		now:      time.Now,
	}
	// make sure signing works now, rather than on the first request.
	if _, err := p.assertion("https://example.com/token"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Apply implements ClientAuthentication.
func (p *PrivateKeyJWT) Apply(endpointURL string, form url.Values, _ http.Header) error {
	const op = "PrivateKeyJWT.Apply"
	a, err := p.assertion(endpointURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	form.Set("client_id", p.clientID)
	form.Set("client_assertion_type", ClientAssertionJWTType)
	form.Set("client_assertion", a)
	return nil
}

func (p *PrivateKeyJWT) assertion(audience string) (string, error) {
	const op = "PrivateKeyJWT.assertion"
	sOpts := (&jose.SignerOptions{}).WithType("JWT")
	if p.keyID != "" {
		sOpts = sOpts.WithHeader("kid", p.keyID)
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: p.alg, Key: p.key}, sOpts)
	if err != nil {
		return "", fmt.Errorf("%s: unable to create signer: %w", op, err)
	}
	id, err := p.genID()
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate jti: %w", op, ErrIDGeneratorFailed)
	}
	now := p.now().UTC()
	claims := jwt.Claims{
		Issuer:    p.clientID,
		Subject:   p.clientID,
		Audience:  jwt.Audience{audience},
		Expiry:    jwt.NewNumericDate(now.Add(5 * time.Minute)),
		NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Second)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        id,
	}
	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("%s: unable to sign assertion: %w", op, err)
	}
	return token, nil
}

// clientAuthOptions is the set of available options for client
// authentication.
type clientAuthOptions struct {
	withKeyID string
}

func clientAuthDefaults() clientAuthOptions {
	return clientAuthOptions{}
}

func getClientAuthOpts(opt ...Option) clientAuthOptions {
	opts := clientAuthDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithKeyID sets the "kid" header providers use to look up the public key
// which verifies a client assertion.
func WithKeyID(keyID string) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientAuthOptions); ok {
			o.withKeyID = keyID
		}
	}
}

var (
	_ ClientAuthentication = PublicClient{}
	_ ClientAuthentication = ClientSecretBasic{}
	_ ClientAuthentication = ClientSecretPost{}
	_ ClientAuthentication = (*PrivateKeyJWT)(nil)
)
