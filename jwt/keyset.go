// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/oidcnative/oidc"
)

// KeySet represents a set of keys that can be used to verify the signatures of JWTs.
// A KeySet is expected to be backed by a set of local or remote keys.
type KeySet interface {
	// VerifySignature parses the given JWT, verifies its signature, and returns the claims in its payload.
	VerifySignature(ctx context.Context, token string) (claims map[string]interface{}, err error)
}

// OIDCDiscoveryKeySet verifies JWT signatures using keys obtained by the OIDC discovery mechanism.
type OIDCDiscoveryKeySet struct {
	provider *gooidc.Provider
}

// JSONWebKeySet verifies JWT signatures using keys obtained from a JWKS URL.
type JSONWebKeySet struct {
	remoteJWKS gooidc.KeySet
}

// StaticKeySet verifies JWT signatures using local PEM-encoded public keys.
type StaticKeySet struct {
	publicKeys []interface{}
}

// NewOIDCDiscoveryKeySet returns a KeySet that verifies JWT signatures using keys from the
// JSON Web Key Set (JWKS) published in the discovery document of the issuer.  The client used
// to obtain the discovery document and the remote keys will verify server certificates using the
// root certificates provided by issuerCAPEM.
// Supported options: WithHTTPClient
func NewOIDCDiscoveryKeySet(ctx context.Context, issuer string, issuerCAPEM string, opt ...Option) (KeySet, error) {
	const op = "jwt.NewOIDCDiscoveryKeySet"
	if issuer == "" {
		return nil, fmt.Errorf("%s: issuer must not be empty: %w", op, oidc.ErrInvalidParameter)
	}
	caCtx, err := createCAContext(ctx, issuerCAPEM, opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	provider, err := gooidc.NewProvider(caCtx, issuer)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to discover provider: %w", op, err)
	}
	return &OIDCDiscoveryKeySet{
		provider: provider,
	}, nil
}

// VerifySignature parses the given JWT, verifies its signature using discovered JWKS keys, and
// returns the claims in its payload. The given JWT must be of the JWS compact serialization form.
func (ks *OIDCDiscoveryKeySet) VerifySignature(ctx context.Context, token string) (map[string]interface{}, error) {
	const op = "OIDCDiscoveryKeySet.VerifySignature"
	// Verify only the signature
	verifier := ks.provider.Verifier(&gooidc.Config{
		SkipClientIDCheck:    true,
		SkipExpiryCheck:      true,
		SkipIssuerCheck:      true,
		SupportedSigningAlgs: algStrings(allAlgs()),
	})
	idToken, err := verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, oidc.ErrInvalidSignature, err)
	}
	allClaims := make(map[string]interface{})
	if err := idToken.Claims(&allClaims); err != nil {
		return nil, fmt.Errorf("%s: unable to decode claims: %w", op, err)
	}
	return allClaims, nil
}

// NewJSONWebKeySet returns a KeySet that verifies JWT signatures using keys from the JSON Web
// Key Set (JWKS) at the given jwksURL. The client used to obtain the remote JWKS will verify
// server certificates using the root certificates provided by jwksCAPEM.
// Supported options: WithHTTPClient
func NewJSONWebKeySet(ctx context.Context, jwksURL string, jwksCAPEM string, opt ...Option) (KeySet, error) {
	const op = "jwt.NewJSONWebKeySet"
	if jwksURL == "" {
		return nil, fmt.Errorf("%s: jwksURL must not be empty: %w", op, oidc.ErrInvalidParameter)
	}
	caCtx, err := createCAContext(ctx, jwksCAPEM, opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &JSONWebKeySet{
		remoteJWKS: gooidc.NewRemoteKeySet(caCtx, jwksURL),
	}, nil
}

// VerifySignature parses the given JWT, verifies its signature using JWKS keys, and returns
// the claims in its payload. The given JWT must be of the JWS compact serialization form.
func (ks *JSONWebKeySet) VerifySignature(ctx context.Context, token string) (map[string]interface{}, error) {
	const op = "JSONWebKeySet.VerifySignature"
	payload, err := ks.remoteJWKS.VerifySignature(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, oidc.ErrInvalidSignature, err)
	}
	allClaims := map[string]interface{}{}
	if err := json.Unmarshal(payload, &allClaims); err != nil {
		return nil, fmt.Errorf("%s: unable to decode claims: %w", op, err)
	}
	return allClaims, nil
}

// NewStaticKeySet returns a KeySet that verifies JWT signatures using PEM-encoded public keys.
// The given publicKeys must be of PEM-encoded x509 certificate or PKIX public key forms.
func NewStaticKeySet(publicKeys []string) (KeySet, error) {
	const op = "jwt.NewStaticKeySet"
	if len(publicKeys) == 0 {
		return nil, fmt.Errorf("%s: no public keys: %w", op, oidc.ErrInvalidParameter)
	}
	parsedPublicKeys := make([]interface{}, 0, len(publicKeys))
	for _, k := range publicKeys {
		key, err := parsePublicKeyPEM([]byte(k))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		parsedPublicKeys = append(parsedPublicKeys, key)
	}
	return &StaticKeySet{
		publicKeys: parsedPublicKeys,
	}, nil
}

// VerifySignature parses the given JWT, verifies its signature using local PEM-encoded public keys,
// and returns the claims in its payload. The given JWT must be of the JWS compact serialization form.
func (ks *StaticKeySet) VerifySignature(_ context.Context, token string) (map[string]interface{}, error) {
	const op = "StaticKeySet.VerifySignature"
	parsedJWT, err := jwt.ParseSigned(token, joseAlgs(allAlgs()))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to parse token: %w", op, err)
	}
	for _, key := range ks.publicKeys {
		allClaims := map[string]interface{}{}
		if err := parsedJWT.Claims(key, &allClaims); err == nil {
			return allClaims, nil
		}
	}
	return nil, fmt.Errorf("%s: no known key successfully validated the token signature: %w", op, oidc.ErrInvalidSignature)
}

// parsePublicKeyPEM is used to parse RSA, ECDSA and Ed25519 public keys from PEMs.
func parsePublicKeyPEM(data []byte) (interface{}, error) {
	const op = "jwt.parsePublicKeyPEM"
	block, _ := pem.Decode(data)
	if block != nil {
		var rawKey interface{}
		var err error
		if rawKey, err = x509.ParsePKIXPublicKey(block.Bytes); err != nil {
			cert, certErr := x509.ParseCertificate(block.Bytes)
			if certErr != nil {
				return nil, fmt.Errorf("%s: %w: %s", op, oidc.ErrInvalidParameter, err)
			}
			rawKey = cert.PublicKey
		}
		switch k := rawKey.(type) {
		case *rsa.PublicKey:
			return k, nil
		case *ecdsa.PublicKey:
			return k, nil
		case ed25519.PublicKey:
			return k, nil
		}
	}
	return nil, fmt.Errorf("%s: data does not contain any valid RSA, ECDSA or Ed25519 public keys: %w", op, oidc.ErrInvalidParameter)
}

// createCAContext returns a context carrying the http client go-oidc will use
// to fetch remote keys. The client trusts caPEM when provided.
func createCAContext(ctx context.Context, caPEM string, opt ...Option) (context.Context, error) {
	opts := getKeySetOpts(opt...)
	var client *http.Client
	switch {
	case opts.withHTTPClient != nil:
		client = opts.withHTTPClient
	default:
		var err error
		client, err = oidc.NewHTTPClient(oidc.WithProviderCA(caPEM))
		if err != nil {
			return nil, err
		}
	}
	return oidc.ClientContext(ctx, client), nil
}

func algStrings(algs []Alg) []string {
	out := make([]string, 0, len(algs))
	for _, a := range algs {
		out = append(out, string(a))
	}
	return out
}
