// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"
)

// TestGenerateKeys returns a pem-encoded ECDSA P-256 key pair for signing
// test id_tokens.
func TestGenerateKeys(t *testing.T) (pub, priv string) {
	t.Helper()
	require := require.New(t)
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)

	privDER, err := x509.MarshalECPrivateKey(k)
	require.NoError(err)
	pubDER, err := x509.MarshalPKIXPublicKey(&k.PublicKey)
	require.NoError(err)
	return testPEM("PUBLIC KEY", pubDER), testPEM("EC PRIVATE KEY", privDER)
}

// TestSignJWT signs the claims, plus any privateClaims, with ES256.  The key
// must be a pem-encoded ECDSA P-256 private key, such as one returned by
// TestGenerateKeys.
func TestSignJWT(t *testing.T, ecdsaPrivKeyPEM string, claims jwt.Claims, privateClaims interface{}) string {
	t.Helper()
	require := require.New(t)
	block, _ := pem.Decode([]byte(ecdsaPrivKeyPEM))
	require.NotNil(block, "not a pem-encoded key")
	key, err := x509.ParseECPrivateKey(block.Bytes)
	require.NoError(err)

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: key}, (&jose.SignerOptions{}).WithType("JWT"))
	require.NoError(err)
	b := jwt.Signed(signer).Claims(claims)
	if privateClaims != nil {
		b = b.Claims(privateClaims)
	}
	raw, err := b.Serialize()
	require.NoError(err)
	return raw
}

// TestGenerateCA returns a pem-encoded, self-signed CA certificate valid for
// the hosts for a few minutes.
func TestGenerateCA(t *testing.T, hosts []string) string {
	t.Helper()
	require := require.New(t)
	k, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(err)
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	require.NoError(err)

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"oidcnative test"}},
		NotBefore:             now,
		NotAfter:              now.Add(5 * time.Minute),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
			continue
		}
		tmpl.DNSNames = append(tmpl.DNSNames, h)
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &k.PublicKey, k)
	require.NoError(err)
	return testPEM("CERTIFICATE", der)
}

func testPEM(blockType string, der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}))
}
