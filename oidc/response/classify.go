// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package response

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/hashicorp/oidcnative/oidc"
)

// oauthError is the error body of RFC 6749 section 5.2.
type oauthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
	URI         string `json:"error_uri"`
}

// Classify returns the error for a failure response.  The OAuth error is
// read from the JSON body or, when there isn't one, the Bearer
// WWW-Authenticate challenge.  A nil mapper uses the default mappings.
func Classify(op string, raw *Raw, m *oidc.ErrorMapper) *oidc.AuthorizationError {
	if raw == nil {
		return oidc.NewAuthorizationError(oidc.KindGeneral, oidc.WithOp(op), oidc.WithMsg("no response"))
	}
	var oe oauthError
	if len(raw.Body) > 0 {
		_ = json.Unmarshal(raw.Body, &oe)
	}
	if oe.Code == "" {
		oe = parseBearerChallenge(raw.Header.Get("WWW-Authenticate"))
	}
	k := m.Classify(raw.StatusCode, oe.Code)
	opts := []oidc.Option{
		oidc.WithOp(op),
		oidc.WithStatusCode(raw.StatusCode),
		oidc.WithOAuthError(oe.Code, oe.Description, oe.URI),
	}
	if oe.Code == "" {
		opts = append(opts, oidc.WithMsg("unexpected response"))
	}
	return oidc.NewAuthorizationError(k, opts...)
}

// errorBody returns the error for a success response whose JSON body is an
// OAuth error, or nil when the body carries no "error".  The kind comes from
// the error code alone.
func errorBody(op string, raw *Raw, m *oidc.ErrorMapper) *oidc.AuthorizationError {
	if raw == nil || len(raw.Body) == 0 {
		return nil
	}
	var oe oauthError
	if err := json.Unmarshal(raw.Body, &oe); err != nil || oe.Code == "" {
		return nil
	}
	return oidc.NewAuthorizationError(
		m.Classify(0, oe.Code),
		oidc.WithOp(op),
		oidc.WithStatusCode(raw.StatusCode),
		oidc.WithOAuthError(oe.Code, oe.Description, oe.URI),
	)
}

// classifyParams returns the error for an OAuth error delivered as redirect
// parameters, or nil when params carry no "error".
func classifyParams(op string, status int, params url.Values, m *oidc.ErrorMapper) *oidc.AuthorizationError {
	code := params.Get("error")
	if code == "" {
		return nil
	}
	return oidc.NewAuthorizationError(
		m.Classify(status, code),
		oidc.WithOp(op),
		oidc.WithStatusCode(status),
		oidc.WithOAuthError(code, params.Get("error_description"), params.Get("error_uri")),
	)
}

// parseBearerChallenge reads the error attributes of a Bearer challenge, for
// example: Bearer error="invalid_token", error_description="expired".
// See: https://www.rfc-editor.org/rfc/rfc6750#section-3
func parseBearerChallenge(h string) oauthError {
	var oe oauthError
	h = strings.TrimSpace(h)
	if len(h) < len("Bearer") || !strings.EqualFold(h[:len("Bearer")], "Bearer") {
		return oe
	}
	for _, attr := range splitChallenge(h[len("Bearer"):]) {
		k, v, ok := strings.Cut(attr, "=")
		if !ok {
			continue
		}
		v = strings.Trim(strings.TrimSpace(v), `"`)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "error":
			oe.Code = v
		case "error_description":
			oe.Description = v
		case "error_uri":
			oe.URI = v
		}
	}
	return oe
}

// splitChallenge splits challenge attributes on commas outside of quotes.
func splitChallenge(s string) []string {
	var parts []string
	var b strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			b.WriteRune(r)
		case r == ',' && !quoted:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}
