// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package response

import "github.com/hashicorp/oidcnative/oidc"

// Revoke is the result of a successful revocation.  The provider responds
// with 200 whether or not the token was valid, so there is nothing more to
// report.
// See: https://www.rfc-editor.org/rfc/rfc7009#section-2.2
type Revoke struct {
	StatusCode int
}

// ParseRevoke parses a revocation endpoint response.  The body of a success
// response is ignored.
func ParseRevoke(raw *Raw, m *oidc.ErrorMapper) (*Revoke, error) {
	const op = "response.ParseRevoke"
	if raw == nil {
		return nil, malformed(op, nil, "no response", oidc.ErrNilParameter)
	}
	if !raw.IsSuccess() {
		return nil, Classify(op, raw, m)
	}
	return &Revoke{StatusCode: raw.StatusCode}, nil
}
