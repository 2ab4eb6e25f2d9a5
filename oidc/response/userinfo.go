// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package response

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/oidcnative/oidc"
)

// UserInfo is the result of a userinfo request.
// See: https://openid.net/specs/openid-connect-core-1_0.html#UserInfoResponse
type UserInfo struct {
	Subject string

	raw []byte
}

// ParseUserInfo parses a userinfo endpoint response.  The "sub" claim is
// required.
func ParseUserInfo(raw *Raw, m *oidc.ErrorMapper) (*UserInfo, error) {
	const op = "response.ParseUserInfo"
	if raw == nil {
		return nil, malformed(op, nil, "no response", oidc.ErrNilParameter)
	}
	if !raw.IsSuccess() {
		return nil, Classify(op, raw, m)
	}
	if e := errorBody(op, raw, m); e != nil {
		return nil, e
	}
	if ct := raw.contentType(); ct == "application/jwt" {
		return nil, malformed(op, raw, "signed userinfo responses are not supported", nil)
	}
	var sub struct {
		Subject string `json:"sub"`
	}
	if err := decodeJSON(op, raw, &sub); err != nil {
		return nil, err
	}
	if sub.Subject == "" {
		return nil, missingField(op, raw, "sub")
	}
	return &UserInfo{
		Subject: sub.Subject,
		raw:     append([]byte(nil), raw.Body...),
	}, nil
}

// Claims decodes the userinfo claims into claims, which is typically a
// struct or a map[string]interface{}.
func (u *UserInfo) Claims(claims interface{}) error {
	const op = "UserInfo.Claims"
	if claims == nil {
		return fmt.Errorf("%s: claims interface is nil: %w", op, oidc.ErrNilParameter)
	}
	if err := json.Unmarshal(u.raw, claims); err != nil {
		return fmt.Errorf("%s: unable to unmarshal claims: %w", op, err)
	}
	return nil
}
