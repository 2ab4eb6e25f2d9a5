// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package response

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/hashicorp/oidcnative/oidc"
)

// Raw is a response as received from the provider.
type Raw struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Parser converts a Raw response into a typed result.  Errors are always an
// *oidc.AuthorizationError.
type Parser[T any] func(raw *Raw) (T, error)

// IsSuccess returns true for 2xx statuses.
func (r *Raw) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect returns true for statuses which carry a Location.
func (r *Raw) IsRedirect() bool {
	if r == nil {
		return false
	}
	switch r.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// contentType returns the media type of the response, without parameters.
func (r *Raw) contentType() string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(ct)
	}
	return mt
}

// decodeJSON decodes the body into v and returns a
// KindMalformedResponse error when the body is not the expected JSON.
func decodeJSON(op string, raw *Raw, v interface{}) error {
	if len(raw.Body) == 0 {
		return malformed(op, raw, "empty response body", nil)
	}
	if err := json.Unmarshal(raw.Body, v); err != nil {
		msg := "unable to decode JSON response"
		if ct := raw.contentType(); ct != "" && ct != "application/json" {
			msg = fmt.Sprintf("%s (content-type %q)", msg, ct)
		}
		return malformed(op, raw, msg, err)
	}
	return nil
}

func malformed(op string, raw *Raw, msg string, wrapped error) *oidc.AuthorizationError {
	opts := []oidc.Option{oidc.WithOp(op), oidc.WithMsg(msg), oidc.WithWrap(wrapped)}
	if raw != nil {
		opts = append(opts, oidc.WithStatusCode(raw.StatusCode))
	}
	return oidc.NewAuthorizationError(oidc.KindMalformedResponse, opts...)
}

func missingField(op string, raw *Raw, field string) *oidc.AuthorizationError {
	return malformed(op, raw, fmt.Sprintf("missing %q", field), oidc.ErrMissingRequiredField)
}
