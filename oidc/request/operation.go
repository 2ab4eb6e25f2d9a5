// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package request

import "fmt"

// Operation identifies the kind of a request.
type Operation int

const (
	OpConfiguration Operation = iota
	OpNativeAuthorize
	OpBrowserAuthorize
	OpToken
	OpRefreshToken
	OpRevoke
	OpIntrospect
	OpUserInfo
)

// String returns the name used in logs and trace spans.
func (o Operation) String() string {
	switch o {
	case OpConfiguration:
		return "configuration"
	case OpNativeAuthorize:
		return "native_authorize"
	case OpBrowserAuthorize:
		return "browser_authorize"
	case OpToken:
		return "token"
	case OpRefreshToken:
		return "refresh_token"
	case OpRevoke:
		return "revoke"
	case OpIntrospect:
		return "introspect"
	case OpUserInfo:
		return "userinfo"
	default:
		return fmt.Sprintf("unknown operation (%d)", int(o))
	}
}
