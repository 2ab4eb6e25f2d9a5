// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMapper_Classify(t *testing.T) {
	t.Parallel()
	custom := NewErrorMapper(
		WithCodeKind("session_revoked", KindUnauthorized),
		WithStatusKind(http.StatusForbidden, KindUnauthorized),
		WithCodeKind(CodeInvalidGrant, KindUnauthorized),
	)
	tests := []struct {
		name   string
		mapper *ErrorMapper
		status int
		code   string
		want   Kind
	}{
		{"401-no-body", DefaultErrorMapper(), http.StatusUnauthorized, "", KindUnauthorized},
		{"401-overrides-code", DefaultErrorMapper(), http.StatusUnauthorized, CodeInvalidRequest, KindUnauthorized},
		{"invalid-token", DefaultErrorMapper(), http.StatusBadRequest, CodeInvalidToken, KindUnauthorized},
		{"invalid-grant", DefaultErrorMapper(), http.StatusBadRequest, CodeInvalidGrant, KindOAuth},
		{"unknown-code", DefaultErrorMapper(), http.StatusBadRequest, "made_up", KindOAuth},
		{"server-no-body", DefaultErrorMapper(), http.StatusBadGateway, "", KindGeneral},
		{"nil-mapper", nil, http.StatusUnauthorized, "", KindUnauthorized},
		{"custom-code", custom, http.StatusBadRequest, "session_revoked", KindUnauthorized},
		{"custom-status", custom, http.StatusForbidden, "", KindUnauthorized},
		{"custom-override", custom, http.StatusBadRequest, CodeInvalidGrant, KindUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mapper.Classify(tt.status, tt.code))
		})
	}
	t.Run("overrides-do-not-leak", func(t *testing.T) {
		assert.Equal(t, KindOAuth, DefaultErrorMapper().Classify(http.StatusBadRequest, "session_revoked"))
	})
}
