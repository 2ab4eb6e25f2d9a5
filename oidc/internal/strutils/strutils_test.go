// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package strutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrListContains(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	schemes := []string{"http", "https"}
	assert.True(StrListContains(schemes, "https"))
	assert.False(StrListContains(schemes, "HTTPS"))
	assert.False(StrListContains(nil, "http"))
}

func TestRemoveDuplicatesStable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name            string
		input           []string
		caseInsensitive bool
		want            []string
	}{
		{name: "empty", input: []string{}, want: []string{}},
		{name: "scopes", input: []string{"openid", "profile", "openid", "email"}, want: []string{"openid", "profile", "email"}},
		{name: "blank", input: []string{"openid", " ", "", "email"}, want: []string{"openid", "email"}},
		{name: "case-sensitive", input: []string{"Profile", "profile"}, want: []string{"Profile", "profile"}},
		{name: "case-insensitive", input: []string{"Profile", "profile"}, caseInsensitive: true, want: []string{"Profile"}},
		{name: "trimmed", input: []string{"email ", " email"}, want: []string{"email "}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RemoveDuplicatesStable(tt.input, tt.caseInsensitive))
		})
	}
}
