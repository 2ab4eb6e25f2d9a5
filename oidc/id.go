// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// idEntropy is the number of random bytes in a generated ID.
const idEntropy = 32

// DefaultIDLength is the length of an ID generated by NewID without a prefix.
var DefaultIDLength = base64.RawURLEncoding.EncodedLen(idEntropy)

// NewID generates an ID with an optional prefix. The ID generated is suitable
// for a request's state or nonce.
// Supported options: WithPrefix
func NewID(opt ...Option) (string, error) {
	const op = "oidc.NewID"
	opts := getIDOpts(opt...)
	b, err := uuid.GenerateRandomBytes(idEntropy)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w", op, ErrIDGeneratorFailed)
	}
	id := base64.RawURLEncoding.EncodeToString(b)
	if opts.withPrefix != "" {
		return fmt.Sprintf("%s_%s", opts.withPrefix, id), nil
	}
	return id, nil
}

// idOptions is the set of available options.
type idOptions struct {
	withPrefix string
}

// idDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func idDefaults() idOptions {
	return idOptions{}
}

// getIDOpts gets the defaults and applies the opt overrides passed
// in.
func getIDOpts(opt ...Option) idOptions {
	opts := idDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithPrefix provides an optional prefix for a new ID. When this options is
// provided, NewID will prepend the prefix and an underscore to the new
// identifier.
func WithPrefix(prefix string) Option {
	return func(o interface{}) {
		if o, ok := o.(*idOptions); ok {
			o.withPrefix = prefix
		}
	}
}
