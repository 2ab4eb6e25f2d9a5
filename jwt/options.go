// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import "net/http"

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

type keySetOptions struct {
	withHTTPClient *http.Client
}

func keySetDefaults() keySetOptions {
	return keySetOptions{}
}

// getKeySetOpts gets the defaults and applies the opt overrides passed
// in.
func getKeySetOpts(opt ...Option) keySetOptions {
	opts := keySetDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithHTTPClient provides the http client used to fetch remote keys. When
// it's provided, the CA PEM passed to the KeySet constructor is ignored.
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*keySetOptions); ok {
			o.withHTTPClient = c
		}
	}
}
