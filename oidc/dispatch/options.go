// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oidcnative/oidc"
)

// dispatchOptions is the set of available options for Pool and Dispatcher
type dispatchOptions struct {
	withLogger hclog.Logger
}

func dispatchDefaults() dispatchOptions {
	return dispatchOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

func getDispatchOpts(opt ...oidc.Option) dispatchOptions {
	opts := dispatchDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*dispatchOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
