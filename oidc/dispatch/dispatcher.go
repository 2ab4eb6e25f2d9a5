// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oidcnative/oidc"
	"github.com/hashicorp/oidcnative/oidc/callback"
)

// Dispatcher submits requests to a caller owned Executor.  The Dispatcher
// never starts, stops or waits on its Executor.  It's safe for concurrent
// use.
type Dispatcher struct {
	exec   Executor
	logger hclog.Logger
}

// NewDispatcher creates a Dispatcher for exec.
// Supported options: WithLogger
func NewDispatcher(exec Executor, opt ...oidc.Option) (*Dispatcher, error) {
	const op = "dispatch.NewDispatcher"
	if exec == nil {
		return nil, fmt.Errorf("%s: executor is nil: %w", op, oidc.ErrNilParameter)
	}
	opts := getDispatchOpts(opt...)
	return &Dispatcher{
		exec:   exec,
		logger: opts.withLogger.Named("dispatcher"),
	}, nil
}

// Executor returns the Dispatcher's Executor.
func (d *Dispatcher) Executor() Executor { return d.exec }

// Dispatch submits work to the Dispatcher's Executor and returns without
// waiting for it.  When the unit runs, its outcome is delivered to cb
// exactly once: OnSuccess with the result, or OnError with the error
// converted to an *oidc.AuthorizationError.  A panic in work is delivered as
// an oidc.KindGeneral error.
//
// An error is returned only when the unit could not be submitted, in which
// case cb is never invoked.
func Dispatch[T any](ctx context.Context, d *Dispatcher, cb callback.Callback[T], work func(context.Context) (T, error)) error {
	const op = "dispatch.Dispatch"
	switch {
	case d == nil:
		return fmt.Errorf("%s: dispatcher is nil: %w", op, oidc.ErrNilParameter)
	case cb == nil:
		return fmt.Errorf("%s: callback is nil: %w", op, oidc.ErrNilParameter)
	case work == nil:
		return fmt.Errorf("%s: work is nil: %w", op, oidc.ErrNilParameter)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	unit := func() {
		d.logger.Trace("unit in flight")
		v, err := runWork(ctx, work)
		deliver(d.logger, cb, v, err)
	}
	if err := d.exec.Execute(unit); err != nil {
		d.logger.Debug("unit rejected", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func runWork[T any](ctx context.Context, work func(context.Context) (T, error)) (v T, err error) {
	const op = "dispatch.runWork"
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v = zero
			err = oidc.NewAuthorizationError(
				oidc.KindGeneral,
				oidc.WithOp(op),
				oidc.WithMsg(fmt.Sprintf("unit of work panicked: %v", r)),
			)
		}
	}()
	return work(ctx)
}

// deliver invokes exactly one method of cb.  A panicking callback is logged
// and doesn't propagate to the Executor.
func deliver[T any](logger hclog.Logger, cb callback.Callback[T], v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("callback panicked", "panic", r)
		}
	}()
	if err != nil {
		authErr := oidc.ConvertError(err)
		logger.Debug("unit failed", "kind", authErr.Kind.String(), "error", authErr)
		cb.OnError(authErr)
		return
	}
	logger.Trace("unit succeeded")
	cb.OnSuccess(v)
}
