// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/oidcnative/oidc"
)

// Callback receives the outcome of one dispatched request.  Exactly one of
// its methods is invoked, exactly once, on the dispatcher's execution
// context.
type Callback[T any] interface {
	// OnSuccess is invoked with the parsed result of the request.
	OnSuccess(result T)

	// OnError is invoked when the request fails.  The error is never nil.
	OnError(err *oidc.AuthorizationError)
}

// SuccessFunc is invoked with the parsed result of a request.
type SuccessFunc[T any] func(result T)

// ErrorFunc is invoked when a request fails.
type ErrorFunc func(err *oidc.AuthorizationError)

// Funcs adapts a pair of functions into a Callback.  Either func may be
// nil, in which case that outcome is ignored.
type Funcs[T any] struct {
	Success SuccessFunc[T]
	Error   ErrorFunc
}

// OnSuccess implements Callback.
func (f Funcs[T]) OnSuccess(result T) {
	if f.Success != nil {
		f.Success(result)
	}
}

// OnError implements Callback.
func (f Funcs[T]) OnError(err *oidc.AuthorizationError) {
	if f.Error != nil {
		f.Error(err)
	}
}

// Result is the outcome delivered by a Channel.
type Result[T any] struct {
	Value T
	Err   *oidc.AuthorizationError
}

// Channel is a Callback which delivers its outcome on a channel, so the
// caller can wait for it.  A Channel must receive exactly one outcome;
// receiving a second one panics since it means a request was completed
// twice.
type Channel[T any] struct {
	ch   chan Result[T]
	done bool
	mu   sync.Mutex
}

// NewChannel creates a new Channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{
		ch: make(chan Result[T], 1),
	}
}

// OnSuccess implements Callback.
func (c *Channel[T]) OnSuccess(result T) {
	c.resolve(Result[T]{Value: result})
}

// OnError implements Callback.
func (c *Channel[T]) OnError(err *oidc.AuthorizationError) {
	c.resolve(Result[T]{Err: err})
}

func (c *Channel[T]) resolve(r Result[T]) {
	const op = "Channel.resolve"
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		panic(fmt.Sprintf("%s: callback invoked more than once", op))
	}
	c.done = true
	c.ch <- r
}

// C returns the channel the outcome is delivered on.  It receives exactly
// one value.
func (c *Channel[T]) C() <-chan Result[T] {
	return c.ch
}

// Wait blocks until the outcome is delivered or ctx is done.  When ctx is
// done first, the returned error is ctx.Err() and the outcome can still be
// received later from C.
func (c *Channel[T]) Wait(ctx context.Context) (T, error) {
	select {
	case r := <-c.ch:
		if r.Err != nil {
			return r.Value, r.Err
		}
		return r.Value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

var (
	_ Callback[struct{}] = Funcs[struct{}]{}
	_ Callback[struct{}] = (*Channel[struct{}])(nil)
)
