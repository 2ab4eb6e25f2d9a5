// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oidcnative/oidc"
	"golang.org/x/sync/errgroup"
)

// Pool is an Executor with a fixed number of workers consuming an unbounded
// FIFO queue.  Units of work are never run after ShutdownNow, and Execute
// rejects new units once either shutdown has begun.
type Pool struct {
	logger hclog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []func()
	shutdown bool

	terminated chan struct{}
}

// NewPool creates a Pool and starts its workers.
// Supported options: WithLogger
func NewPool(workers int, opt ...oidc.Option) (*Pool, error) {
	const op = "dispatch.NewPool"
	if workers <= 0 {
		return nil, fmt.Errorf("%s: workers must be greater than zero: %w", op, oidc.ErrInvalidParameter)
	}
	opts := getDispatchOpts(opt...)
	p := &Pool{
		logger:     opts.withLogger.Named("pool"),
		terminated: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(p.work)
	}
	go func() {
		_ = g.Wait()
		p.logger.Debug("terminated")
		close(p.terminated)
	}()
	return p, nil
}

// Execute implements Executor.  It queues the unit and returns immediately.
func (p *Pool) Execute(task func()) error {
	const op = "Pool.Execute"
	if task == nil {
		return fmt.Errorf("%s: task is nil: %w", op, oidc.ErrNilParameter)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shutdown {
		return fmt.Errorf("%s: %w: %w", op, ErrRejected, ErrShutdown)
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return nil
}

// Shutdown stops accepting new units.  Units already queued still run.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdown = true
	p.cond.Broadcast()
}

// ShutdownNow stops accepting new units and drops the queued ones, which
// are never run.  Units already running complete.  It returns the number of
// dropped units.
func (p *Pool) ShutdownNow() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdown = true
	dropped := len(p.queue)
	p.queue = nil
	p.cond.Broadcast()
	if dropped > 0 {
		p.logger.Debug("dropped queued units", "count", dropped)
	}
	return dropped
}

// IsShutdown returns true once Shutdown or ShutdownNow has been called.
func (p *Pool) IsShutdown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shutdown
}

// AwaitTermination blocks until every worker has exited after a shutdown, or
// ctx is done.
func (p *Pool) AwaitTermination(ctx context.Context) error {
	select {
	case <-p.terminated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) work() error {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.shutdown {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return nil
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(task)
	}
}

// run keeps a worker alive when a unit panics.
func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("unit of work panicked", "panic", r)
		}
	}()
	task()
}

var _ Executor = (*Pool)(nil)
