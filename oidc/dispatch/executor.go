// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package dispatch

import "fmt"

// Executor runs units of work.  Execute must not block waiting for the unit
// to complete.  It returns an error when the unit is rejected, in which
// case the unit is never run.
type Executor interface {
	Execute(task func()) error
}

// ExecutorFunc adapts a function into an Executor.
type ExecutorFunc func(task func()) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(task func()) error {
	const op = "ExecutorFunc.Execute"
	if f == nil {
		return fmt.Errorf("%s: executor func is nil: %w", op, ErrRejected)
	}
	return f(task)
}

// Go is an Executor which runs every unit of work on a new goroutine.
var Go = ExecutorFunc(func(task func()) error {
	go task()
	return nil
})
