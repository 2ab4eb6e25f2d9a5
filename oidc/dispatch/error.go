// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package dispatch

import "errors"

var (
	// ErrRejected is returned when an Executor refuses a unit of work.
	ErrRejected = errors.New("unit of work rejected")

	// ErrShutdown is returned by a Pool which has been shut down.
	ErrShutdown = errors.New("pool is shut down")
)
