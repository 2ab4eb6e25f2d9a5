// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package dispatch runs oidc requests asynchronously.

An Executor is the execution context units of work are submitted to; it's
owned by the caller.  A Pool is a ready made Executor with a fixed number of
workers, and Go runs every unit on its own goroutine.  A Dispatcher pairs an
Executor with a logger, and Dispatch submits one unit whose outcome is
delivered to a callback.Callback exactly once.
*/
package dispatch
