// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
callback is a package that provides the sinks which receive the outcome of an
asynchronously dispatched oidc request.

A Callback receives exactly one of OnSuccess or OnError per dispatched
request.  Funcs adapts a pair of functions, and Channel adapts the outcome
into a one-shot channel for callers which want to wait for it.
*/
package callback
