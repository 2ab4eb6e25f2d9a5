// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package response turns the raw HTTP responses of an oidc provider into typed
results.

Every Parse function is pure: given the status, header and body of one
response it returns either a typed success value or an
*oidc.AuthorizationError, never both.  Failure statuses are classified with
an *oidc.ErrorMapper; success statuses whose body does not match the expected
schema are oidc.KindMalformedResponse.
*/
package response
