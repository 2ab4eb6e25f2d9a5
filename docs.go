// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// oidcnative provides the requests a native (non-browser) application sends
// to an OpenID Connect provider, and the typed results and classified errors
// they produce.
//
// The packages:
//
//   - oidc: accounts, provider configuration, errors and their mapping,
//     tokens, PKCE and client authentication
//   - oidc/request: the requests and the Client which sends them
//   - oidc/response: parsing of raw provider responses
//   - oidc/dispatch: asynchronous execution on a caller owned executor
//   - oidc/callback: the callbacks asynchronous results are delivered to
//   - jwt: id_token verification
package oidcnative
