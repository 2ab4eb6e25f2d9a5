// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package request builds and executes the requests an oidc client sends to its
provider: discovery, native (session token) and browser authorization, the
authorization code and refresh token grants, revocation, introspection and
userinfo.

Every request is built once, validated before any I/O, and then either
executed synchronously with ExecuteRequest or handed to a
dispatch.Dispatcher with DispatchRequest.  Both paths send exactly one HTTP
request through the same Client and parse the response with the same
parser, so they produce identical results.  Failures are always an
*oidc.AuthorizationError.

Example of the native flow:

	account, _ := oidc.NewAccount(clientID, redirectURI, issuer, oidc.WithProviderCA(caPEM))
	client, _ := request.NewClient(request.WithAccount(account))

	cfgReq, _ := request.NewConfigurationRequest(client, account)
	cfg, err := cfgReq.ExecuteRequest(ctx)

	authReq, _ := request.NewNativeAuthorizeRequest(client, account, sessionToken, cfg)
	authz, err := authReq.ExecuteRequest(ctx)

	tokenReq, _ := authReq.TokenRequest(authz)
	tk, err := tokenReq.ExecuteRequest(ctx)
*/
package request
