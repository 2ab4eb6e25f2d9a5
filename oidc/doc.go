// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package oidc provides the values the requests of an OpenID Connect native
client are built from, and the errors they fail with.

An Account is the client's registration with a provider: its client id,
redirect URI, issuer and scopes.  A ProviderConfiguration is the provider's
discovery document.  Both are immutable and shared by every request.

Every failure of a request is an *AuthorizationError, classified by its Kind:

	KindConfiguration:     the request couldn't be built
	KindNetwork:           no response was received
	KindUnauthorized:      the session or token is no longer valid
	KindOAuth:             the provider returned an OAuth error
	KindMalformedResponse: a success response couldn't be parsed
	KindGeneral:           anything else

Kinds are errors, so errors.Is(err, oidc.KindUnauthorized) checks the kind.
An ErrorMapper decides the kind of a failed response from its status and
OAuth error code.

TestEndpoint is a local TLS provider for tests.
*/
package oidc
