// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package jwt verifies id_tokens returned by an oidc provider.

A KeySet verifies signatures using keys published by the provider (see
NewOIDCDiscoveryKeySet and NewJSONWebKeySet) or local PEM encoded keys (see
NewStaticKeySet).  A Validator verifies the signature with one of its
KeySets and then asserts the claims listed in an Expected.
*/
package jwt
