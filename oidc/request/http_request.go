// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package request

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/oidcnative/oidc"
)

// HTTPRequest describes the single HTTP request a request sends.  It's
// built, and validated, when the request is constructed.
type HTTPRequest struct {
	Method string

	// URL is the endpoint, including any query parameters.
	URL string

	Header http.Header

	// Form is sent as an application/x-www-form-urlencoded body.  It's only
	// used with POST.
	Form url.Values

	// FollowRedirects is false when the redirect itself is the response.
	FollowRedirects bool
}

func newGET(endpoint string, query url.Values) (*HTTPRequest, error) {
	const op = "request.newGET"
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, oidc.ErrInvalidParameter, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return &HTTPRequest{
		Method:          http.MethodGet,
		URL:             u.String(),
		Header:          http.Header{"Accept": {"application/json"}},
		FollowRedirects: true,
	}, nil
}

func newPOST(endpoint string, form url.Values) (*HTTPRequest, error) {
	const op = "request.newPOST"
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, oidc.ErrInvalidParameter, err)
	}
	return &HTTPRequest{
		Method:          http.MethodPost,
		URL:             endpoint,
		Header:          http.Header{"Accept": {"application/json"}},
		Form:            form,
		FollowRedirects: true,
	}, nil
}

// Endpoint returns the URL without its query, which can carry credentials
// such as a session token.
func (r *HTTPRequest) Endpoint() string {
	if i := strings.IndexByte(r.URL, '?'); i >= 0 {
		return r.URL[:i]
	}
	return r.URL
}

func (r *HTTPRequest) clone() *HTTPRequest {
	cp := *r
	cp.Header = r.Header.Clone()
	if r.Form != nil {
		cp.Form = url.Values{}
		for k, vs := range r.Form {
			cp.Form[k] = append([]string(nil), vs...)
		}
	}
	return &cp
}

func (r *HTTPRequest) toHTTP(ctx context.Context) (*http.Request, error) {
	var body *strings.Reader
	if r.Method == http.MethodPost {
		body = strings.NewReader(r.Form.Encode())
	}
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, r.Method, r.URL, nil)
	}
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}
