package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Request represents an HTTP request traveling through the policy chain. A
// Request is owned by exactly one call in flight and is mutated in place as
// policies rewrite its URL, headers, or body.
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte

	ctx      context.Context
	values   map[string]any
	policies []Policy
}

// NewRequest creates a request for the given method and URL.
func NewRequest(ctx context.Context, method, rawURL string) (*Request, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing request URL: %w", err)
	}

	if parsed.Host == "" {
		return nil, ErrNoHostInURL
	}

	return &Request{
		Method: method,
		URL:    parsed,
		Header: make(http.Header),
		ctx:    ctx,
		values: make(map[string]any),
	}, nil
}

// Context returns the request's context.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}

	return r.ctx
}

// SetBody sets the request body and content type. A nil body clears both.
func (r *Request) SetBody(body []byte, contentType string) {
	r.Body = body
	if body == nil {
		r.Header.Del("Content-Type")

		return
	}

	r.Header.Set("Content-Type", contentType)
}

// SetValue stores a per-call value in the request's option bag. Values are
// shared between policies of the same call, never between calls.
func (r *Request) SetValue(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}

	r.values[key] = value
}

// Value looks up a per-call value.
func (r *Request) Value(key string) (any, bool) {
	value, ok := r.values[key]

	return value, ok
}

// DeleteValue removes a per-call value.
func (r *Request) DeleteValue(key string) {
	delete(r.values, key)
}

// Next forwards the request to the remaining policy chain and returns its
// response. The receiver keeps its own chain position, so a policy may call
// Next more than once to re-issue the request (redirects do exactly that).
func (r *Request) Next() (*Response, error) {
	if len(r.policies) == 0 {
		return nil, ErrPipelineExhausted
	}

	next := r.policies[0]
	forwarded := *r
	forwarded.policies = r.policies[1:]

	return next.Do(&forwarded)
}

// Response represents the HTTP response produced by the transport at the end
// of the chain. It is read-only to policies once constructed.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Request is the request that produced this response, after any rewrites
	// performed by policies along the way.
	Request *Request
}
