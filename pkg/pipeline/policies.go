package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Logger defines the logging interface used by pipeline policies.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// LoggingPolicy logs each request and its outcome.
type LoggingPolicy struct {
	logger Logger
}

// NewLoggingPolicy creates a logging policy. A nil logger disables it.
func NewLoggingPolicy(logger Logger) *LoggingPolicy {
	return &LoggingPolicy{logger: logger}
}

// Do implements Policy.
func (p *LoggingPolicy) Do(req *Request) (*Response, error) {
	if p.logger == nil {
		return req.Next()
	}

	p.logger.Debug("API Request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	start := time.Now()

	resp, err := req.Next()

	fields := map[string]interface{}{
		"method":      req.Method,
		"url":         req.URL.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	}

	if err != nil {
		fields["error"] = err.Error()
		p.logger.Error("API Response Error", fields)

		return nil, err
	}

	fields["status_code"] = resp.StatusCode
	p.logger.Debug("API Response", fields)

	return resp, nil
}

// RequestIDPolicy stamps each request with a unique identifier so calls can
// be correlated with server-side logs. An identifier already present is kept.
type RequestIDPolicy struct {
	header string
}

// NewRequestIDPolicy creates a request ID policy writing the X-Request-Id
// header.
func NewRequestIDPolicy() *RequestIDPolicy {
	return &RequestIDPolicy{header: "X-Request-Id"}
}

// Do implements Policy.
func (p *RequestIDPolicy) Do(req *Request) (*Response, error) {
	if req.Header.Get(p.header) == "" {
		req.Header.Set(p.header, uuid.NewString())
	}

	return req.Next()
}

// TokenProvider supplies a bearer token for a request.
type TokenProvider func(ctx context.Context) (string, error)

// TokenPolicy adds an Authorization header from a token provider.
type TokenPolicy struct {
	provider TokenProvider
}

// NewTokenPolicy creates a token policy. A nil provider disables it.
func NewTokenPolicy(provider TokenProvider) *TokenPolicy {
	return &TokenPolicy{provider: provider}
}

// Do implements Policy.
func (p *TokenPolicy) Do(req *Request) (*Response, error) {
	if p.provider == nil {
		return req.Next()
	}

	token, err := p.provider(req.Context())
	if err != nil {
		return nil, fmt.Errorf("getting authentication token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)

	return req.Next()
}

// HeaderPolicy adds static headers to every request.
type HeaderPolicy struct {
	headers map[string]string
}

// NewHeaderPolicy creates a header policy.
func NewHeaderPolicy(headers map[string]string) *HeaderPolicy {
	return &HeaderPolicy{headers: headers}
}

// Do implements Policy.
func (p *HeaderPolicy) Do(req *Request) (*Response, error) {
	for key, value := range p.headers {
		req.Header.Set(key, value)
	}

	return req.Next()
}

// RateLimitPolicy throttles outgoing requests with a shared token bucket.
type RateLimitPolicy struct {
	limiter *rate.Limiter
}

// NewRateLimitPolicy creates a rate limit policy allowing requestsPerSecond
// sustained throughput with a burst of the same size.
func NewRateLimitPolicy(requestsPerSecond int) *RateLimitPolicy {
	return &RateLimitPolicy{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// Do implements Policy.
func (p *RateLimitPolicy) Do(req *Request) (*Response, error) {
	err := p.limiter.Wait(req.Context())
	if err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	return req.Next()
}

// SensitiveHeaderCleanupPolicy strips credential-bearing headers from
// requests that were redirected to a different domain. It consumes the
// one-shot flag set by RedirectPolicy, so it must sit after that policy in
// the chain.
type SensitiveHeaderCleanupPolicy struct {
	headers []string
}

// NewSensitiveHeaderCleanupPolicy creates a cleanup policy. With no headers
// given, Authorization is stripped.
func NewSensitiveHeaderCleanupPolicy(headers ...string) *SensitiveHeaderCleanupPolicy {
	if len(headers) == 0 {
		headers = []string{"Authorization"}
	}

	return &SensitiveHeaderCleanupPolicy{headers: headers}
}

// Do implements Policy.
func (p *SensitiveHeaderCleanupPolicy) Do(req *Request) (*Response, error) {
	if InsecureDomainChange(req) {
		for _, header := range p.headers {
			req.Header.Del(header)
		}

		ClearInsecureDomainChange(req)
	}

	return req.Next()
}
