// Package transport provides pipeline.Transporter implementations. A
// transport performs exactly one request/response exchange; redirect
// following belongs to the policy chain, so the underlying HTTP clients are
// configured not to follow redirects on their own.
package transport

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/strongroom-io/strongroom-client/internal/constants"
	"github.com/strongroom-io/strongroom-client/pkg/pipeline"
)

// Config configures transport construction.
type Config struct {
	// Timeout bounds a single exchange. Values <= 0 use the default.
	Timeout time.Duration

	// SkipTLSValidation disables certificate verification. Development only.
	SkipTLSValidation bool
}

// Client is a pipeline.Transporter backed by net/http.
type Client struct {
	inner *http.Client
}

// New creates a transport. A nil config uses defaults.
func New(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	inner := &http.Client{
		Timeout:       timeout,
		CheckRedirect: noFollow,
	}

	if config.SkipTLSValidation {
		inner.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in for development
		}
	}

	return &Client{inner: inner}
}

// Do implements pipeline.Transporter.
func (c *Client) Do(req *pipeline.Request) (*pipeline.Response, error) {
	httpReq, err := toHTTPRequest(req)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.inner.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return fromHTTPResponse(httpResp)
}

// noFollow keeps redirect handling out of net/http.
func noFollow(_ *http.Request, _ []*http.Request) error {
	return http.ErrUseLastResponse
}

func toHTTPRequest(req *pipeline.Request) (*http.Request, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(req.Context(), req.Method, req.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	return httpReq, nil
}

func fromHTTPResponse(httpResp *http.Response) (*pipeline.Response, error) {
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &pipeline.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}
