package transport

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/strongroom-io/strongroom-client/internal/constants"
	"github.com/strongroom-io/strongroom-client/pkg/pipeline"
)

// RetryConfig configures the retrying transport.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the initial
	// try. Values < 0 use the default.
	MaxRetries int

	// RetryWaitMin is the minimum backoff between retries.
	RetryWaitMin time.Duration

	// RetryWaitMax is the maximum backoff between retries.
	RetryWaitMax time.Duration

	// Timeout bounds the whole exchange including retries.
	Timeout time.Duration
}

// RetryClient is a pipeline.Transporter that retries transient failures
// (connection errors, 429s, 5xx) inside the transport. The policy chain
// above it stays retry-unaware.
type RetryClient struct {
	inner *retryablehttp.Client
}

// NewRetryClient creates a retrying transport. A nil config uses defaults.
func NewRetryClient(config *RetryConfig) *RetryClient {
	if config == nil {
		config = &RetryConfig{MaxRetries: -1}
	}

	inner := retryablehttp.NewClient()
	inner.Logger = nil

	inner.RetryMax = config.MaxRetries
	if inner.RetryMax < 0 {
		inner.RetryMax = constants.DefaultRetryMax
	}

	inner.RetryWaitMin = config.RetryWaitMin
	if inner.RetryWaitMin <= 0 {
		inner.RetryWaitMin = constants.DefaultRetryWaitMin
	}

	inner.RetryWaitMax = config.RetryWaitMax
	if inner.RetryWaitMax <= 0 {
		inner.RetryWaitMax = constants.DefaultRetryWaitMax
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	inner.HTTPClient.Timeout = timeout
	inner.HTTPClient.CheckRedirect = noFollow

	return &RetryClient{inner: inner}
}

// Do implements pipeline.Transporter.
func (c *RetryClient) Do(req *pipeline.Request) (*pipeline.Response, error) {
	var body interface{}
	if len(req.Body) > 0 {
		body = req.Body
	}

	retryReq, err := retryablehttp.NewRequestWithContext(req.Context(), req.Method, req.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	for key, values := range req.Header {
		for _, value := range values {
			retryReq.Header.Add(key, value)
		}
	}

	httpResp, err := c.inner.Do(retryReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return fromHTTPResponse(httpResp)
}

var (
	_ pipeline.Transporter = (*Client)(nil)
	_ pipeline.Transporter = (*RetryClient)(nil)
)
