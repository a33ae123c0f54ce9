// Package client implements the strongroom.Client interface on top of the
// policy pipeline.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/strongroom-io/strongroom-client/internal/constants"
	"github.com/strongroom-io/strongroom-client/internal/transport"
	"github.com/strongroom-io/strongroom-client/pkg/pipeline"
	"github.com/strongroom-io/strongroom-client/pkg/strongroom"
)

// Version identifies this client in the User-Agent header.
const Version = "1.0.0"

// Client implements strongroom.Client.
type Client struct {
	pipeline     *pipeline.Pipeline
	baseURL      string
	logger       strongroom.Logger
	pollInterval time.Duration

	secrets *SecretsClient
}

// New creates a vault client from configuration.
func New(config *strongroom.Config) (*Client, error) {
	if config == nil {
		return nil, strongroom.ErrConfigRequired
	}

	if config.VaultURL == "" {
		return nil, strongroom.ErrVaultURLRequired
	}

	policies, err := buildPolicies(config)
	if err != nil {
		return nil, err
	}

	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = constants.DefaultPollInterval
	}

	logger := config.Logger
	if logger == nil {
		logger = strongroom.NewNoOpLogger()
	}

	client := &Client{
		pipeline:     pipeline.New(buildTransport(config), policies...),
		baseURL:      strings.TrimSuffix(config.VaultURL, "/"),
		logger:       logger,
		pollInterval: pollInterval,
	}

	client.secrets = NewSecretsClient(client)

	return client, nil
}

// Secrets implements strongroom.Client.
func (c *Client) Secrets() strongroom.SecretsClient {
	return c.secrets
}

func buildTransport(config *strongroom.Config) pipeline.Transporter {
	if config.RetryTransient {
		return transport.NewRetryClient(&transport.RetryConfig{
			MaxRetries: -1,
			Timeout:    config.HTTPTimeout,
		})
	}

	return transport.New(&transport.Config{
		Timeout:           config.HTTPTimeout,
		SkipTLSValidation: config.SkipTLSValidation,
	})
}

// buildPolicies assembles the per-client policy chain. Order matters: the
// credential-stripping policy must run between the redirect policy and the
// transport so it sees the cross-domain flag before the next hop is sent.
func buildPolicies(config *strongroom.Config) ([]pipeline.Policy, error) {
	policies := []pipeline.Policy{
		pipeline.NewRequestIDPolicy(),
		pipeline.NewHeaderPolicy(map[string]string{
			"User-Agent": "strongroom-client/" + Version,
			"Accept":     "application/json",
		}),
		pipeline.NewTokenPolicy(tokenProvider(config)),
	}

	if config.RequestsPerSecond > 0 {
		policies = append(policies, pipeline.NewRateLimitPolicy(config.RequestsPerSecond))
	}

	if config.Cache != nil {
		cache, err := strongroom.NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("building cache: %w", err)
		}

		policies = append(policies, strongroom.NewCachePolicy(cache, config.Cache.TTL))
	}

	if config.Logger != nil {
		policies = append(policies, pipeline.NewLoggingPolicy(config.Logger))
	}

	policies = append(policies,
		pipeline.NewRedirectPolicy(config.Redirects),
		pipeline.NewSensitiveHeaderCleanupPolicy(),
	)

	return policies, nil
}

func tokenProvider(config *strongroom.Config) pipeline.TokenProvider {
	if config.TokenProvider != nil {
		return config.TokenProvider
	}

	if config.AccessToken != "" {
		token := config.AccessToken

		return func(ctx context.Context) (string, error) {
			return token, nil
		}
	}

	return nil
}

// doRaw sends a request and returns the response regardless of its status
// code. Long-running operation status checks use this directly so their
// interpreters can decide terminal-ness from raw statuses.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, body any) (*pipeline.Response, error) {
	req, err := pipeline.NewRequest(ctx, method, c.baseURL+path)
	if err != nil {
		return nil, err
	}

	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		req.SetBody(data, "application/json")
	}

	return c.pipeline.Do(req)
}

// do sends a request and maps error statuses to typed API errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*pipeline.Response, error) {
	resp, err := c.doRaw(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, strongroom.ParseAPIError(resp)
	}

	return resp, nil
}
