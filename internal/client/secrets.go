package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/strongroom-io/strongroom-client/pkg/lro"
	"github.com/strongroom-io/strongroom-client/pkg/pipeline"
	"github.com/strongroom-io/strongroom-client/pkg/strongroom"
)

// SecretsClient implements strongroom.SecretsClient.
type SecretsClient struct {
	client *Client
}

// NewSecretsClient creates a new secrets client.
func NewSecretsClient(client *Client) *SecretsClient {
	return &SecretsClient{client: client}
}

// setSecretRequest is the wire shape of a Set call.
type setSecretRequest struct {
	Value       string            `json:"value"`
	ContentType string            `json:"content_type,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// Get implements strongroom.SecretsClient.Get.
func (c *SecretsClient) Get(ctx context.Context, name, version string) (*strongroom.Secret, error) {
	if name == "" {
		return nil, strongroom.ErrSecretNameRequired
	}

	var query url.Values
	if version != "" {
		query = url.Values{"version": []string{version}}
	}

	resp, err := c.client.do(ctx, http.MethodGet, "/v1/secrets/"+url.PathEscape(name), query, nil)
	if err != nil {
		return nil, fmt.Errorf("getting secret: %w", err)
	}

	secret := &strongroom.Secret{}

	err = json.Unmarshal(resp.Body, secret)
	if err != nil {
		return nil, fmt.Errorf("parsing secret: %w", err)
	}

	return secret, nil
}

// Set implements strongroom.SecretsClient.Set.
func (c *SecretsClient) Set(ctx context.Context, name, value string, options *strongroom.SetSecretOptions) (*strongroom.Secret, error) {
	if name == "" {
		return nil, strongroom.ErrSecretNameRequired
	}

	body := setSecretRequest{Value: value}
	if options != nil {
		body.ContentType = options.ContentType
		body.Enabled = options.Enabled
		body.Tags = options.Tags
	}

	resp, err := c.client.do(ctx, http.MethodPut, "/v1/secrets/"+url.PathEscape(name), nil, body)
	if err != nil {
		return nil, fmt.Errorf("setting secret: %w", err)
	}

	secret := &strongroom.Secret{}

	err = json.Unmarshal(resp.Body, secret)
	if err != nil {
		return nil, fmt.Errorf("parsing secret: %w", err)
	}

	return secret, nil
}

// List implements strongroom.SecretsClient.List.
func (c *SecretsClient) List(ctx context.Context, options *strongroom.ListSecretsOptions) (*strongroom.SecretList, error) {
	query := url.Values{}

	if options != nil {
		if options.Page > 0 {
			query.Set("page", strconv.Itoa(options.Page))
		}

		if options.PerPage > 0 {
			query.Set("per_page", strconv.Itoa(options.PerPage))
		}
	}

	resp, err := c.client.do(ctx, http.MethodGet, "/v1/secrets", query, nil)
	if err != nil {
		return nil, fmt.Errorf("listing secrets: %w", err)
	}

	list := &strongroom.SecretList{}

	err = json.Unmarshal(resp.Body, list)
	if err != nil {
		return nil, fmt.Errorf("parsing secret list: %w", err)
	}

	return list, nil
}

// ListAll implements strongroom.SecretsClient.ListAll.
func (c *SecretsClient) ListAll(ctx context.Context) ([]strongroom.Secret, error) {
	var all []strongroom.Secret

	for page := 1; ; page++ {
		list, err := c.List(ctx, &strongroom.ListSecretsOptions{Page: page})
		if err != nil {
			return nil, err
		}

		all = append(all, list.Resources...)

		if list.Pagination.Next == nil {
			return all, nil
		}
	}
}

// BeginDelete implements strongroom.SecretsClient.BeginDelete.
//
// The vault accepts the delete synchronously but propagates it in the
// background; the returned poller tracks the soft-deleted secret becoming
// readable. A vault without soft-delete completes the deletion in the
// initial call and the poller starts terminal with no status check.
func (c *SecretsClient) BeginDelete(ctx context.Context, name string) (*lro.Poller[*strongroom.DeletedSecret], error) {
	if name == "" {
		return nil, strongroom.ErrSecretNameRequired
	}

	resp, err := c.client.do(ctx, http.MethodDelete, "/v1/secrets/"+url.PathEscape(name), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("deleting secret: %w", err)
	}

	deleted := &strongroom.DeletedSecret{}

	err = json.Unmarshal(resp.Body, deleted)
	if err != nil {
		return nil, fmt.Errorf("parsing deleted secret: %w", err)
	}

	path := "/v1/deletedsecrets/" + url.PathEscape(name)

	poller, err := lro.NewPoller(resp, lro.Options[*strongroom.DeletedSecret]{
		StatusCheck: func(ctx context.Context) (*pipeline.Response, error) {
			return c.client.doRaw(ctx, http.MethodGet, path, nil, nil)
		},
		Interpret:     interpretPropagation,
		FinalResource: deleted,
		Finished:      deleted.RecoveryID == "",
		Interval:      c.client.pollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("building delete poller: %w", err)
	}

	return poller, nil
}

// GetDeleted implements strongroom.SecretsClient.GetDeleted.
func (c *SecretsClient) GetDeleted(ctx context.Context, name string) (*strongroom.DeletedSecret, error) {
	if name == "" {
		return nil, strongroom.ErrSecretNameRequired
	}

	resp, err := c.client.do(ctx, http.MethodGet, "/v1/deletedsecrets/"+url.PathEscape(name), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("getting deleted secret: %w", err)
	}

	deleted := &strongroom.DeletedSecret{}

	err = json.Unmarshal(resp.Body, deleted)
	if err != nil {
		return nil, fmt.Errorf("parsing deleted secret: %w", err)
	}

	return deleted, nil
}

// BeginRecover implements strongroom.SecretsClient.BeginRecover.
func (c *SecretsClient) BeginRecover(ctx context.Context, name string) (*lro.Poller[*strongroom.Secret], error) {
	if name == "" {
		return nil, strongroom.ErrSecretNameRequired
	}

	resp, err := c.client.do(ctx, http.MethodPost, "/v1/deletedsecrets/"+url.PathEscape(name)+"/recover", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("recovering secret: %w", err)
	}

	recovered := &strongroom.Secret{}

	err = json.Unmarshal(resp.Body, recovered)
	if err != nil {
		return nil, fmt.Errorf("parsing recovered secret: %w", err)
	}

	path := "/v1/secrets/" + url.PathEscape(name)

	poller, err := lro.NewPoller(resp, lro.Options[*strongroom.Secret]{
		StatusCheck: func(ctx context.Context) (*pipeline.Response, error) {
			return c.client.doRaw(ctx, http.MethodGet, path, nil, nil)
		},
		Interpret:     interpretPropagation,
		FinalResource: recovered,
		Interval:      c.client.pollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("building recover poller: %w", err)
	}

	return poller, nil
}

// Purge implements strongroom.SecretsClient.Purge.
func (c *SecretsClient) Purge(ctx context.Context, name string) error {
	if name == "" {
		return strongroom.ErrSecretNameRequired
	}

	_, err := c.client.do(ctx, http.MethodDelete, "/v1/deletedsecrets/"+url.PathEscape(name), nil, nil)
	if err != nil {
		return fmt.Errorf("purging secret: %w", err)
	}

	return nil
}

// interpretPropagation decides delete/recover terminal-ness: the target
// resource being readable means the operation finished, a 404 means the
// change is still propagating, and anything else is a real failure.
func interpretPropagation(resp *pipeline.Response) (lro.State, error) {
	switch {
	case resp.StatusCode == http.StatusOK:
		return lro.StateSucceeded, nil
	case resp.StatusCode == http.StatusNotFound:
		return lro.StateInProgress, nil
	default:
		return lro.StateFailed, strongroom.ParseAPIError(resp)
	}
}
