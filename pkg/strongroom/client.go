package strongroom

import (
	"context"

	"github.com/strongroom-io/strongroom-client/pkg/lro"
)

// Client provides access to a strongroom vault.
type Client interface {
	// Secrets returns the secrets client.
	Secrets() SecretsClient
}

// SetSecretOptions carries the optional fields of a Set call.
type SetSecretOptions struct {
	ContentType string
	Enabled     *bool
	Tags        map[string]string
}

// ListSecretsOptions controls list pagination.
type ListSecretsOptions struct {
	// Page is the 1-based page to fetch. Zero means the first page.
	Page int

	// PerPage is the page size. Zero uses the server default.
	PerPage int
}

// SecretsClient manages secrets in a vault. Delete and recover are
// long-running operations on the server: both return pollers the caller may
// block on or poll at its own pace.
type SecretsClient interface {
	// Get retrieves a secret, at a specific version when given.
	Get(ctx context.Context, name, version string) (*Secret, error)

	// Set stores a new version of a secret.
	Set(ctx context.Context, name, value string, options *SetSecretOptions) (*Secret, error)

	// List retrieves one page of secret metadata.
	List(ctx context.Context, options *ListSecretsOptions) (*SecretList, error)

	// ListAll retrieves all pages of secret metadata.
	ListAll(ctx context.Context) ([]Secret, error)

	// BeginDelete starts deleting a secret. On vaults without soft-delete
	// the deletion completes synchronously and the returned poller starts
	// terminal.
	BeginDelete(ctx context.Context, name string) (*lro.Poller[*DeletedSecret], error)

	// GetDeleted retrieves a soft-deleted secret.
	GetDeleted(ctx context.Context, name string) (*DeletedSecret, error)

	// BeginRecover starts recovering a soft-deleted secret.
	BeginRecover(ctx context.Context, name string) (*lro.Poller[*Secret], error)

	// Purge permanently removes a soft-deleted secret.
	Purge(ctx context.Context, name string) error
}
