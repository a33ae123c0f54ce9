package strongroom

import (
	"time"
)

// Secret represents a named secret stored in a vault.
type Secret struct {
	Name        string            `json:"name"                   yaml:"name"`
	Version     string            `json:"version,omitempty"      yaml:"version,omitempty"`
	Value       string            `json:"value,omitempty"        yaml:"value,omitempty"`
	ContentType string            `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Attributes  *SecretAttributes `json:"attributes,omitempty"   yaml:"attributes,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"         yaml:"tags,omitempty"`
}

// SecretAttributes carries a secret's management metadata.
type SecretAttributes struct {
	Enabled       *bool     `json:"enabled,omitempty"        yaml:"enabled,omitempty"`
	CreatedAt     time.Time `json:"created_at"               yaml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"               yaml:"updated_at"`
	RecoveryLevel string    `json:"recovery_level,omitempty" yaml:"recovery_level,omitempty"`
}

// DeletedSecret represents a soft-deleted secret awaiting purge or recovery.
// An empty RecoveryID means the vault has soft-delete disabled and the
// deletion completed synchronously.
type DeletedSecret struct {
	Secret `yaml:",inline"`

	RecoveryID       string    `json:"recovery_id,omitempty"        yaml:"recovery_id,omitempty"`
	DeletedAt        time.Time `json:"deleted_at,omitempty"         yaml:"deleted_at,omitempty"`
	ScheduledPurgeAt time.Time `json:"scheduled_purge_at,omitempty" yaml:"scheduled_purge_at,omitempty"`
}

// Link represents a single pagination link.
type Link struct {
	Href string `json:"href" yaml:"href"`
}

// Pagination represents pagination information for list responses.
type Pagination struct {
	TotalResults int   `json:"total_results"      yaml:"total_results"`
	TotalPages   int   `json:"total_pages"        yaml:"total_pages"`
	First        Link  `json:"first"              yaml:"first"`
	Last         Link  `json:"last"               yaml:"last"`
	Next         *Link `json:"next,omitempty"     yaml:"next,omitempty"`
	Previous     *Link `json:"previous,omitempty" yaml:"previous,omitempty"`
}

// ListResponse represents a paginated list response.
type ListResponse[T any] struct {
	Pagination Pagination `json:"pagination" yaml:"pagination"`
	Resources  []T        `json:"resources"  yaml:"resources"`
}

// SecretList represents a paginated list of secrets. Listed secrets carry
// metadata only, never values.
type SecretList = ListResponse[Secret]
