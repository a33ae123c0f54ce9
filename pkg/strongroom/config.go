package strongroom

import (
	"time"

	"github.com/strongroom-io/strongroom-client/pkg/pipeline"
)

// Config configures a vault client.
type Config struct {
	// VaultURL is the base URL of the vault API. Required.
	VaultURL string

	// AccessToken authenticates requests when TokenProvider is unset.
	AccessToken string

	// TokenProvider supplies bearer tokens per request; it takes precedence
	// over AccessToken.
	TokenProvider pipeline.TokenProvider

	// HTTPTimeout bounds a single exchange. Zero uses the default.
	HTTPTimeout time.Duration

	// SkipTLSValidation disables certificate verification. Development only.
	SkipTLSValidation bool

	// RetryTransient enables the retrying transport for transient failures.
	RetryTransient bool

	// Redirects overrides the default redirect handling.
	Redirects *pipeline.RedirectOptions

	// RequestsPerSecond enables client-side rate limiting when > 0.
	RequestsPerSecond int

	// PollInterval is the delay between long-running operation status
	// checks. Zero uses the default.
	PollInterval time.Duration

	// Cache configures GET response caching. Nil disables it.
	Cache *CacheConfig

	// Logger receives request/response logs. Nil disables logging.
	Logger Logger
}
