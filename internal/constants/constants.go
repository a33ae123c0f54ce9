package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits applied inside the retrying transport.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Redirect handling defaults.
const (
	// DefaultMaxRedirects bounds how many redirect hops a single call may follow.
	DefaultMaxRedirects = 30
)

// Long-running operation polling.
const (
	// DefaultPollInterval is the delay between operation status checks.
	DefaultPollInterval = 2 * time.Second

	// QuickPollInterval is used for fast polling in tests and demos.
	QuickPollInterval = 10 * time.Millisecond

	// DefaultPollTimeout bounds how long a blocking wait may run.
	DefaultPollTimeout = 5 * time.Minute
)

// Cache defaults.
const (
	// DefaultCacheSize is the maximum number of entries in the memory cache.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is how long a cached response stays fresh.
	DefaultCacheTTL = 5 * time.Minute
)

// Rate limiting defaults.
const (
	// DefaultRequestsPerSecond is the client-side rate limit when enabled.
	DefaultRequestsPerSecond = 50
)
