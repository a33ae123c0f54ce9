package strongroom

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/strongroom-io/strongroom-client/pkg/pipeline"
)

// APIError represents an error returned by the vault API.
type APIError struct {
	Code    string `json:"code"    yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Status  int    `json:"-"       yaml:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (status: %d)", e.Code, e.Message, e.Status)
}

// responseError is the wire shape of a vault error response.
type responseError struct {
	Error *APIError `json:"error"`
}

// Common vault error codes.
const (
	ErrorCodeSecretNotFound  = "SecretNotFound"
	ErrorCodeSecretDisabled  = "SecretDisabled"
	ErrorCodeForbidden       = "Forbidden"
	ErrorCodeUnauthorized    = "Unauthorized"
	ErrorCodeConflict        = "Conflict"
	ErrorCodeTooManyRequests = "TooManyRequests"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrVaultURLRequired   = errors.New("vault URL is required")
	ErrSecretNameRequired = errors.New("secret name is required")
	ErrCacheMiss          = errors.New("cache miss")
	ErrCacheDisabled      = errors.New("cache disabled")
	ErrSkipTLSOnlyInDev   = errors.New("skipping TLS validation is only allowed in development environments")
)

// ParseAPIError turns an error-status response into an *APIError. Responses
// without a parseable error body still produce a typed error carrying the
// status code.
func ParseAPIError(resp *pipeline.Response) error {
	wrapper := responseError{}

	err := json.Unmarshal(resp.Body, &wrapper)
	if err == nil && wrapper.Error != nil {
		wrapper.Error.Status = resp.StatusCode

		return wrapper.Error
	}

	return &APIError{
		Code:    http.StatusText(resp.StatusCode),
		Message: string(resp.Body),
		Status:  resp.StatusCode,
	}
}

// IsNotFound checks whether the error is a vault not-found error.
func IsNotFound(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound
	}

	return false
}

// IsConflict checks whether the error is a vault conflict error.
func IsConflict(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusConflict
	}

	return false
}
