package pipeline

import (
	"errors"
	"fmt"
)

// Static errors for err113 compliance.
var (
	ErrNoHostInURL       = errors.New("no host specified in URL")
	ErrNilRequest        = errors.New("request is nil")
	ErrNilResponse       = errors.New("transport returned a nil response")
	ErrNoTransport       = errors.New("pipeline has no transport configured")
	ErrPipelineExhausted = errors.New("no remaining policies in pipeline")
)

// TooManyRedirectsError is returned when a call exceeds its configured
// maximum number of redirect hops. History holds the redirect responses in
// hop order so the caller can diagnose the chain.
type TooManyRedirectsError struct {
	History []*Response
}

// Error implements the error interface.
func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("too many redirects: stopped after %d hops", len(e.History))
}
