// Package lro tracks server-side long-running operations to completion.
//
// A Poller wraps the response that started an operation together with a
// status check that re-reads the operation's state. Callers either block on
// Wait/Result or drive the state machine themselves with Poll and Done. A
// Poller is owned by one logical caller at a time; concurrent Poll calls on
// the same instance are not synchronized.
package lro

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/strongroom-io/strongroom-client/internal/constants"
	"github.com/strongroom-io/strongroom-client/pkg/pipeline"
)

// Static errors for err113 compliance.
var (
	ErrStatusCheckRequired = errors.New("a status check is required for an unfinished operation")
	ErrOperationFailed     = errors.New("operation failed")
)

// State describes where an operation is in its lifecycle. Transitions are
// monotonic: InProgress moves to exactly one of Succeeded or Failed and
// never leaves it.
type State string

const (
	// StateInProgress means the server is still working.
	StateInProgress State = "InProgress"

	// StateSucceeded means the operation completed and the final resource is
	// available.
	StateSucceeded State = "Succeeded"

	// StateFailed means the operation reached a terminal failure.
	StateFailed State = "Failed"
)

// StatusCheck re-reads the current state of an operation. Errors it returns
// are surfaced to the caller verbatim; they never silently prolong polling.
type StatusCheck func(ctx context.Context) (*pipeline.Response, error)

// Interpreter decides terminal-ness from a status check response. Returning
// StateFailed (with or without an error) makes the failure terminal; any
// returned error is what Result reports.
type Interpreter func(resp *pipeline.Response) (State, error)

// InterpretStatusCode is the default interpreter: 202 means still working,
// any other 2xx means done, and an error status is a terminal failure.
func InterpretStatusCode(resp *pipeline.Response) (State, error) {
	switch {
	case resp.StatusCode == http.StatusAccepted:
		return StateInProgress, nil
	case resp.StatusCode < 300:
		return StateSucceeded, nil
	default:
		return StateFailed, fmt.Errorf("%w: unexpected status %d", ErrOperationFailed, resp.StatusCode)
	}
}

// Options configures a Poller.
type Options[T any] struct {
	// StatusCheck re-reads the operation state. Required unless Finished.
	StatusCheck StatusCheck

	// Interpret decides terminal-ness from a status check response. Nil uses
	// InterpretStatusCode.
	Interpret Interpreter

	// FinalResource is the resource returned by Result once the operation
	// succeeds.
	FinalResource T

	// Finished marks the operation terminal at creation time. Some
	// operations complete synchronously on the server; their pollers never
	// invoke the status check.
	Finished bool

	// Interval is the delay between polls inside Wait. Values <= 0 use the
	// default.
	Interval time.Duration
}

// Poller is a client-side state machine tracking one long-running operation.
type Poller[T any] struct {
	statusCheck StatusCheck
	interpret   Interpreter
	interval    time.Duration

	state         State
	lastResponse  *pipeline.Response
	finalResource T
	failure       error
}

// NewPoller creates a poller from the response that started the operation.
func NewPoller[T any](initial *pipeline.Response, options Options[T]) (*Poller[T], error) {
	if options.StatusCheck == nil && !options.Finished {
		return nil, ErrStatusCheckRequired
	}

	interpret := options.Interpret
	if interpret == nil {
		interpret = InterpretStatusCode
	}

	interval := options.Interval
	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}

	state := StateInProgress
	if options.Finished {
		state = StateSucceeded
	}

	return &Poller[T]{
		statusCheck:   options.StatusCheck,
		interpret:     interpret,
		interval:      interval,
		state:         state,
		lastResponse:  initial,
		finalResource: options.FinalResource,
	}, nil
}

// Done reports whether the operation reached a terminal state. It never
// triggers a status check.
func (p *Poller[T]) Done() bool {
	return p.state != StateInProgress
}

// State returns the current operation state.
func (p *Poller[T]) State() State {
	return p.state
}

// LastResponse returns the most recent response observed for the operation,
// starting with the one that created the poller.
func (p *Poller[T]) LastResponse() *pipeline.Response {
	return p.lastResponse
}

// Poll performs a single status check and updates the poller's state. It is
// a no-op once the operation is terminal. A failed status check leaves the
// state untouched, so an aborted or errored poll can simply be retried.
func (p *Poller[T]) Poll(ctx context.Context) error {
	if p.Done() {
		return nil
	}

	resp, err := p.statusCheck(ctx)
	if err != nil {
		return fmt.Errorf("checking operation status: %w", err)
	}

	state, interpretErr := p.interpret(resp)

	p.lastResponse = resp
	p.state = state

	if state == StateFailed {
		p.failure = interpretErr
		if p.failure == nil {
			p.failure = ErrOperationFailed
		}

		return p.failure
	}

	return interpretErr
}

// Wait blocks until the operation is terminal, polling at the configured
// interval. Cancelling the context aborts the wait without corrupting the
// poller; a later Wait resumes where it left off. A terminal failure is
// returned as the operation's error.
func (p *Poller[T]) Wait(ctx context.Context) error {
	// First check immediately.
	err := p.Poll(ctx)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for !p.Done() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for operation: %w", ctx.Err())
		case <-ticker.C:
			err = p.Poll(ctx)
			if err != nil {
				return err
			}
		}
	}

	if p.state == StateFailed {
		return p.failure
	}

	return nil
}

// Result returns the operation's final resource, blocking like Wait when
// the operation is still in progress.
func (p *Poller[T]) Result(ctx context.Context) (T, error) {
	if !p.Done() {
		err := p.Wait(ctx)
		if err != nil {
			var zero T

			return zero, err
		}
	}

	if p.state == StateFailed {
		var zero T

		return zero, p.failure
	}

	return p.finalResource, nil
}
