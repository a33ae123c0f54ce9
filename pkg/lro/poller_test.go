package lro_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strongroom-io/strongroom-client/pkg/lro"
	"github.com/strongroom-io/strongroom-client/pkg/pipeline"
)

const testInterval = 5 * time.Millisecond

// scriptedCheck returns canned status responses in order and counts calls.
type scriptedCheck struct {
	calls     int
	responses []*pipeline.Response
	errs      []error
}

func (c *scriptedCheck) check(ctx context.Context) (*pipeline.Response, error) {
	index := c.calls
	c.calls++

	if index < len(c.errs) && c.errs[index] != nil {
		return nil, c.errs[index]
	}

	if index >= len(c.responses) {
		index = len(c.responses) - 1
	}

	return c.responses[index], nil
}

func statusResponse(status int) *pipeline.Response {
	return &pipeline.Response{StatusCode: status, Header: make(http.Header)}
}

func TestPoller_FinishedAtCreation(t *testing.T) {
	check := &scriptedCheck{responses: []*pipeline.Response{statusResponse(http.StatusOK)}}

	poller, err := lro.NewPoller(statusResponse(http.StatusOK), lro.Options[string]{
		StatusCheck:   check.check,
		FinalResource: "the-resource",
		Finished:      true,
		Interval:      testInterval,
	})
	require.NoError(t, err)

	assert.True(t, poller.Done())
	assert.Equal(t, lro.StateSucceeded, poller.State())

	result, err := poller.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "the-resource", result)

	assert.Zero(t, check.calls, "a finished poller must never invoke its status check")
}

func TestPoller_DoneIsStableAndFree(t *testing.T) {
	check := &scriptedCheck{responses: []*pipeline.Response{statusResponse(http.StatusOK)}}

	poller, err := lro.NewPoller(statusResponse(http.StatusAccepted), lro.Options[string]{
		StatusCheck: check.check,
		Interval:    testInterval,
	})
	require.NoError(t, err)

	require.NoError(t, poller.Poll(context.Background()))
	require.True(t, poller.Done())

	callsAfterTerminal := check.calls
	for range 5 {
		assert.True(t, poller.Done())
	}

	assert.Equal(t, callsAfterTerminal, check.calls)
}

func TestPoller_PollIdempotentWhenTerminal(t *testing.T) {
	check := &scriptedCheck{responses: []*pipeline.Response{statusResponse(http.StatusOK)}}

	poller, err := lro.NewPoller(statusResponse(http.StatusAccepted), lro.Options[string]{
		StatusCheck: check.check,
		Interval:    testInterval,
	})
	require.NoError(t, err)

	require.NoError(t, poller.Poll(context.Background()))
	require.NoError(t, poller.Poll(context.Background()))
	require.NoError(t, poller.Poll(context.Background()))

	assert.Equal(t, 1, check.calls)
}

func TestPoller_WaitUntilSucceeded(t *testing.T) {
	check := &scriptedCheck{responses: []*pipeline.Response{
		statusResponse(http.StatusAccepted),
		statusResponse(http.StatusAccepted),
		statusResponse(http.StatusOK),
	}}

	poller, err := lro.NewPoller(statusResponse(http.StatusAccepted), lro.Options[string]{
		StatusCheck:   check.check,
		FinalResource: "done",
		Interval:      testInterval,
	})
	require.NoError(t, err)

	require.NoError(t, poller.Wait(context.Background()))
	assert.Equal(t, lro.StateSucceeded, poller.State())
	assert.Equal(t, 3, check.calls)

	result, err := poller.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", result)
}

func TestPoller_StatusCheckErrorSurfacesAndStateSurvives(t *testing.T) {
	checkErr := errors.New("secret not found")
	check := &scriptedCheck{
		errs:      []error{checkErr},
		responses: []*pipeline.Response{statusResponse(http.StatusOK)},
	}

	poller, err := lro.NewPoller(statusResponse(http.StatusAccepted), lro.Options[string]{
		StatusCheck:   check.check,
		FinalResource: "done",
		Interval:      testInterval,
	})
	require.NoError(t, err)

	err = poller.Poll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, checkErr)
	assert.Equal(t, lro.StateInProgress, poller.State(), "an errored poll must not move the state machine")

	// The next poll proceeds normally.
	require.NoError(t, poller.Poll(context.Background()))
	assert.Equal(t, lro.StateSucceeded, poller.State())
}

func TestPoller_OperationFailure(t *testing.T) {
	check := &scriptedCheck{responses: []*pipeline.Response{
		statusResponse(http.StatusInternalServerError),
	}}

	poller, err := lro.NewPoller(statusResponse(http.StatusAccepted), lro.Options[string]{
		StatusCheck: check.check,
		Interval:    testInterval,
	})
	require.NoError(t, err)

	err = poller.Poll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, lro.ErrOperationFailed)
	assert.Equal(t, lro.StateFailed, poller.State())

	// Terminal failure sticks; Result reports it without further checks.
	_, err = poller.Result(context.Background())
	assert.ErrorIs(t, err, lro.ErrOperationFailed)
	assert.Equal(t, 1, check.calls)
}

func TestPoller_WaitCancellationIsResumable(t *testing.T) {
	check := &scriptedCheck{responses: []*pipeline.Response{
		statusResponse(http.StatusAccepted),
		statusResponse(http.StatusAccepted),
		statusResponse(http.StatusOK),
	}}

	poller, err := lro.NewPoller(statusResponse(http.StatusAccepted), lro.Options[string]{
		StatusCheck:   check.check,
		FinalResource: "done",
		Interval:      50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = poller.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, poller.Done())

	// A fresh wait picks up where the aborted one left off.
	require.NoError(t, poller.Wait(context.Background()))
	assert.Equal(t, lro.StateSucceeded, poller.State())
}

func TestPoller_ResultBlocksUntilTerminal(t *testing.T) {
	check := &scriptedCheck{responses: []*pipeline.Response{
		statusResponse(http.StatusAccepted),
		statusResponse(http.StatusNoContent),
	}}

	poller, err := lro.NewPoller(statusResponse(http.StatusAccepted), lro.Options[int]{
		StatusCheck:   check.check,
		FinalResource: 42,
		Interval:      testInterval,
	})
	require.NoError(t, err)

	result, err := poller.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 2, check.calls)
}

func TestPoller_CustomInterpreter(t *testing.T) {
	// Interpret 404 as "still propagating", the delete/recover convention.
	interpret := func(resp *pipeline.Response) (lro.State, error) {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return lro.StateInProgress, nil
		case http.StatusOK:
			return lro.StateSucceeded, nil
		default:
			return lro.StateFailed, lro.ErrOperationFailed
		}
	}

	check := &scriptedCheck{responses: []*pipeline.Response{
		statusResponse(http.StatusNotFound),
		statusResponse(http.StatusNotFound),
		statusResponse(http.StatusOK),
	}}

	poller, err := lro.NewPoller(statusResponse(http.StatusOK), lro.Options[string]{
		StatusCheck:   check.check,
		Interpret:     interpret,
		FinalResource: "recovered",
		Interval:      testInterval,
	})
	require.NoError(t, err)

	require.NoError(t, poller.Wait(context.Background()))
	assert.Equal(t, 3, check.calls)
}

func TestPoller_LastResponseTracksPolls(t *testing.T) {
	initial := statusResponse(http.StatusOK)
	next := statusResponse(http.StatusAccepted)

	check := &scriptedCheck{responses: []*pipeline.Response{next}}

	poller, err := lro.NewPoller(initial, lro.Options[string]{
		StatusCheck: check.check,
		Interval:    testInterval,
	})
	require.NoError(t, err)

	assert.Same(t, initial, poller.LastResponse())

	require.NoError(t, poller.Poll(context.Background()))
	assert.Same(t, next, poller.LastResponse())
}

func TestNewPoller_RequiresStatusCheck(t *testing.T) {
	_, err := lro.NewPoller(statusResponse(http.StatusAccepted), lro.Options[string]{})
	assert.ErrorIs(t, err, lro.ErrStatusCheckRequired)
}
