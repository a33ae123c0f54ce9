package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strongroom-io/strongroom-client/pkg/pipeline"
)

// transportCall captures what the transport saw for one exchange.
type transportCall struct {
	Method               string
	URL                  string
	Header               http.Header
	Body                 []byte
	InsecureDomainChange bool
}

// scriptedTransport returns canned responses in order and records every
// exchange.
type scriptedTransport struct {
	mu        sync.Mutex
	responses []*pipeline.Response
	err       error
	calls     []transportCall
}

func (t *scriptedTransport) Do(req *pipeline.Request) (*pipeline.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls = append(t.calls, transportCall{
		Method:               req.Method,
		URL:                  req.URL.String(),
		Header:               req.Header.Clone(),
		Body:                 append([]byte(nil), req.Body...),
		InsecureDomainChange: pipeline.InsecureDomainChange(req),
	})

	if t.err != nil {
		return nil, t.err
	}

	if len(t.responses) == 0 {
		return &pipeline.Response{StatusCode: http.StatusOK, Header: make(http.Header)}, nil
	}

	resp := t.responses[0]
	t.responses = t.responses[1:]

	return resp, nil
}

func okResponse() *pipeline.Response {
	return &pipeline.Response{StatusCode: http.StatusOK, Header: make(http.Header)}
}

func redirectResponse(status int, location string) *pipeline.Response {
	header := make(http.Header)
	header.Set("Location", location)

	return &pipeline.Response{StatusCode: status, Header: header}
}

func newRequest(t *testing.T, method, rawURL string) *pipeline.Request {
	t.Helper()

	req, err := pipeline.NewRequest(context.Background(), method, rawURL)
	require.NoError(t, err)

	return req
}

func TestPipeline_PolicyOrder(t *testing.T) {
	var order []string

	named := func(name string) pipeline.Policy {
		return pipeline.PolicyFunc(func(req *pipeline.Request) (*pipeline.Response, error) {
			order = append(order, name+"-in")
			resp, err := req.Next()
			order = append(order, name+"-out")

			return resp, err
		})
	}

	transport := &scriptedTransport{}
	pl := pipeline.New(transport, named("first"), named("second"))

	resp, err := pl.Do(newRequest(t, http.MethodGet, "http://vault.example/v1/secrets"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"first-in", "second-in", "second-out", "first-out"}, order)
	assert.Len(t, transport.calls, 1)
}

func TestPipeline_ShortCircuit(t *testing.T) {
	transport := &scriptedTransport{}
	canned := &pipeline.Response{StatusCode: http.StatusTeapot, Header: make(http.Header)}

	pl := pipeline.New(transport, pipeline.PolicyFunc(func(req *pipeline.Request) (*pipeline.Response, error) {
		return canned, nil
	}))

	resp, err := pl.Do(newRequest(t, http.MethodGet, "http://vault.example/v1/secrets"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Empty(t, transport.calls, "short-circuiting policy must not reach the transport")
}

func TestPipeline_PolicyMayForwardTwice(t *testing.T) {
	transport := &scriptedTransport{responses: []*pipeline.Response{okResponse(), okResponse()}}

	pl := pipeline.New(transport, pipeline.PolicyFunc(func(req *pipeline.Request) (*pipeline.Response, error) {
		_, err := req.Next()
		if err != nil {
			return nil, err
		}

		return req.Next()
	}))

	_, err := pl.Do(newRequest(t, http.MethodGet, "http://vault.example/v1/secrets"))
	require.NoError(t, err)
	assert.Len(t, transport.calls, 2)
}

func TestPipeline_RequestMutationVisibleDownstream(t *testing.T) {
	transport := &scriptedTransport{}

	pl := pipeline.New(transport, pipeline.PolicyFunc(func(req *pipeline.Request) (*pipeline.Response, error) {
		req.Header.Set("X-Stamped", "yes")

		return req.Next()
	}))

	_, err := pl.Do(newRequest(t, http.MethodGet, "http://vault.example/v1/secrets"))
	require.NoError(t, err)
	require.Len(t, transport.calls, 1)
	assert.Equal(t, "yes", transport.calls[0].Header.Get("X-Stamped"))
}

func TestPipeline_TransportErrorPassesThrough(t *testing.T) {
	transportErr := errors.New("connection refused")
	transport := &scriptedTransport{err: transportErr}

	pl := pipeline.New(transport)

	resp, err := pl.Do(newRequest(t, http.MethodGet, "http://vault.example/v1/secrets"))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, transportErr)
}

func TestPipeline_NoTransport(t *testing.T) {
	pl := pipeline.New(nil)

	_, err := pl.Do(newRequest(t, http.MethodGet, "http://vault.example/v1/secrets"))
	assert.ErrorIs(t, err, pipeline.ErrNoTransport)
}

func TestPipeline_NilRequest(t *testing.T) {
	pl := pipeline.New(&scriptedTransport{})

	_, err := pl.Do(nil)
	assert.ErrorIs(t, err, pipeline.ErrNilRequest)
}

func TestPipeline_ResponseBackReference(t *testing.T) {
	transport := &scriptedTransport{}
	pl := pipeline.New(transport)

	req := newRequest(t, http.MethodGet, "http://vault.example/v1/secrets")

	resp, err := pl.Do(req)
	require.NoError(t, err)
	require.NotNil(t, resp.Request)
	assert.Equal(t, "http://vault.example/v1/secrets", resp.Request.URL.String())
}

func TestPipeline_ConcurrentCalls(t *testing.T) {
	// One configured pipeline serving many independent calls; per-call state
	// must never leak between them.
	echo := pipeline.PolicyFunc(func(req *pipeline.Request) (*pipeline.Response, error) {
		header := make(http.Header)
		header.Set("X-Echo", req.Header.Get("X-Caller"))

		return &pipeline.Response{StatusCode: http.StatusOK, Header: header, Request: req}, nil
	})

	pl := pipeline.New(&scriptedTransport{}, pipeline.NewRequestIDPolicy(), echo)

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			caller := fmt.Sprintf("caller-%d", i)

			req, err := pipeline.NewRequest(context.Background(), http.MethodGet, "http://vault.example/v1/secrets")
			if err != nil {
				t.Error(err)

				return
			}

			req.Header.Set("X-Caller", caller)

			resp, err := pl.Do(req)
			if err != nil {
				t.Error(err)

				return
			}

			if resp.Header.Get("X-Echo") != caller {
				t.Errorf("response for %s carried %q", caller, resp.Header.Get("X-Echo"))
			}
		}(i)
	}

	wg.Wait()
}

func TestNewRequest_Validation(t *testing.T) {
	_, err := pipeline.NewRequest(context.Background(), http.MethodGet, "/relative/only")
	assert.ErrorIs(t, err, pipeline.ErrNoHostInURL)
}

func TestRequest_Values(t *testing.T) {
	req := newRequest(t, http.MethodGet, "http://vault.example/")

	_, ok := req.Value("missing")
	assert.False(t, ok)

	req.SetValue("key", 42)

	value, ok := req.Value("key")
	require.True(t, ok)
	assert.Equal(t, 42, value)

	req.DeleteValue("key")

	_, ok = req.Value("key")
	assert.False(t, ok)
}
