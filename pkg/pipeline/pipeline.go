package pipeline

import (
	"fmt"
)

// Policy is a unit of request/response interception. A policy may pass the
// request through, mutate it before forwarding, transform the response after
// Next returns, short-circuit without forwarding, or forward more than once.
//
// A configured policy is shared by every call going through its pipeline, so
// it must not keep per-call state on itself; per-call bookkeeping belongs in
// the request's value bag.
type Policy interface {
	Do(req *Request) (*Response, error)
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(*Request) (*Response, error)

// Do implements Policy.
func (f PolicyFunc) Do(req *Request) (*Response, error) {
	return f(req)
}

// Transporter performs a single request/response exchange. Implementations
// carry no redirect awareness; following redirects is the pipeline's job.
type Transporter interface {
	Do(req *Request) (*Response, error)
}

// Pipeline is an ordered chain of policies terminating in a transport.
// Construct once, then share freely: Do is safe for concurrent callers as
// long as each call owns its Request.
type Pipeline struct {
	policies []Policy
}

// New creates a pipeline from a transport and an ordered list of policies.
// Policies run in the order given; the transport runs last.
func New(transport Transporter, policies ...Policy) *Pipeline {
	chain := make([]Policy, 0, len(policies)+1)
	chain = append(chain, policies...)
	chain = append(chain, transportPolicy{transport: transport})

	return &Pipeline{policies: chain}
}

// Do sends the request through the policy chain and returns the final
// response.
func (p *Pipeline) Do(req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	req.policies = p.policies

	return req.Next()
}

// transportPolicy terminates the chain by handing the request to the
// transport.
type transportPolicy struct {
	transport Transporter
}

func (t transportPolicy) Do(req *Request) (*Response, error) {
	if t.transport == nil {
		return nil, ErrNoTransport
	}

	resp, err := t.transport.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	if resp == nil {
		return nil, ErrNilResponse
	}

	resp.Request = req

	return resp, nil
}
