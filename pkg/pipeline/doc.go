// Package pipeline provides the request-execution substrate shared by all
// strongroom clients: an ordered chain of composable request/response
// policies terminating in a transport.
//
// A Pipeline is configured once and then shared across concurrent calls.
// Each call owns its Request; policies keep per-call state on the request's
// value bag rather than on themselves, so no cross-call synchronization is
// needed.
package pipeline
