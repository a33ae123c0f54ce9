// Package strongroom provides the public API for the strongroom secret
// vault client: client interfaces, resource types, errors, logging, and
// response caching. The implementation lives in internal/client and is
// constructed with New.
package strongroom
