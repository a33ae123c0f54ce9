package pipeline

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/strongroom-io/strongroom-client/internal/constants"
)

// redirectStatusCodes lists the responses this policy will follow. Anything
// else, Location header or not, is delivered to the caller as-is.
//
// Method and body semantics differ by code (RFC 9110 §15.4): 301 and 302
// rewrite POST to GET and drop the body, 303 rewrites everything but HEAD to
// GET, 307 and 308 preserve both method and body.
var redirectStatusCodes = map[int]bool{
	http.StatusMovedPermanently:  true, // 301
	http.StatusFound:             true, // 302
	http.StatusSeeOther:          true, // 303
	http.StatusTemporaryRedirect: true, // 307
	http.StatusPermanentRedirect: true, // 308
}

// value bag keys used by the redirect machinery.
const (
	redirectOptionsKey      = "pipeline.redirectOptions"
	insecureDomainChangeKey = "pipeline.insecureDomainChange"
)

// RedirectOptions configures redirect handling for a policy or a single call.
type RedirectOptions struct {
	// AllowRedirects controls whether redirect responses are followed at all.
	AllowRedirects bool

	// MaxRedirects bounds the number of hops for one call. Values <= 0 fall
	// back to the default.
	MaxRedirects int
}

// DefaultRedirectOptions returns the default redirect configuration.
func DefaultRedirectOptions() *RedirectOptions {
	return &RedirectOptions{
		AllowRedirects: true,
		MaxRedirects:   constants.DefaultMaxRedirects,
	}
}

// SetRedirectOptions overrides the redirect configuration for a single
// request. It must be called before the request enters the pipeline.
func SetRedirectOptions(req *Request, options *RedirectOptions) {
	if options == nil {
		return
	}

	req.SetValue(redirectOptionsKey, options)
}

// InsecureDomainChange reports whether the request was redirected to a
// domain other than the one it started on. The redirect policy sets this
// one-shot flag before re-sending so a downstream policy can strip
// credentials; consuming policies clear it with ClearInsecureDomainChange.
func InsecureDomainChange(req *Request) bool {
	value, ok := req.Value(insecureDomainChangeKey)
	if !ok {
		return false
	}

	flag, ok := value.(bool)

	return ok && flag
}

// ClearInsecureDomainChange clears the cross-domain redirect flag.
func ClearInsecureDomainChange(req *Request) {
	req.DeleteValue(insecureDomainChangeKey)
}

// RedirectPolicy follows redirect responses up to a configured maximum,
// flagging cross-domain hops for downstream security policies. All per-call
// bookkeeping lives on the call itself, so one policy instance serves any
// number of concurrent calls.
type RedirectPolicy struct {
	options *RedirectOptions
}

// NewRedirectPolicy creates a redirect policy. A nil options uses defaults.
func NewRedirectPolicy(options *RedirectOptions) *RedirectPolicy {
	if options == nil {
		options = DefaultRedirectOptions()
	}

	if options.MaxRedirects <= 0 {
		options.MaxRedirects = constants.DefaultMaxRedirects
	}

	return &RedirectPolicy{options: options}
}

// redirectSettings is the per-call redirect state, derived once at call
// setup.
type redirectSettings struct {
	allow   bool
	max     int
	history []*Response
}

func (p *RedirectPolicy) configure(req *Request) *redirectSettings {
	options := p.options

	if value, ok := req.Value(redirectOptionsKey); ok {
		if override, ok := value.(*RedirectOptions); ok {
			options = override
			if options.MaxRedirects <= 0 {
				options.MaxRedirects = constants.DefaultMaxRedirects
			}
		}
	}

	return &redirectSettings{
		allow: options.AllowRedirects,
		max:   options.MaxRedirects,
	}
}

// Do implements Policy. It forwards the request, and as long as the response
// is a redirect under the hop limit, rewrites the request toward the new
// location and forwards again. The first non-redirect response is delivered
// unchanged; exceeding the limit fails with TooManyRedirectsError.
func (p *RedirectPolicy) Do(req *Request) (*Response, error) {
	settings := p.configure(req)

	var originalDomain string
	if settings.allow {
		originalDomain = Domain(req.URL)
	}

	for {
		resp, err := req.Next()
		if err != nil {
			return nil, err
		}

		location := redirectLocation(resp)
		if location == nil || !settings.allow {
			return resp, nil
		}

		settings.history = append(settings.history, resp)
		if len(settings.history) >= settings.max {
			return nil, &TooManyRedirectsError{History: settings.history}
		}

		redirectRequest(req, resp.StatusCode, location)

		if domainChanged(originalDomain, req.URL) {
			req.SetValue(insecureDomainChangeKey, true)
		}
	}
}

// redirectLocation resolves the redirect target of a response, or nil when
// the response is not a well-formed redirect.
func redirectLocation(resp *Response) *url.URL {
	if !redirectStatusCodes[resp.StatusCode] {
		return nil
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil
	}

	target, err := url.Parse(location)
	if err != nil {
		// Malformed target means "not a redirect"; deliver the response.
		return nil
	}

	if resp.Request != nil && resp.Request.URL != nil {
		target = resp.Request.URL.ResolveReference(target)
	}

	if target.Host == "" {
		return nil
	}

	return target
}

// redirectRequest rewrites the request in place for the next hop.
func redirectRequest(req *Request, statusCode int, location *url.URL) {
	switch statusCode {
	case http.StatusMovedPermanently, http.StatusFound:
		if req.Method == http.MethodPost {
			req.Method = http.MethodGet
			dropBody(req)
		}
	case http.StatusSeeOther:
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			req.Method = http.MethodGet
			dropBody(req)
		}
	case http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		// Method and body preserved.
	}

	req.URL = location
}

func dropBody(req *Request) {
	req.Body = nil
	req.Header.Del("Content-Type")
	req.Header.Del("Content-Length")
}

// Domain returns the scheme+host identity of a URL, the unit of comparison
// for cross-origin redirect detection.
func Domain(u *url.URL) string {
	if u == nil {
		return ""
	}

	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func domainChanged(originalDomain string, u *url.URL) bool {
	if originalDomain == "" {
		return false
	}

	return Domain(u) != originalDomain
}
