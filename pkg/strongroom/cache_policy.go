package strongroom

import (
	"net/http"
	"time"

	"github.com/strongroom-io/strongroom-client/internal/constants"
	"github.com/strongroom-io/strongroom-client/pkg/pipeline"
)

// CachePolicy serves GET requests from a Cache and stores fresh responses
// on the way back. Non-GET requests and error responses pass through
// untouched.
type CachePolicy struct {
	cache Cache
	ttl   time.Duration
}

// NewCachePolicy creates a cache policy. A TTL <= 0 uses the default.
func NewCachePolicy(cache Cache, ttl time.Duration) *CachePolicy {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}

	return &CachePolicy{cache: cache, ttl: ttl}
}

// Do implements pipeline.Policy.
func (p *CachePolicy) Do(req *pipeline.Request) (*pipeline.Response, error) {
	if p.cache == nil || req.Method != http.MethodGet {
		return req.Next()
	}

	key := req.Method + " " + req.URL.String()

	entry, err := p.cache.Get(req.Context(), key)
	if err == nil {
		return &pipeline.Response{
			StatusCode: entry.StatusCode,
			Header:     entry.Header.Clone(),
			Body:       entry.Body,
			Request:    req,
		}, nil
	}

	resp, err := req.Next()
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		_ = p.cache.Set(req.Context(), key, &CacheEntry{
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       resp.Body,
			StoredAt:   time.Now(),
			TTL:        p.ttl,
		})
	}

	return resp, nil
}
