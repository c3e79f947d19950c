package client

import (
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// NewCachingHTTPClient creates an HTTP client that honours Cache-Control on
// responses. The server uses it to fetch the backend's JWKS document, so key
// lookups after the first are served from cache until the document expires.
// An empty cacheDir keeps the cache in memory.
func NewCachingHTTPClient(cacheDir string, timeout time.Duration) *http.Client {
	var cache httpcache.Cache = httpcache.NewMemoryCache()
	if cacheDir != "" {
		cache = diskcache.New(cacheDir)
	}

	transport := httpcache.NewTransport(cache)
	transport.MarkCachedResponses = true

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// IsCachedResponse reports whether resp was served from the HTTP cache.
func IsCachedResponse(resp *http.Response) bool {
	return resp.Header.Get(httpcache.XFromCache) == "1"
}
