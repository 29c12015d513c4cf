package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/stream-user-service/internal/config"
	"github.com/iliyamo/stream-user-service/internal/model"
)

func cacheCtx(t *testing.T, uri string, viewer uint64) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, uri, nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/v1/users/c/:username")
	if viewer != 0 {
		c.Set("user", model.User{ID: viewer})
	}
	return c
}

// Cached channel-profile bodies contain a per-viewer field, so no strategy
// may ever produce the same key for two different viewers.
func TestCacheKeyIsolatesViewers(t *testing.T) {
	for _, strategy := range []string{"route", "route_query", "user_route", "user_route_query"} {
		cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: strategy}

		a := cacheKeyFrom(cfg, cacheCtx(t, "/api/v1/users/c/bob", 1))
		b := cacheKeyFrom(cfg, cacheCtx(t, "/api/v1/users/c/bob", 2))
		assert.NotEqual(t, a, b, "strategy %q must not share keys across viewers", strategy)

		again := cacheKeyFrom(cfg, cacheCtx(t, "/api/v1/users/c/bob", 1))
		assert.Equal(t, a, again, "strategy %q must be stable for one viewer", strategy)
	}
}

func TestCacheKeyVariesByRequestURI(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "user_route"}

	bob := cacheKeyFrom(cfg, cacheCtx(t, "/api/v1/users/c/bob", 1))
	alice := cacheKeyFrom(cfg, cacheCtx(t, "/api/v1/users/c/alice", 1))
	assert.NotEqual(t, bob, alice, "path params must separate cache entries")
}

func TestCacheKeyIncludesQueryString(t *testing.T) {
	plain := cacheCtx(t, "/api/v1/users/c/bob", 1)
	withQuery := cacheCtx(t, "/api/v1/users/c/bob?page=2", 1)

	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "user_route_query"}
	assert.NotEqual(t, cacheKeyFrom(cfg, plain), cacheKeyFrom(cfg, withQuery))
}
