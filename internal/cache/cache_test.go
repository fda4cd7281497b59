package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedEngine(store Store, hits *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(store, Options{TTL: time.Minute, SessionCookie: "weblog_session", SkipPrefixes: []string{"/admin"}}))
	r.GET("/page/", func(c *gin.Context) {
		*hits++
		c.Header("Cache-Control", "s-maxage=200")
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<p>hello</p>"))
	})
	r.GET("/missing/", func(c *gin.Context) {
		*hits++
		c.String(http.StatusNotFound, "nope")
	})
	r.GET("/admin/", func(c *gin.Context) {
		*hits++
		c.String(http.StatusOK, "admin")
	})
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareServesSecondRequestFromStore(t *testing.T) {
	store := NewMemoryStore()
	hits := 0
	r := newCachedEngine(store, &hits)

	first := serve(r, httptest.NewRequest(http.MethodGet, "/page/", nil))
	second := serve(r, httptest.NewRequest(http.MethodGet, "/page/", nil))

	assert.Equal(t, 1, hits)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "<p>hello</p>", second.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", second.Header().Get("Content-Type"))
	assert.Equal(t, "s-maxage=200", second.Header().Get("Cache-Control"))
	assert.Equal(t, []string{"s-maxage=200"}, second.Header().Values("Cache-Control"))
}

func TestMiddlewareSkipsNonCacheableRequests(t *testing.T) {
	store := NewMemoryStore()
	hits := 0
	r := newCachedEngine(store, &hits)

	serve(r, httptest.NewRequest(http.MethodGet, "/missing/", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/missing/", nil))
	assert.Equal(t, 2, hits, "non-200 responses are not cached")

	serve(r, httptest.NewRequest(http.MethodGet, "/admin/", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/admin/", nil))
	assert.Equal(t, 4, hits, "skipped prefixes are not cached")

	req := httptest.NewRequest(http.MethodGet, "/page/", nil)
	req.AddCookie(&http.Cookie{Name: "weblog_session", Value: "x"})
	serve(r, req)
	assert.Equal(t, 5, hits)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreExpiryAndPurge(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", &Page{Body: []byte("a")}, time.Minute))
	require.NoError(t, store.Set(ctx, "b", &Page{Body: []byte("b")}, time.Hour))

	now = now.Add(2 * time.Minute)
	_, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	page, ok, err := store.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", string(page.Body))

	require.NoError(t, store.Purge(ctx))
	_, ok, _ = store.Get(ctx, "b")
	assert.False(t, ok)
}
