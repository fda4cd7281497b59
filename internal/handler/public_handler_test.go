package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weblog/internal/config"
	"github.com/weblog/internal/service"
)

func publicEngine(api *API) *gin.Engine {
	router := newTestEngine(api)
	router.GET("/", api.ShowHome)
	router.GET("/search/", api.ShowSearch)
	router.GET("/tags/", api.ShowTagIndex)
	router.GET("/tags/:tags/", api.ShowTagArchive)
	router.GET("/writing/", api.ShowEntryArchive)
	router.GET("/writing/:slug/", api.RedirectEntry)
	router.GET("/:year/", api.ShowArchiveYear)
	router.GET("/:year/:month/", api.ShowArchiveMonth)
	router.GET("/:year/:month/:day/", api.ShowArchiveDay)
	router.GET("/:year/:month/:day/:slug/", api.ShowArchiveItem)
	return router
}

func seedPublicContent(t *testing.T, api *API) {
	t.Helper()
	content := service.NewContentService(api.DB())

	_, err := content.CreateEntry(service.EntryInput{
		Title: "Datasette 1.0",
		Body:  "<p>Datasette reached a milestone</p>",
		ContentFields: service.ContentFields{
			Created: time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
			Tags:    []string{"datasette", "python"},
		},
	})
	require.NoError(t, err)

	_, err = content.CreateBlogmark(service.BlogmarkInput{
		LinkURL:    "https://example.org/sqlite",
		LinkTitle:  "SQLite tips",
		Commentary: "Useful notes",
		ContentFields: service.ContentFields{
			Created: time.Date(2024, time.March, 5, 18, 0, 0, 0, time.UTC),
			Tags:    []string{"sqlite"},
		},
	})
	require.NoError(t, err)

	_, err = content.CreateQuotation(service.QuotationInput{
		Quotation: "Simple things should be simple",
		Source:    "Alan Kay",
		ContentFields: service.ContentFields{
			Created: time.Date(2023, time.July, 1, 9, 0, 0, 0, time.UTC),
			Slug:    "simple-things",
			Tags:    []string{"python"},
		},
	})
	require.NoError(t, err)
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestShowHomeRenders(t *testing.T) {
	api := setupTestAPI(t, config.EnvironmentProduction)
	seedPublicContent(t, api)

	w := get(publicEngine(api), "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "home.html", w.Body.String())
	assert.Equal(t, "s-maxage=200", w.Header().Get("Cache-Control"))
}

func TestShowArchiveItemFindsEachKind(t *testing.T) {
	api := setupTestAPI(t, config.EnvironmentProduction)
	seedPublicContent(t, api)
	router := publicEngine(api)

	for _, path := range []string{
		"/2024/mar/5/datasette-10/",
		"/2024/mar/5/sqlite-tips/",
		"/2023/jul/1/simple-things/",
	} {
		w := get(router, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "item.html", w.Body.String(), path)
	}
}

func TestShowArchiveItemNotFound(t *testing.T) {
	api := setupTestAPI(t, config.EnvironmentProduction)
	seedPublicContent(t, api)
	router := publicEngine(api)

	for _, path := range []string{
		"/2024/mar/6/datasette-10/",
		"/2024/xyz/5/datasette-10/",
		"/2024/mar/40/datasette-10/",
		"/24/mar/5/datasette-10/",
		"/2024/mar/5/missing/",
	} {
		w := get(router, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "error.html", w.Body.String(), path)
	}
}

func TestArchiveListings(t *testing.T) {
	api := setupTestAPI(t, config.EnvironmentProduction)
	seedPublicContent(t, api)
	router := publicEngine(api)

	assert.Equal(t, http.StatusOK, get(router, "/2024/").Code)
	assert.Equal(t, http.StatusOK, get(router, "/2024/mar/").Code)
	assert.Equal(t, http.StatusOK, get(router, "/2024/mar/5/").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/2024/feb/").Code)
}

func TestRedirectEntry(t *testing.T) {
	api := setupTestAPI(t, config.EnvironmentProduction)
	seedPublicContent(t, api)
	router := publicEngine(api)

	w := get(router, "/writing/datasette-10/")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/2024/mar/5/datasette-10/", w.Header().Get("Location"))

	assert.Equal(t, http.StatusNotFound, get(router, "/writing/nope/").Code)
}

func TestShowSearchStatuses(t *testing.T) {
	api := setupTestAPI(t, config.EnvironmentProduction)
	seedPublicContent(t, api)
	router := publicEngine(api)

	cases := []struct {
		target string
		status int
	}{
		{"/search/", http.StatusOK},
		{"/search/?q=datasette", http.StatusOK},
		{"/search/?tag=python&year=2024", http.StatusOK},
		{"/search/?year=twenty", http.StatusBadRequest},
		{"/search/?month=13", http.StatusBadRequest},
		{"/search/?page=abc", http.StatusNotFound},
		{"/search/?page=99", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := get(router, tc.target)
		assert.Equal(t, tc.status, w.Code, tc.target)
	}
}

func TestShowTagArchive(t *testing.T) {
	api := setupTestAPI(t, config.EnvironmentProduction)
	seedPublicContent(t, api)
	router := publicEngine(api)

	assert.Equal(t, http.StatusOK, get(router, "/tags/python/").Code)
	assert.Equal(t, http.StatusOK, get(router, "/tags/datasette+python/").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/tags/nosuchtag/").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/tags/python/?page=0").Code)
	assert.Equal(t, http.StatusOK, get(router, "/tags/").Code)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitTags("a+b c"))
	assert.Empty(t, splitTags("+"))
}
