package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weblog/internal/db"
)

const bookmarkFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Bookmarks</title>
    <link>https://bookmarks.example/</link>
    <item>
      <title>SQLite is not a toy database</title>
      <link>https://antonz.org/sqlite-is-not-a-toy-database/</link>
      <guid>https://bookmarks.example/b/1</guid>
      <description>Good overview.</description>
      <category>sqlite databases</category>
      <category>Not-A-Tag!</category>
      <pubDate>Mon, 22 Mar 2021 10:00:00 +0000</pubDate>
    </item>
    <item>
      <title>No link here</title>
      <guid>https://bookmarks.example/b/2</guid>
    </item>
  </channel>
</rss>`

func TestFeedImportIsIdempotent(t *testing.T) {
	gdb := setupServiceTestDB(t)
	importer := NewFeedImporter(NewContentService(gdb))

	feed, err := gofeed.NewParser().ParseString(bookmarkFeed)
	require.NoError(t, err)

	report, err := importer.Import(feed, false, nil)
	require.NoError(t, err)
	assert.Equal(t, FeedImportReport{Created: 1, Skipped: 1}, report)

	again, err := importer.Import(feed, false, nil)
	require.NoError(t, err)
	assert.Equal(t, FeedImportReport{Skipped: 2}, again)

	var blogmarks []db.Blogmark
	require.NoError(t, gdb.Preload("Tags").Find(&blogmarks).Error)
	require.Len(t, blogmarks, 1)
	assert.Equal(t, "SQLite is not a toy database", blogmarks[0].LinkTitle)
	assert.Equal(t, "Good overview.", blogmarks[0].Commentary)
	assert.ElementsMatch(t, []string{"sqlite", "databases", "notatag"}, blogmarks[0].TagNames())
	require.NotNil(t, blogmarks[0].ImportRef)
	assert.Equal(t, FeedItemRef(feed.Items[0]), *blogmarks[0].ImportRef)
	assert.Equal(t, 2021, blogmarks[0].Created.Year())
}

func TestFeedImportUpdateOverwrites(t *testing.T) {
	gdb := setupServiceTestDB(t)
	importer := NewFeedImporter(NewContentService(gdb))

	feed, err := gofeed.NewParser().ParseString(bookmarkFeed)
	require.NoError(t, err)
	_, err = importer.Import(feed, false, nil)
	require.NoError(t, err)

	feed.Items[0].Description = "Edited."
	var outcomes []UpsertOutcome
	report, err := importer.Import(feed, true, func(outcome UpsertOutcome, _ *db.Blogmark) {
		outcomes = append(outcomes, outcome)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, []UpsertOutcome{UpsertUpdated}, outcomes)

	var blogmark db.Blogmark
	require.NoError(t, gdb.First(&blogmark).Error)
	assert.Equal(t, "Edited.", blogmark.Commentary)
}

func TestFeedItemRefFallsBackToLink(t *testing.T) {
	withGUID := FeedItemRef(&gofeed.Item{GUID: "id-1", Link: "https://a.example/"})
	withoutGUID := FeedItemRef(&gofeed.Item{Link: "https://a.example/"})

	assert.Len(t, withGUID, len("feed:")+40)
	assert.NotEqual(t, withGUID, withoutGUID)
	assert.Equal(t, withoutGUID, FeedItemRef(&gofeed.Item{Link: " https://a.example/ "}))
}

func TestFeedImporterFetchesOverHTTP(t *testing.T) {
	gdb := setupServiceTestDB(t)
	importer := NewFeedImporter(NewContentService(gdb))
	doer := &stubDoer{status: http.StatusOK, body: bookmarkFeed}
	importer.SetHTTPClient(doer)

	feed, err := importer.Fetch(context.Background(), "https://bookmarks.example/rss")
	require.NoError(t, err)
	assert.Len(t, feed.Items, 2)
	require.Len(t, doer.requests, 1)
	assert.NotEmpty(t, doer.requests[0].Header.Get("User-Agent"))
}

func TestFeedImportAfterDeleteRecreates(t *testing.T) {
	gdb := setupServiceTestDB(t)
	content := NewContentService(gdb)
	importer := NewFeedImporter(content)

	feed, err := gofeed.NewParser().ParseString(bookmarkFeed)
	require.NoError(t, err)
	_, err = importer.Import(feed, false, nil)
	require.NoError(t, err)

	var blogmark db.Blogmark
	require.NoError(t, gdb.First(&blogmark).Error)
	require.NoError(t, content.DeleteBlogmark(blogmark.ID))

	var remaining int64
	require.NoError(t, gdb.Unscoped().Model(&db.Blogmark{}).Count(&remaining).Error)
	assert.Equal(t, int64(0), remaining)

	report, err := importer.Import(feed, false, nil)
	require.NoError(t, err)
	assert.Equal(t, FeedImportReport{Created: 1, Skipped: 1}, report)
}
