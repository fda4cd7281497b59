package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weblog/internal/db"
)

func TestContentServiceCreateEntryDefaultsSlugAndTags(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewContentService(gdb)

	created := time.Date(2019, time.March, 4, 12, 0, 0, 0, time.UTC)
	entry, err := svc.CreateEntry(EntryInput{
		Title: "Weeknotes: Datasette & friends",
		Body:  "<p>Some <b>words</b></p>",
		ContentFields: ContentFields{
			Created: created,
			Tags:    []string{"datasette", "weeknotes"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "weeknotes-datasette-friends", entry.Slug)
	assert.Equal(t, "/2019/mar/4/weeknotes-datasette-friends/", entry.ArchivePath(time.UTC))

	loaded, err := svc.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"datasette", "weeknotes"}, loaded.TagNames())
	assert.Contains(t, loaded.SearchDocument, "words")
	assert.Contains(t, loaded.SearchB, "datasette")
}

func TestContentServiceUpdateEntryReplacesTags(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewContentService(gdb)

	entry, err := svc.CreateEntry(EntryInput{Title: "Tagged", Body: "body", ContentFields: ContentFields{Tags: []string{"a1", "b2"}}})
	require.NoError(t, err)

	updated, err := svc.UpdateEntry(entry.ID, EntryInput{Title: "Tagged", Body: "body", ContentFields: ContentFields{Tags: []string{"b2", "c3"}}})
	require.NoError(t, err)
	assert.True(t, updated.Created.Equal(entry.Created), "created should be preserved")

	loaded, err := svc.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b2", "c3"}, loaded.TagNames())
	assert.NotContains(t, loaded.SearchB, "a1")
}

func TestContentServiceRejectsInvalidTagsWithoutWriting(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewContentService(gdb)

	_, err := svc.CreateEntry(EntryInput{Title: "Bad", Body: "body", ContentFields: ContentFields{Tags: []string{"ok", "Not OK"}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTagInvalid))

	var entries, tags int64
	gdb.Model(&db.Entry{}).Count(&entries)
	gdb.Model(&db.Tag{}).Count(&tags)
	assert.Zero(t, entries)
	assert.Zero(t, tags)
}

func TestContentServiceUpsertBlogmarkIsIdempotent(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewContentService(gdb)

	input := BlogmarkInput{
		LinkURL:       "https://example.com/post",
		LinkTitle:     "A post",
		Commentary:    "first",
		ContentFields: ContentFields{ImportRef: "feed:abc", Tags: []string{"links"}},
	}

	first, outcome, err := svc.UpsertBlogmark(input, false)
	require.NoError(t, err)
	assert.Equal(t, UpsertCreated, outcome)

	input.Commentary = "second"
	again, outcome, err := svc.UpsertBlogmark(input, false)
	require.NoError(t, err)
	assert.Equal(t, UpsertSkipped, outcome)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "first", again.Commentary)

	updated, outcome, err := svc.UpsertBlogmark(input, true)
	require.NoError(t, err)
	assert.Equal(t, UpsertUpdated, outcome)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "second", updated.Commentary)

	var count int64
	gdb.Model(&db.Blogmark{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestContentServiceElsewhereMergesByRecency(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewContentService(gdb)
	base := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.CreateBlogmark(BlogmarkInput{LinkURL: "https://a.example/", LinkTitle: "old link", ContentFields: ContentFields{Created: base}})
	require.NoError(t, err)
	_, err = svc.CreateQuotation(QuotationInput{Quotation: "middle", Source: "someone", ContentFields: ContentFields{Created: base.Add(time.Hour)}})
	require.NoError(t, err)
	_, err = svc.CreateBlogmark(BlogmarkInput{LinkURL: "https://b.example/", LinkTitle: "new link", ContentFields: ContentFields{Created: base.Add(2 * time.Hour)}})
	require.NoError(t, err)

	items, err := svc.Elsewhere(2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, db.KindBlogmark, items[0].Type)
	assert.Equal(t, "new link", items[0].Blogmark.LinkTitle)
	assert.Equal(t, db.KindQuotation, items[1].Type)
}

func TestContentServiceEntryArchiveGroupsByYear(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewContentService(gdb)

	for _, year := range []int{2018, 2019, 2019} {
		_, err := svc.CreateEntry(EntryInput{Title: "Post", Body: "b", ContentFields: ContentFields{Created: time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)}})
		require.NoError(t, err)
	}

	years, err := svc.EntryArchive(time.UTC)
	require.NoError(t, err)
	require.Len(t, years, 2)
	assert.Equal(t, 2019, years[0].Year)
	assert.Len(t, years[0].Entries, 2)
	assert.Equal(t, 2018, years[1].Year)
}

func TestContentServiceDeleteMissing(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewContentService(gdb)

	assert.ErrorIs(t, svc.DeleteQuotation(99), ErrQuotationNotFound)
	_, err := svc.GetBlogmark(99)
	assert.ErrorIs(t, err, ErrBlogmarkNotFound)
}
