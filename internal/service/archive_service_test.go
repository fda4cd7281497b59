package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weblog/internal/db"
)

func TestArchiveFindItemUsesLocalDate(t *testing.T) {
	gdb := setupServiceTestDB(t)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	content := NewContentService(gdb)
	// 02:30 UTC on the 5th is still the 4th in New York.
	entry, err := content.CreateEntry(EntryInput{
		Title:         "Late night",
		Body:          "body",
		ContentFields: ContentFields{Created: time.Date(2021, time.February, 5, 2, 30, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	assert.Equal(t, "/2021/feb/4/late-night/", entry.ArchivePath(loc))

	svc := NewArchiveService(gdb, loc)
	item, err := svc.FindItem(2021, time.February, 4, "late-night")
	require.NoError(t, err)
	assert.Equal(t, db.KindEntry, item.Type)
	assert.Equal(t, entry.ID, item.Entry.ID)

	_, err = svc.FindItem(2021, time.February, 5, "late-night")
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = svc.FindItem(2021, time.February, 30, "late-night")
	assert.ErrorIs(t, err, ErrArchiveDateRange)
}

func TestArchiveDayAndMonth(t *testing.T) {
	gdb := setupServiceTestDB(t)
	content := NewContentService(gdb)
	day := time.Date(2022, time.October, 9, 8, 0, 0, 0, time.UTC)

	_, err := content.CreateBlogmark(BlogmarkInput{LinkURL: "https://example.com/", LinkTitle: "Morning link", ContentFields: ContentFields{Created: day}})
	require.NoError(t, err)
	_, err = content.CreateEntry(EntryInput{Title: "Evening entry", Body: "b", ContentFields: ContentFields{Created: day.Add(10 * time.Hour)}})
	require.NoError(t, err)
	_, err = content.CreateQuotation(QuotationInput{Quotation: "Later that month", Source: "someone", ContentFields: ContentFields{Created: day.AddDate(0, 0, 5)}})
	require.NoError(t, err)

	svc := NewArchiveService(gdb, time.UTC)
	items, err := svc.Day(2022, time.October, 9)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Morning link", items[0].Content().String())
	assert.Equal(t, "Evening entry", items[1].Content().String())

	_, err = svc.Day(2022, time.October, 10)
	assert.ErrorIs(t, err, ErrItemNotFound)

	month, err := svc.Month(2022, time.October)
	require.NoError(t, err)
	assert.Len(t, month, 3)

	year, err := svc.Year(2022)
	require.NoError(t, err)
	require.Len(t, year.Months, 1)
	assert.Equal(t, MonthCount{Month: time.October, Entries: 1, Blogmarks: 1, Quotations: 1}, year.Months[0])
	assert.Len(t, year.Entries, 1)

	_, err = svc.Year(2001)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestArchiveTagIntersection(t *testing.T) {
	gdb := setupServiceTestDB(t)
	content := NewContentService(gdb)
	base := time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC)

	_, err := content.CreateEntry(EntryInput{Title: "Both", Body: "b", ContentFields: ContentFields{Created: base, Tags: []string{"sqlite", "python"}}})
	require.NoError(t, err)
	_, err = content.CreateBlogmark(BlogmarkInput{LinkURL: "https://sqlite.org/", LinkTitle: "Only sqlite", ContentFields: ContentFields{Created: base.Add(time.Hour), Tags: []string{"sqlite"}}})
	require.NoError(t, err)
	_, err = content.CreateQuotation(QuotationInput{Quotation: "Both again", Source: "x", ContentFields: ContentFields{Created: base.Add(2 * time.Hour), Tags: []string{"python", "sqlite"}}})
	require.NoError(t, err)

	svc := NewArchiveService(gdb, time.UTC)
	archive, err := svc.TagIntersection([]string{"sqlite", "python", "unknown"}, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"sqlite", "python"}, archive.Tags)
	require.Len(t, archive.Items, 2)
	assert.Equal(t, "Both again", archive.Items[0].Content().String())
	assert.Equal(t, "Both", archive.Items[1].Content().String())

	single, err := svc.TagIntersection([]string{"sqlite"}, 1, 30)
	require.NoError(t, err)
	assert.EqualValues(t, 3, single.Total)

	_, err = svc.TagIntersection([]string{"unknown"}, 1, 30)
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = svc.TagIntersection([]string{"sqlite"}, 2, 30)
	assert.ErrorIs(t, err, ErrPageNotFound)
}
