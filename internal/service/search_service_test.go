package service

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weblog/internal/db"
	"gorm.io/gorm"
)

func seedSearchFixtures(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	content := NewContentService(gdb)
	at := func(year int, month time.Month, day int) time.Time {
		return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	}

	_, err := content.CreateEntry(EntryInput{
		Title:         "Django tips",
		Body:          "<p>Working with python and the ORM.</p>",
		ContentFields: ContentFields{Created: at(2018, time.March, 1), Tags: []string{"django", "python"}},
	})
	require.NoError(t, err)
	_, err = content.CreateBlogmark(BlogmarkInput{
		LinkURL:       "https://docs.python.org/",
		LinkTitle:     "Python docs",
		Commentary:    "Reference I keep returning to, mentions django once.",
		ContentFields: ContentFields{Created: at(2019, time.July, 2), Tags: []string{"python"}},
	})
	require.NoError(t, err)
	_, err = content.CreateQuotation(QuotationInput{
		Quotation:     "Simple is better than complex.",
		Source:        "Tim Peters",
		ContentFields: ContentFields{Created: at(2019, time.August, 3), Tags: []string{"python", "zen"}},
	})
	require.NoError(t, err)
	_, err = content.CreateEntry(EntryInput{
		Title:         "Go notes",
		Body:          "<p>Goroutines and channels.</p>",
		ContentFields: ContentFields{Created: at(2020, time.January, 4), Tags: []string{"go"}},
	})
	require.NoError(t, err)
}

func searchTitles(items []ContentItem) []string {
	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Content().String())
	}
	return titles
}

func TestSearchWithoutFiltersReturnsNewestFirst(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedSearchFixtures(t, gdb)
	svc := NewSearchService(gdb, time.UTC, 30, 40)

	result, err := svc.Search(SearchQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Search", result.Title)
	assert.EqualValues(t, 4, result.Total)
	assert.Equal(t, []string{"Go notes", "Simple is better than complex.", "Python docs", "Django tips"}, searchTitles(result.Items))

	assert.Equal(t, []FacetCount{{Value: db.KindEntry, Count: 2}, {Value: db.KindBlogmark, Count: 1}, {Value: db.KindQuotation, Count: 1}}, result.TypeCounts)
	assert.Equal(t, FacetCount{Value: "python", Count: 3}, result.TagCounts[0])
	assert.Equal(t, []YearCount{{2018, 1}, {2019, 2}, {2020, 1}}, result.YearCounts)
	assert.Empty(t, result.MonthCounts)
}

func TestSearchRanksTitleMatchesFirst(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedSearchFixtures(t, gdb)
	svc := NewSearchService(gdb, time.UTC, 30, 40)

	result, err := svc.Search(SearchQuery{Q: "Django"})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Django tips", result.Items[0].Content().String())
	assert.Greater(t, result.Items[0].Rank, result.Items[1].Rank)
	assert.Equal(t, "“Django” in items", result.Title)
}

func TestSearchTagFilters(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedSearchFixtures(t, gdb)
	svc := NewSearchService(gdb, time.UTC, 30, 40)

	result, err := svc.Search(SearchQuery{Tags: []string{"python"}, ExcludeTags: []string{"zen"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Python docs", "Django tips"}, searchTitles(result.Items))

	both, err := svc.Search(SearchQuery{Tags: []string{"python", "django"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Django tips"}, searchTitles(both.Items))
	assert.Equal(t, "Items tagged python, django", both.Title)
}

func TestSearchTypeYearAndMonthFilters(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedSearchFixtures(t, gdb)
	svc := NewSearchService(gdb, time.UTC, 30, 40)

	entries, err := svc.Search(SearchQuery{Type: db.KindEntry})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go notes", "Django tips"}, searchTitles(entries.Items))
	assert.Len(t, entries.TypeCounts, 1)
	assert.Equal(t, "Entries", entries.Title)

	year, err := svc.Search(SearchQuery{Year: 2019})
	require.NoError(t, err)
	assert.EqualValues(t, 2, year.Total)
	assert.Equal(t, []MonthFacet{{time.July, 1}, {time.August, 1}}, year.MonthCounts)

	month, err := svc.Search(SearchQuery{Year: 2019, Month: time.August})
	require.NoError(t, err)
	assert.Equal(t, []string{"Simple is better than complex."}, searchTitles(month.Items))
	assert.Equal(t, "Items in Aug, 2019", month.Title)

	monthOnly, err := svc.Search(SearchQuery{Month: time.March})
	require.NoError(t, err)
	assert.Equal(t, []string{"Django tips"}, searchTitles(monthOnly.Items))
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedSearchFixtures(t, gdb)
	svc := NewSearchService(gdb, time.UTC, 30, 40)

	result, err := svc.Search(SearchQuery{Tags: []string{"go", "zen"}})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.EqualValues(t, 0, result.Total)

	_, err = svc.Search(SearchQuery{Tags: []string{"go", "zen"}, Page: "2"})
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestSearchPagination(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedSearchFixtures(t, gdb)
	svc := NewSearchService(gdb, time.UTC, 3, 40)

	second, err := svc.Search(SearchQuery{Page: "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Django tips"}, searchTitles(second.Items))
	assert.Equal(t, 2, second.TotalPages)
	assert.True(t, second.HasPrev())
	assert.False(t, second.HasNext())

	for _, page := range []string{"3", "abc", "0", "-1"} {
		_, err := svc.Search(SearchQuery{Page: page})
		assert.ErrorIs(t, err, ErrPageNotFound, "page %q", page)
	}
}

func TestSearchUnknownTypeMatchesNothing(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedSearchFixtures(t, gdb)
	svc := NewSearchService(gdb, time.UTC, 30, 40)

	result, err := svc.Search(SearchQuery{Type: "photo"})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Empty(t, result.TypeCounts)
}

func TestParseSearchQuery(t *testing.T) {
	values, err := url.ParseQuery("q=+hello+&tag=a&tag=b&exclude.tag=c&type=entry&year=2019&month=3&page=2")
	require.NoError(t, err)

	query, err := ParseSearchQuery(values)
	require.NoError(t, err)
	assert.Equal(t, "hello", query.Q)
	assert.Equal(t, []string{"a", "b"}, query.Tags)
	assert.Equal(t, []string{"c"}, query.ExcludeTags)
	assert.Equal(t, 2019, query.Year)
	assert.Equal(t, time.March, query.Month)
	assert.Equal(t, "“hello” in entries tagged a, b in Mar, 2019", query.Title())

	_, err = ParseSearchQuery(url.Values{"year": {"twenty"}})
	assert.ErrorIs(t, err, ErrSearchInvalid)
	_, err = ParseSearchQuery(url.Values{"month": {"13"}})
	assert.ErrorIs(t, err, ErrSearchInvalid)
}
