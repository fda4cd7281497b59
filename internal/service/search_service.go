package service

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/weblog/internal/db"
	"gorm.io/gorm"
)

// ErrSearchInvalid is returned when year or month are not integers.
var ErrSearchInvalid = errors.New("invalid search parameter")

// Rank weights of the three search columns.
const (
	weightA = 1.0
	weightB = 0.4
	weightC = 0.2
)

const tagCountChunk = 500

var searchTermRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

var typeNouns = map[string]string{
	db.KindEntry:     "Entries",
	db.KindBlogmark:  "Blogmarks",
	db.KindQuotation: "Quotations",
}

// SearchQuery 是搜索页解析后的查询参数。
type SearchQuery struct {
	Q           string
	Tags        []string
	ExcludeTags []string
	Type        string
	Year        int
	Month       time.Month
	Page        string
}

// ParseSearchQuery reads q, tag, exclude.tag, type, year, month and page.
func ParseSearchQuery(values url.Values) (SearchQuery, error) {
	query := SearchQuery{
		Q:           strings.TrimSpace(values.Get("q")),
		Tags:        nonEmpty(values["tag"]),
		ExcludeTags: nonEmpty(values["exclude.tag"]),
		Type:        strings.TrimSpace(values.Get("type")),
		Page:        values.Get("page"),
	}
	if raw := strings.TrimSpace(values.Get("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return query, fmt.Errorf("%w: year", ErrSearchInvalid)
		}
		query.Year = year
	}
	if raw := strings.TrimSpace(values.Get("month")); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			return query, fmt.Errorf("%w: month", ErrSearchInvalid)
		}
		query.Month = time.Month(month)
	}
	return query, nil
}

// Terms returns the lowercased words of Q.
func (q SearchQuery) Terms() []string {
	return searchTermRe.FindAllString(strings.ToLower(q.Q), -1)
}

// Selected reports whether any filter besides the text query is applied.
func (q SearchQuery) Selected() bool {
	return len(q.Tags) > 0 || q.Type != "" || q.Year != 0 || q.Month != 0
}

// Title builds the page heading, e.g. “django” in entries tagged python in Jan, 2010.
func (q SearchQuery) Title() string {
	noun, ok := typeNouns[q.Type]
	if !ok {
		noun = "Items"
	}
	title := noun
	if q.Q != "" {
		title = fmt.Sprintf("“%s” in %s", q.Q, strings.ToLower(title))
	}
	if len(q.Tags) > 0 {
		title += " tagged " + strings.Join(q.Tags, ", ")
	}

	var datebits []string
	if q.Month != 0 {
		datebits = append(datebits, q.Month.String()[:3])
	}
	if q.Year != 0 {
		datebits = append(datebits, strconv.Itoa(q.Year))
	}
	if len(datebits) > 0 {
		title += " in " + strings.Join(datebits, ", ")
	}

	if q.Q == "" && !q.Selected() {
		return "Search"
	}
	return title
}

// SearchHit is one row of the unioned result set before the content is loaded.
type SearchHit struct {
	Type    string
	ID      uint
	Created time.Time
	Rank    float64
}

// FacetCount is a named facet bucket.
type FacetCount struct {
	Value string
	Count int
}

// YearCount is a per-year facet bucket.
type YearCount struct {
	Year  int
	Count int
}

// MonthFacet is a per-month facet bucket within the selected year.
type MonthFacet struct {
	Month time.Month
	Count int
}

// SearchResult aggregates one page of results and the facet counts.
type SearchResult struct {
	Query       SearchQuery
	Title       string
	Items       []ContentItem
	TypeCounts  []FacetCount
	TagCounts   []FacetCount
	YearCounts  []YearCount
	MonthCounts []MonthFacet
	Pagination
}

// SearchService runs the faceted search over entries, blogmarks and quotations.
type SearchService struct {
	db         *gorm.DB
	loc        *time.Location
	pageSize   int
	facetLimit int
}

// NewSearchService creates a SearchService. Year and month filters are
// interpreted in loc.
func NewSearchService(gdb *gorm.DB, loc *time.Location, pageSize, facetLimit int) *SearchService {
	if loc == nil {
		loc = time.UTC
	}
	return &SearchService{
		db:         gdb,
		loc:        loc,
		pageSize:   normalizePerPage(pageSize, 30),
		facetLimit: normalizePerPage(facetLimit, 40),
	}
}

type searchRow struct {
	ID      uint
	Created time.Time
	SearchA string
	SearchB string
	SearchC string
}

// Search filters each kind independently, unions the hits and returns the
// requested page with facet counts.
func (s *SearchService) Search(query SearchQuery) (*SearchResult, error) {
	pageNumber, err := ParsePageNumber(query.Page)
	if err != nil {
		return nil, err
	}

	terms := query.Terms()
	result := &SearchResult{Query: query, Title: query.Title()}
	tagCounter := make(map[string]int)
	yearCounter := make(map[int]int)
	monthCounter := make(map[time.Month]int)

	var hits []SearchHit
	for _, kind := range db.SearchableKinds {
		if query.Type != "" && query.Type != kind {
			continue
		}

		rows, err := s.filteredRows(kind, query, terms)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}

		result.TypeCounts = append(result.TypeCounts, FacetCount{Value: kind, Count: len(rows)})
		ids := make([]uint, 0, len(rows))
		for _, row := range rows {
			local := row.Created.In(s.loc)
			yearCounter[local.Year()]++
			if query.Year != 0 {
				monthCounter[local.Month()]++
			}
			ids = append(ids, row.ID)
			hits = append(hits, SearchHit{
				Type:    kind,
				ID:      row.ID,
				Created: row.Created,
				Rank:    rank(row, terms),
			})
		}
		if err := s.countTags(kind, ids, tagCounter); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(result.TypeCounts, func(i, j int) bool {
		return result.TypeCounts[i].Count > result.TypeCounts[j].Count
	})
	result.TagCounts = tagFacets(tagCounter, s.facetLimit)
	result.YearCounts = yearFacets(yearCounter)
	result.MonthCounts = monthFacets(monthCounter)

	sortHits(hits, len(terms) > 0)
	p, err := paginate(int64(len(hits)), s.pageSize, pageNumber)
	if err != nil {
		return nil, err
	}
	result.Pagination = p

	page := pageHits(hits, p)
	items, err := loadMixed(s.db, hitRefs(page))
	if err != nil {
		return nil, err
	}
	if len(terms) > 0 {
		ranks := make(map[ContentRef]float64, len(page))
		for _, hit := range page {
			ranks[ContentRef{Type: hit.Type, ID: hit.ID}] = hit.Rank
		}
		for i := range items {
			items[i].Rank = ranks[ContentRef{Type: items[i].Type, ID: items[i].Content().PK()}]
		}
	}
	result.Items = items
	return result, nil
}

func (s *SearchService) filteredRows(kind string, query SearchQuery, terms []string) ([]searchRow, error) {
	t := db.TagTables[kind]
	tx := s.db.Model(kindModel(kind)).Select("id, created, search_a, search_b, search_c")

	switch {
	case query.Year != 0 && query.Month != 0:
		start := time.Date(query.Year, query.Month, 1, 0, 0, 0, 0, s.loc)
		tx = tx.Where("created >= ? AND created < ?", start.UTC(), start.AddDate(0, 1, 0).UTC())
	case query.Year != 0:
		start := time.Date(query.Year, time.January, 1, 0, 0, 0, 0, s.loc)
		tx = tx.Where("created >= ? AND created < ?", start.UTC(), start.AddDate(1, 0, 0).UTC())
	}
	for _, term := range terms {
		tx = tx.Where("search_document LIKE ?", "%"+term+"%")
	}
	for _, tag := range query.Tags {
		tx = tx.Where("id IN (?)", s.taggedIDs(t.Join, t.Column, tag))
	}
	for _, tag := range query.ExcludeTags {
		tx = tx.Where("id NOT IN (?)", s.taggedIDs(t.Join, t.Column, tag))
	}

	var rows []searchRow
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}

	// 仅指定月份时跨年份匹配，需在本地时区判断
	if query.Year == 0 && query.Month != 0 {
		filtered := rows[:0]
		for _, row := range rows {
			if row.Created.In(s.loc).Month() == query.Month {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	return rows, nil
}

func (s *SearchService) taggedIDs(join, column, tag string) *gorm.DB {
	return s.db.Table(join).
		Select(join+"."+column).
		Joins("JOIN tags ON tags.id = "+join+".tag_id").
		Where("tags.tag = ?", tag)
}

func (s *SearchService) countTags(kind string, ids []uint, counter map[string]int) error {
	t := db.TagTables[kind]
	for start := 0; start < len(ids); start += tagCountChunk {
		end := start + tagCountChunk
		if end > len(ids) {
			end = len(ids)
		}
		var rows []struct {
			Tag string
			N   int
		}
		if err := s.db.Table(t.Join).
			Select("tags.tag AS tag, COUNT(*) AS n").
			Joins("JOIN tags ON tags.id = "+t.Join+".tag_id").
			Where(t.Join+"."+t.Column+" IN ?", ids[start:end]).
			Group("tags.tag").
			Scan(&rows).Error; err != nil {
			return fmt.Errorf("count %s tags: %w", kind, err)
		}
		for _, row := range rows {
			counter[row.Tag] += row.N
		}
	}
	return nil
}

// rank scores a row by weighted term occurrences.
func rank(row searchRow, terms []string) float64 {
	var score float64
	for _, term := range terms {
		score += weightA * float64(strings.Count(row.SearchA, term))
		score += weightB * float64(strings.Count(row.SearchB, term))
		score += weightC * float64(strings.Count(row.SearchC, term))
	}
	return score
}

// sortHits orders by rank when byRank is set, otherwise and on ties newest first.
func sortHits(hits []SearchHit, byRank bool) {
	sort.SliceStable(hits, func(i, j int) bool {
		if byRank && hits[i].Rank != hits[j].Rank {
			return hits[i].Rank > hits[j].Rank
		}
		if !hits[i].Created.Equal(hits[j].Created) {
			return hits[i].Created.After(hits[j].Created)
		}
		if hits[i].Type != hits[j].Type {
			return hits[i].Type < hits[j].Type
		}
		return hits[i].ID > hits[j].ID
	})
}

func pageHits(hits []SearchHit, p Pagination) []SearchHit {
	start := p.Offset()
	if start >= len(hits) {
		return nil
	}
	end := start + p.PerPage
	if end > len(hits) {
		end = len(hits)
	}
	return hits[start:end]
}

func hitRefs(hits []SearchHit) []ContentRef {
	refs := make([]ContentRef, 0, len(hits))
	for _, hit := range hits {
		refs = append(refs, ContentRef{Type: hit.Type, ID: hit.ID})
	}
	return refs
}

func tagFacets(counter map[string]int, limit int) []FacetCount {
	facets := make([]FacetCount, 0, len(counter))
	for _, tag := range topCounts(counter, limit) {
		facets = append(facets, FacetCount{Value: tag, Count: counter[tag]})
	}
	return facets
}

func yearFacets(counter map[int]int) []YearCount {
	facets := make([]YearCount, 0, len(counter))
	for year, n := range counter {
		facets = append(facets, YearCount{Year: year, Count: n})
	}
	sort.Slice(facets, func(i, j int) bool { return facets[i].Year < facets[j].Year })
	return facets
}

func monthFacets(counter map[time.Month]int) []MonthFacet {
	facets := make([]MonthFacet, 0, len(counter))
	for month, n := range counter {
		facets = append(facets, MonthFacet{Month: month, Count: n})
	}
	sort.Slice(facets, func(i, j int) bool { return facets[i].Month < facets[j].Month })
	return facets
}

func nonEmpty(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			result = append(result, value)
		}
	}
	return result
}
