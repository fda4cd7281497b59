package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/weblog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound     = errors.New("archive item not found")
	ErrArchiveDateRange = errors.New("archive date is invalid")
)

// MaxTagIntersection 是标签交集页允许的最大标签数。
const MaxTagIntersection = 3

// MonthCount 汇总某月三种内容的数量。
type MonthCount struct {
	Month      time.Month
	Entries    int64
	Blogmarks  int64
	Quotations int64
}

// Total returns the sum over the three kinds.
func (m MonthCount) Total() int64 {
	return m.Entries + m.Blogmarks + m.Quotations
}

// YearArchive is the data behind /YYYY/.
type YearArchive struct {
	Year    int
	Months  []MonthCount
	Entries []db.Entry
}

// TagArchive is one page of a tag intersection.
type TagArchive struct {
	Tags  []string
	Items []ContentItem
	Pagination
}

// ArchiveService answers date and tag based archive lookups across content kinds.
type ArchiveService struct {
	db  *gorm.DB
	loc *time.Location
}

// NewArchiveService creates an ArchiveService. Dates are interpreted in loc.
func NewArchiveService(gdb *gorm.DB, loc *time.Location) *ArchiveService {
	if loc == nil {
		loc = time.UTC
	}
	return &ArchiveService{db: gdb, loc: loc}
}

// FindItem resolves /YYYY/mon/D/slug/ to a single item. Entries win over
// blogmarks, quotations and photos when slugs collide on the same day.
func (s *ArchiveService) FindItem(year int, month time.Month, day int, slug string) (ContentItem, error) {
	start, end, err := s.dayRange(year, month, day)
	if err != nil {
		return ContentItem{}, err
	}

	for _, kind := range []string{db.KindEntry, db.KindBlogmark, db.KindQuotation, db.KindPhoto} {
		var ids []uint
		if err := s.db.Model(kindModel(kind)).
			Where("slug = ? AND created >= ? AND created < ?", slug, start, end).
			Order("created asc").
			Limit(1).
			Pluck("id", &ids).Error; err != nil {
			return ContentItem{}, err
		}
		if len(ids) == 0 {
			continue
		}
		items, err := loadMixed(s.db, []ContentRef{{Type: kind, ID: ids[0]}})
		if err != nil {
			return ContentItem{}, err
		}
		if len(items) == 1 {
			return items[0], nil
		}
	}
	return ContentItem{}, ErrItemNotFound
}

// Day returns every item published on the day in chronological order.
func (s *ArchiveService) Day(year int, month time.Month, day int) ([]ContentItem, error) {
	start, end, err := s.dayRange(year, month, day)
	if err != nil {
		return nil, err
	}
	return s.between(start, end, true, db.KindEntry, db.KindBlogmark, db.KindQuotation, db.KindPhoto)
}

// Month returns the month's entries, blogmarks and quotations in chronological order.
func (s *ArchiveService) Month(year int, month time.Month) ([]ContentItem, error) {
	if month < time.January || month > time.December {
		return nil, ErrArchiveDateRange
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	return s.between(start, start.AddDate(0, 1, 0), true, db.SearchableKinds...)
}

// Year returns per-month counts and the year's entries.
func (s *ArchiveService) Year(year int) (*YearArchive, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(1, 0, 0)

	archive := &YearArchive{Year: year}
	var total int64
	for month := time.January; month <= time.December; month++ {
		mStart := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
		mEnd := mStart.AddDate(0, 1, 0)
		count := MonthCount{Month: month}
		for _, kind := range db.SearchableKinds {
			var n int64
			if err := s.db.Model(kindModel(kind)).
				Where("created >= ? AND created < ?", mStart.UTC(), mEnd.UTC()).
				Count(&n).Error; err != nil {
				return nil, err
			}
			switch kind {
			case db.KindEntry:
				count.Entries = n
			case db.KindBlogmark:
				count.Blogmarks = n
			case db.KindQuotation:
				count.Quotations = n
			}
		}
		total += count.Total()
		if count.Total() > 0 {
			archive.Months = append(archive.Months, count)
		}
	}
	if total == 0 {
		return nil, ErrItemNotFound
	}

	if err := s.db.Preload("Tags").
		Where("created >= ? AND created < ?", start.UTC(), end.UTC()).
		Order("created asc").
		Find(&archive.Entries).Error; err != nil {
		return nil, err
	}
	return archive, nil
}

// TagIntersection pages through entries, blogmarks and quotations that carry
// every one of tags, newest first. Unknown tags are ignored and at most three
// are used.
func (s *ArchiveService) TagIntersection(requested []string, page, perPage int) (*TagArchive, error) {
	var known []db.Tag
	if len(requested) > 0 {
		if err := s.db.Where("tag IN ?", requested).Find(&known).Error; err != nil {
			return nil, err
		}
	}
	if len(known) == 0 {
		return nil, ErrItemNotFound
	}

	byName := make(map[string]uint, len(known))
	for _, tag := range known {
		byName[tag.Tag] = tag.ID
	}
	tags := make([]string, 0, len(known))
	tagIDs := make([]uint, 0, len(known))
	for _, name := range requested {
		if len(tags) == MaxTagIntersection {
			break
		}
		if id, ok := byName[name]; ok {
			tags = append(tags, name)
			tagIDs = append(tagIDs, id)
			delete(byName, name)
		}
	}

	var hits []SearchHit
	for _, kind := range db.SearchableKinds {
		t := db.TagTables[kind]
		having := s.db.Table(t.Join).
			Select(t.Column).
			Where("tag_id IN ?", tagIDs).
			Group(t.Column).
			Having("COUNT(DISTINCT tag_id) = ?", len(tagIDs))

		var rows []SearchHit
		if err := s.db.Model(kindModel(kind)).
			Select("id, created").
			Where("id IN (?)", having).
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("tag intersection %s: %w", kind, err)
		}
		for _, row := range rows {
			row.Type = kind
			hits = append(hits, row)
		}
	}
	if len(hits) == 0 {
		return nil, ErrItemNotFound
	}

	sortHits(hits, false)
	p, err := paginate(int64(len(hits)), perPage, page)
	if err != nil {
		return nil, err
	}
	items, err := loadMixed(s.db, hitRefs(pageHits(hits, p)))
	if err != nil {
		return nil, err
	}
	return &TagArchive{Tags: tags, Items: items, Pagination: p}, nil
}

func (s *ArchiveService) between(start, end time.Time, ascending bool, kinds ...string) ([]ContentItem, error) {
	var hits []SearchHit
	for _, kind := range kinds {
		var rows []SearchHit
		if err := s.db.Model(kindModel(kind)).
			Select("id, created").
			Where("created >= ? AND created < ?", start.UTC(), end.UTC()).
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			row.Type = kind
			hits = append(hits, row)
		}
	}
	if len(hits) == 0 {
		return nil, ErrItemNotFound
	}

	sortHits(hits, false)
	if ascending {
		for i, j := 0, len(hits)-1; i < j; i, j = i+1, j-1 {
			hits[i], hits[j] = hits[j], hits[i]
		}
	}
	return loadMixed(s.db, hitRefs(hits))
}

func (s *ArchiveService) dayRange(year int, month time.Month, day int) (time.Time, time.Time, error) {
	start := time.Date(year, month, day, 0, 0, 0, 0, s.loc)
	if start.Year() != year || start.Month() != month || start.Day() != day {
		return time.Time{}, time.Time{}, ErrArchiveDateRange
	}
	return start.UTC(), start.AddDate(0, 0, 1).UTC(), nil
}

func kindModel(kind string) interface{} {
	switch kind {
	case db.KindEntry:
		return &db.Entry{}
	case db.KindBlogmark:
		return &db.Blogmark{}
	case db.KindQuotation:
		return &db.Quotation{}
	case db.KindPhoto:
		return &db.Photo{}
	}
	return nil
}
