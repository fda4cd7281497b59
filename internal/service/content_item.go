package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/weblog/internal/db"
	"gorm.io/gorm"
)

// ContentItem is the tagged union over the content kinds. Exactly one of the
// pointers is set, matching Type.
type ContentItem struct {
	Type      string
	Entry     *db.Entry
	Blogmark  *db.Blogmark
	Quotation *db.Quotation
	Photo     *db.Photo
	Rank      float64
}

// Content returns the populated member as the shared interface.
func (i ContentItem) Content() db.Content {
	switch i.Type {
	case db.KindEntry:
		return i.Entry
	case db.KindBlogmark:
		return i.Blogmark
	case db.KindQuotation:
		return i.Quotation
	case db.KindPhoto:
		return i.Photo
	}
	return nil
}

// Created 返回内容的发布时间。
func (i ContentItem) Created() time.Time {
	if c := i.Content(); c != nil {
		return c.Base().Created
	}
	return time.Time{}
}

func itemFor(content db.Content) ContentItem {
	switch v := content.(type) {
	case *db.Entry:
		return ContentItem{Type: db.KindEntry, Entry: v}
	case *db.Blogmark:
		return ContentItem{Type: db.KindBlogmark, Blogmark: v}
	case *db.Quotation:
		return ContentItem{Type: db.KindQuotation, Quotation: v}
	case *db.Photo:
		return ContentItem{Type: db.KindPhoto, Photo: v}
	}
	return ContentItem{}
}

// ContentRef identifies one row of one kind.
type ContentRef struct {
	Type string
	ID   uint
}

// loadMixed fetches the referenced rows with tags preloaded and returns them
// in the order of refs. Missing rows are skipped.
func loadMixed(gdb *gorm.DB, refs []ContentRef) ([]ContentItem, error) {
	ids := make(map[string][]uint)
	for _, ref := range refs {
		ids[ref.Type] = append(ids[ref.Type], ref.ID)
	}

	fetched := make(map[ContentRef]ContentItem, len(refs))
	for kind, kindIDs := range ids {
		items, err := loadKind(gdb, kind, kindIDs)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			fetched[ContentRef{Type: kind, ID: item.Content().PK()}] = item
		}
	}

	result := make([]ContentItem, 0, len(refs))
	for _, ref := range refs {
		if item, ok := fetched[ref]; ok {
			result = append(result, item)
		}
	}
	return result, nil
}

func loadKind(gdb *gorm.DB, kind string, ids []uint) ([]ContentItem, error) {
	query := gdb.Preload("Tags").Where("id IN ?", ids)
	var items []ContentItem

	switch kind {
	case db.KindEntry:
		var rows []db.Entry
		if err := query.Preload("Series").Find(&rows).Error; err != nil {
			return nil, err
		}
		for i := range rows {
			items = append(items, ContentItem{Type: kind, Entry: &rows[i]})
		}
	case db.KindBlogmark:
		var rows []db.Blogmark
		if err := query.Find(&rows).Error; err != nil {
			return nil, err
		}
		for i := range rows {
			items = append(items, ContentItem{Type: kind, Blogmark: &rows[i]})
		}
	case db.KindQuotation:
		var rows []db.Quotation
		if err := query.Find(&rows).Error; err != nil {
			return nil, err
		}
		for i := range rows {
			items = append(items, ContentItem{Type: kind, Quotation: &rows[i]})
		}
	case db.KindPhoto:
		var rows []db.Photo
		if err := query.Find(&rows).Error; err != nil {
			return nil, err
		}
		for i := range rows {
			items = append(items, ContentItem{Type: kind, Photo: &rows[i]})
		}
	default:
		return nil, fmt.Errorf("unknown content type %q", kind)
	}
	return items, nil
}

// sortNewestFirst orders items by creation time, newest first.
func sortNewestFirst(items []ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Created().After(items[j].Created())
	})
}
