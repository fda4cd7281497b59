package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/weblog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrTagExists   = errors.New("tag already exists")
	ErrTagInUse    = errors.New("tag is associated with content")
	ErrTagNotFound = errors.New("tag not found")
	ErrTagInvalid  = errors.New("tag must be lowercase letters and digits")
)

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// TagUsage 描述标签在三种内容中的使用次数
type TagUsage struct {
	ID         uint
	Tag        string
	Entries    int64
	Blogmarks  int64
	Quotations int64
}

// Total 返回三种内容的合计。
func (u TagUsage) Total() int64 {
	return u.Entries + u.Blogmarks + u.Quotations
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// Get fetches a tag by its name.
func (s *TagService) Get(name string) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.Where("tag = ?", name).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// Existing returns the subset of names that exist, preserving input order.
func (s *TagService) Existing(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var found []string
	if err := s.db.Model(&db.Tag{}).Where("tag IN ?", names).Pluck("tag", &found).Error; err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(found))
	for _, name := range found {
		present[name] = struct{}{}
	}

	result := make([]string, 0, len(found))
	seen := make(map[string]struct{}, len(found))
	for _, name := range names {
		if _, ok := present[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result, nil
}

// Resolve returns a tag record for every name, creating missing ones.
// Names are de-duplicated; an invalid name fails the whole call with ErrTagInvalid.
func (s *TagService) Resolve(tx *gorm.DB, names []string) ([]db.Tag, error) {
	if tx == nil {
		tx = s.db
	}

	tags := make([]db.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if !db.ValidTag(name) {
			return nil, fmt.Errorf("%w: %q", ErrTagInvalid, raw)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		var tag db.Tag
		if err := tx.Where(db.Tag{Tag: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("resolve tag %s: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Usage returns every tag with per-kind counts, ordered by name.
func (s *TagService) Usage() ([]TagUsage, error) {
	var tags []db.Tag
	if err := s.db.Order("tag asc").Find(&tags).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]map[uint]int64, len(db.SearchableKinds))
	for _, kind := range db.SearchableKinds {
		perTag, err := s.countsForKind(kind)
		if err != nil {
			return nil, err
		}
		counts[kind] = perTag
	}

	usages := make([]TagUsage, 0, len(tags))
	for _, tag := range tags {
		usages = append(usages, TagUsage{
			ID:         tag.ID,
			Tag:        tag.Tag,
			Entries:    counts[db.KindEntry][tag.ID],
			Blogmarks:  counts[db.KindBlogmark][tag.ID],
			Quotations: counts[db.KindQuotation][tag.ID],
		})
	}
	return usages, nil
}

// Suggest returns tags containing q, shortest first, for autocomplete.
func (s *TagService) Suggest(q string) ([]string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []string{}, nil
	}

	var names []string
	if err := s.db.Model(&db.Tag{}).
		Where("LOWER(tag) LIKE ?", "%"+strings.ToLower(q)+"%").
		Pluck("tag", &names).Error; err != nil {
		return nil, err
	}

	sort.SliceStable(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})
	return names, nil
}

// Related looks at every item tagged with name and returns the other tags
// they carry, most common first.
func (s *TagService) Related(name string, limit int) ([]string, error) {
	tag, err := s.Get(name)
	if err != nil {
		return nil, err
	}

	counter := make(map[string]int)
	for _, kind := range db.SearchableKinds {
		t := db.TagTables[kind]
		var rows []struct {
			Tag string
			N   int
		}
		sub := s.db.Table(t.Join).Select(t.Column).Where("tag_id = ?", tag.ID)
		if err := s.db.Table(t.Join).
			Select("tags.tag AS tag, COUNT(*) AS n").
			Joins("JOIN tags ON tags.id = "+t.Join+".tag_id").
			Joins("JOIN "+t.Table+" ON "+t.Table+".id = "+t.Join+"."+t.Column).
			Where(t.Join+"."+t.Column+" IN (?)", sub).
			Where(t.Table + ".deleted_at IS NULL").
			Where("tags.id <> ?", tag.ID).
			Group("tags.tag").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			counter[row.Tag] += row.N
		}
	}

	return topCounts(counter, limit), nil
}

// Create inserts a new tag with unique name.
func (s *TagService) Create(name string) (*db.Tag, error) {
	name = strings.TrimSpace(name)
	if !db.ValidTag(name) {
		return nil, ErrTagInvalid
	}

	var existing db.Tag
	if err := s.db.Where("tag = ?", name).First(&existing).Error; err == nil {
		return nil, ErrTagExists
	}

	tag := db.Tag{Tag: name}
	if err := s.db.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// Update renames a tag while keeping uniqueness.
func (s *TagService) Update(id uint, name string) (*db.Tag, error) {
	name = strings.TrimSpace(name)
	if !db.ValidTag(name) {
		return nil, ErrTagInvalid
	}

	var tag db.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}

	var existing db.Tag
	if err := s.db.Where("tag = ? AND id <> ?", name, id).First(&existing).Error; err == nil {
		return nil, ErrTagExists
	}

	tag.Tag = name
	if err := s.db.Save(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// Delete removes a tag if no content references it.
func (s *TagService) Delete(id uint) error {
	var tag db.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return err
	}

	for kind, t := range db.TagTables {
		var count int64
		if err := s.db.Table(t.Join).Where("tag_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("count %s usage: %w", kind, err)
		}
		if count > 0 {
			return ErrTagInUse
		}
	}

	return s.db.Unscoped().Delete(&tag).Error
}

func (s *TagService) countsForKind(kind string) (map[uint]int64, error) {
	t := db.TagTables[kind]
	var rows []struct {
		TagID uint
		N     int64
	}
	if err := s.db.Table(t.Join).
		Select(t.Join + ".tag_id AS tag_id, COUNT(*) AS n").
		Joins("JOIN " + t.Table + " ON " + t.Table + ".id = " + t.Join + "." + t.Column).
		Where(t.Table + ".deleted_at IS NULL").
		Group(t.Join + ".tag_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count %s tags: %w", kind, err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.TagID] = row.N
	}
	return counts, nil
}

// topCounts orders keys by count desc then name asc and keeps at most limit.
func topCounts(counter map[string]int, limit int) []string {
	keys := make([]string, 0, len(counter))
	for key := range counter {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counter[keys[i]] != counter[keys[j]] {
			return counter[keys[i]] > counter[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
