package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/weblog/internal/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrEntryNotFound     = errors.New("entry not found")
	ErrBlogmarkNotFound  = errors.New("blogmark not found")
	ErrQuotationNotFound = errors.New("quotation not found")
	ErrContentInvalid    = errors.New("content is missing required fields")
)

// UpsertOutcome 表示导入时对单条记录的处理结果。
type UpsertOutcome int

const (
	UpsertCreated UpsertOutcome = iota
	UpsertUpdated
	UpsertSkipped
)

func (o UpsertOutcome) String() string {
	switch o {
	case UpsertCreated:
		return "created"
	case UpsertUpdated:
		return "updated"
	default:
		return "skipped"
	}
}

// ContentFields holds the attributes shared by every content kind.
type ContentFields struct {
	Created   time.Time
	Slug      string
	Tags      []string
	Latitude  *float64
	Longitude *float64
	Metadata  map[string]interface{}
	ImportRef string
}

// EntryInput represents fields accepted when creating or updating an entry.
type EntryInput struct {
	ContentFields
	Title         string
	Body          string
	TweetHTML     string
	ExtraHeadHTML string
	SeriesID      *uint
}

// BlogmarkInput represents fields accepted when creating or updating a blogmark.
type BlogmarkInput struct {
	ContentFields
	LinkURL    string
	LinkTitle  string
	ViaURL     string
	ViaTitle   string
	Commentary string
}

// QuotationInput represents fields accepted when creating or updating a quotation.
type QuotationInput struct {
	ContentFields
	Quotation string
	Source    string
	SourceURL string
}

// YearEntries groups entries of one year for the writing archive.
type YearEntries struct {
	Year    int
	Entries []db.Entry
}

// ContentService wraps create/read/update/delete for entries, blogmarks and quotations.
type ContentService struct {
	db   *gorm.DB
	tags *TagService
}

// NewContentService creates a ContentService instance.
func NewContentService(gdb *gorm.DB) *ContentService {
	return &ContentService{db: gdb, tags: NewTagService(gdb)}
}

// GetEntry fetches an entry with tags and series.
func (s *ContentService) GetEntry(id uint) (*db.Entry, error) {
	var entry db.Entry
	if err := s.db.Preload("Tags").Preload("Series").First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// CreateEntry persists a new entry and its tags in one transaction.
func (s *ContentService) CreateEntry(input EntryInput) (*db.Entry, error) {
	var entry db.Entry
	if err := s.applyEntry(&entry, input); err != nil {
		return nil, err
	}
	if err := s.saveWithTags(&entry, input.Tags); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry replaces the fields and tag set of an existing entry.
func (s *ContentService) UpdateEntry(id uint, input EntryInput) (*db.Entry, error) {
	entry, err := s.GetEntry(id)
	if err != nil {
		return nil, err
	}
	if input.Created.IsZero() {
		input.Created = entry.Created
	}
	entry.Series = nil
	if err := s.applyEntry(entry, input); err != nil {
		return nil, err
	}
	if err := s.saveWithTags(entry, input.Tags); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry removes an entry by id.
func (s *ContentService) DeleteEntry(id uint) error {
	return s.deleteContent(&db.Entry{}, id, ErrEntryNotFound)
}

// GetBlogmark fetches a blogmark with tags.
func (s *ContentService) GetBlogmark(id uint) (*db.Blogmark, error) {
	var blogmark db.Blogmark
	if err := s.db.Preload("Tags").First(&blogmark, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlogmarkNotFound
		}
		return nil, err
	}
	return &blogmark, nil
}

// CreateBlogmark persists a new blogmark and its tags.
func (s *ContentService) CreateBlogmark(input BlogmarkInput) (*db.Blogmark, error) {
	var blogmark db.Blogmark
	if err := applyBlogmark(&blogmark, input); err != nil {
		return nil, err
	}
	if err := s.saveWithTags(&blogmark, input.Tags); err != nil {
		return nil, err
	}
	return &blogmark, nil
}

// UpdateBlogmark replaces the fields and tag set of an existing blogmark.
func (s *ContentService) UpdateBlogmark(id uint, input BlogmarkInput) (*db.Blogmark, error) {
	blogmark, err := s.GetBlogmark(id)
	if err != nil {
		return nil, err
	}
	if input.Created.IsZero() {
		input.Created = blogmark.Created
	}
	if err := applyBlogmark(blogmark, input); err != nil {
		return nil, err
	}
	if err := s.saveWithTags(blogmark, input.Tags); err != nil {
		return nil, err
	}
	return blogmark, nil
}

// UpsertBlogmark creates or updates the blogmark identified by input.ImportRef.
// An existing record is left untouched unless overwrite is set.
func (s *ContentService) UpsertBlogmark(input BlogmarkInput, overwrite bool) (*db.Blogmark, UpsertOutcome, error) {
	ref := strings.TrimSpace(input.ImportRef)
	if ref == "" {
		return nil, UpsertSkipped, fmt.Errorf("%w: import_ref", ErrContentInvalid)
	}

	var existing db.Blogmark
	err := s.db.Preload("Tags").Where("import_ref = ?", ref).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		created, err := s.CreateBlogmark(input)
		if err != nil {
			return nil, UpsertSkipped, err
		}
		return created, UpsertCreated, nil
	case err != nil:
		return nil, UpsertSkipped, err
	}

	if !overwrite {
		return &existing, UpsertSkipped, nil
	}
	updated, err := s.UpdateBlogmark(existing.ID, input)
	if err != nil {
		return nil, UpsertSkipped, err
	}
	return updated, UpsertUpdated, nil
}

// DeleteBlogmark removes a blogmark by id.
func (s *ContentService) DeleteBlogmark(id uint) error {
	return s.deleteContent(&db.Blogmark{}, id, ErrBlogmarkNotFound)
}

// GetQuotation fetches a quotation with tags.
func (s *ContentService) GetQuotation(id uint) (*db.Quotation, error) {
	var quotation db.Quotation
	if err := s.db.Preload("Tags").First(&quotation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuotationNotFound
		}
		return nil, err
	}
	return &quotation, nil
}

// CreateQuotation persists a new quotation and its tags.
func (s *ContentService) CreateQuotation(input QuotationInput) (*db.Quotation, error) {
	var quotation db.Quotation
	if err := applyQuotation(&quotation, input); err != nil {
		return nil, err
	}
	if err := s.saveWithTags(&quotation, input.Tags); err != nil {
		return nil, err
	}
	return &quotation, nil
}

// UpdateQuotation replaces the fields and tag set of an existing quotation.
func (s *ContentService) UpdateQuotation(id uint, input QuotationInput) (*db.Quotation, error) {
	quotation, err := s.GetQuotation(id)
	if err != nil {
		return nil, err
	}
	if input.Created.IsZero() {
		input.Created = quotation.Created
	}
	if err := applyQuotation(quotation, input); err != nil {
		return nil, err
	}
	if err := s.saveWithTags(quotation, input.Tags); err != nil {
		return nil, err
	}
	return quotation, nil
}

// DeleteQuotation removes a quotation by id.
func (s *ContentService) DeleteQuotation(id uint) error {
	return s.deleteContent(&db.Quotation{}, id, ErrQuotationNotFound)
}

// ListEntries returns a page of entries, newest first.
func (s *ContentService) ListEntries(page, perPage int) ([]db.Entry, Pagination, error) {
	var entries []db.Entry
	p, err := s.listPage(&db.Entry{}, &entries, page, perPage)
	return entries, p, err
}

// ListBlogmarks returns a page of blogmarks, newest first.
func (s *ContentService) ListBlogmarks(page, perPage int) ([]db.Blogmark, Pagination, error) {
	var blogmarks []db.Blogmark
	p, err := s.listPage(&db.Blogmark{}, &blogmarks, page, perPage)
	return blogmarks, p, err
}

// ListQuotations returns a page of quotations, newest first.
func (s *ContentService) ListQuotations(page, perPage int) ([]db.Quotation, Pagination, error) {
	var quotations []db.Quotation
	p, err := s.listPage(&db.Quotation{}, &quotations, page, perPage)
	return quotations, p, err
}

// RecentEntries 返回最新的若干篇文章。
func (s *ContentService) RecentEntries(limit int) ([]db.Entry, error) {
	var entries []db.Entry
	if err := s.db.Preload("Tags").Order("created desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Elsewhere merges the latest blogmarks and quotations by recency.
func (s *ContentService) Elsewhere(limit int) ([]ContentItem, error) {
	return s.Recent(limit, db.KindBlogmark, db.KindQuotation)
}

// Recent returns the newest limit items across kinds, newest first.
func (s *ContentService) Recent(limit int, kinds ...string) ([]ContentItem, error) {
	if limit <= 0 {
		return nil, nil
	}
	type recentRow struct {
		ID      uint
		Created time.Time
	}
	type recentRef struct {
		ref     ContentRef
		created time.Time
	}

	var candidates []recentRef
	for _, kind := range kinds {
		var rows []recentRow
		if err := s.db.Model(kindModel(kind)).Select("id, created").Order("created desc").Limit(limit).Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			candidates = append(candidates, recentRef{ref: ContentRef{Type: kind, ID: row.ID}, created: row.Created})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].created.After(candidates[j].created)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	refs := make([]ContentRef, 0, len(candidates))
	for _, c := range candidates {
		refs = append(refs, c.ref)
	}
	return loadMixed(s.db, refs)
}

// SitemapLocation 是站点地图中的一条记录。
type SitemapLocation struct {
	Path     string
	Modified time.Time
}

// SitemapLocations lists the archive path of every entry, blogmark and quotation.
func (s *ContentService) SitemapLocations(loc *time.Location) ([]SitemapLocation, error) {
	type sitemapRow struct {
		Created   time.Time
		Slug      string
		UpdatedAt time.Time
	}
	var locations []SitemapLocation
	for _, kind := range db.SearchableKinds {
		var rows []sitemapRow
		if err := s.db.Model(kindModel(kind)).Select("created, slug, updated_at").Order("created desc").Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			locations = append(locations, SitemapLocation{
				Path:     db.ArchivePath(row.Created, row.Slug, loc),
				Modified: row.UpdatedAt,
			})
		}
	}
	return locations, nil
}

// EntryArchive groups every entry by year in loc, newest year first.
func (s *ContentService) EntryArchive(loc *time.Location) ([]YearEntries, error) {
	var entries []db.Entry
	if err := s.db.Select("id", "created", "slug", "title", "body").Order("created desc").Find(&entries).Error; err != nil {
		return nil, err
	}

	var years []YearEntries
	for _, entry := range entries {
		year := entry.Created.In(loc).Year()
		if len(years) == 0 || years[len(years)-1].Year != year {
			years = append(years, YearEntries{Year: year})
		}
		last := &years[len(years)-1]
		last.Entries = append(last.Entries, entry)
	}
	return years, nil
}

// EntryBySlug returns the newest entry with the slug.
func (s *ContentService) EntryBySlug(slug string) (*db.Entry, error) {
	var entry db.Entry
	if err := s.db.Where("slug = ?", slug).Order("created desc").First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// saveWithTags stores item and replaces its tag set inside one transaction.
func (s *ContentService) saveWithTags(item db.Content, names []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		tags, err := s.tags.Resolve(tx, names)
		if err != nil {
			return err
		}
		item.SetTags(tags)
		if err := tx.Omit("Tags.*").Save(item).Error; err != nil {
			return err
		}
		return tx.Model(item).Association("Tags").Replace(tags)
	})
}

func (s *ContentService) deleteContent(model db.Content, id uint, notFound error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound
			}
			return err
		}
		if err := tx.Model(model).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Unscoped().Delete(model).Error
	})
}

func (s *ContentService) listPage(model interface{}, dest interface{}, page, perPage int) (Pagination, error) {
	var total int64
	if err := s.db.Model(model).Count(&total).Error; err != nil {
		return Pagination{}, err
	}
	p, err := paginate(total, perPage, page)
	if err != nil {
		return p, err
	}
	if err := s.db.Preload("Tags").
		Order("created desc").
		Limit(p.PerPage).
		Offset(p.Offset()).
		Find(dest).Error; err != nil {
		return p, err
	}
	return p, nil
}

func (s *ContentService) applyEntry(entry *db.Entry, input EntryInput) error {
	if strings.TrimSpace(input.Body) == "" {
		return fmt.Errorf("%w: body", ErrContentInvalid)
	}
	if input.SeriesID != nil {
		var count int64
		if err := s.db.Model(&db.Series{}).Where("id = ?", *input.SeriesID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrSeriesNotFound
		}
	}

	entry.Title = strings.TrimSpace(input.Title)
	entry.Body = input.Body
	entry.TweetHTML = optionalString(input.TweetHTML)
	entry.ExtraHeadHTML = optionalString(input.ExtraHeadHTML)
	entry.SeriesID = input.SeriesID
	applyFields(&entry.ContentBase, input.ContentFields, entry.Title)
	return nil
}

func applyBlogmark(blogmark *db.Blogmark, input BlogmarkInput) error {
	if strings.TrimSpace(input.LinkURL) == "" || strings.TrimSpace(input.LinkTitle) == "" {
		return fmt.Errorf("%w: link_url and link_title", ErrContentInvalid)
	}
	blogmark.LinkURL = strings.TrimSpace(input.LinkURL)
	blogmark.LinkTitle = strings.TrimSpace(input.LinkTitle)
	blogmark.ViaURL = optionalString(input.ViaURL)
	blogmark.ViaTitle = optionalString(input.ViaTitle)
	blogmark.Commentary = input.Commentary
	applyFields(&blogmark.ContentBase, input.ContentFields, blogmark.LinkTitle)
	return nil
}

func applyQuotation(quotation *db.Quotation, input QuotationInput) error {
	if strings.TrimSpace(input.Quotation) == "" || strings.TrimSpace(input.Source) == "" {
		return fmt.Errorf("%w: quotation and source", ErrContentInvalid)
	}
	quotation.Quotation = input.Quotation
	quotation.Source = strings.TrimSpace(input.Source)
	quotation.SourceURL = optionalString(input.SourceURL)
	slugSource := db.TruncateWords(db.StripTags(input.Quotation), 8)
	applyFields(&quotation.ContentBase, input.ContentFields, slugSource)
	return nil
}

// applyFields fills the shared columns; the slug falls back to slugSource.
func applyFields(base *db.ContentBase, fields ContentFields, slugSource string) {
	base.Created = fields.Created
	if base.Created.IsZero() {
		base.Created = time.Now()
	}

	slug := strings.TrimSpace(fields.Slug)
	if slug == "" {
		slug = db.Slugify(slugSource)
	}
	if slug == "" {
		slug = base.Created.UTC().Format("150405")
	}
	base.Slug = db.TruncateSlug(slug, 64)

	base.Latitude = fields.Latitude
	base.Longitude = fields.Longitude
	if fields.Metadata != nil {
		base.Metadata = datatypes.JSONMap(fields.Metadata)
	}
	if ref := strings.TrimSpace(fields.ImportRef); ref != "" {
		base.ImportRef = &ref
	}
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
