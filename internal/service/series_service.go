package service

import (
	"errors"
	"strings"

	"github.com/weblog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrSeriesNotFound = errors.New("series not found")
	ErrSeriesExists   = errors.New("series slug already exists")
)

// SeriesService 管理文章系列。
type SeriesService struct {
	db *gorm.DB
}

// SeriesInput represents fields accepted when creating or updating a series.
type SeriesInput struct {
	Title       string
	Slug        string
	Description string
}

// NewSeriesService creates a SeriesService instance.
func NewSeriesService(gdb *gorm.DB) *SeriesService {
	return &SeriesService{db: gdb}
}

// List returns every series ordered by title.
func (s *SeriesService) List() ([]db.Series, error) {
	var series []db.Series
	if err := s.db.Order("title asc").Find(&series).Error; err != nil {
		return nil, err
	}
	return series, nil
}

// GetBySlug loads a series with its entries in chronological order.
func (s *SeriesService) GetBySlug(slug string) (*db.Series, error) {
	var series db.Series
	err := s.db.Preload("Entries", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created asc")
	}).Where("slug = ?", slug).First(&series).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSeriesNotFound
		}
		return nil, err
	}
	return &series, nil
}

// Create inserts a new series; the slug defaults to the slugified title.
func (s *SeriesService) Create(input SeriesInput) (*db.Series, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrContentInvalid
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = db.TruncateSlug(db.Slugify(title), 64)
	}

	var count int64
	if err := s.db.Model(&db.Series{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSeriesExists
	}

	series := db.Series{Title: title, Slug: slug, Description: input.Description}
	if err := s.db.Create(&series).Error; err != nil {
		return nil, err
	}
	return &series, nil
}
