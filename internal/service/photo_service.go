package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/weblog/internal/db"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
)

var (
	ErrPhotoNotFound     = errors.New("photo not found")
	ErrPhotoFileRequired = errors.New("exactly one file is required")
	ErrPhotoUnsupported  = errors.New("file is not a supported image")
)

const maxPhotoBytes = 32 << 20

// PhotoService 负责照片文件的落盘与记录。
type PhotoService struct {
	db        *gorm.DB
	uploadDir string
	uploadURL string
	loc       *time.Location
	now       func() time.Time
}

// NewPhotoService creates a PhotoService storing files below uploadDir and
// serving them under uploadURL.
func NewPhotoService(gdb *gorm.DB, uploadDir, uploadURL string, loc *time.Location) *PhotoService {
	if loc == nil {
		loc = time.UTC
	}
	return &PhotoService{
		db:        gdb,
		uploadDir: uploadDir,
		uploadURL: strings.TrimRight(uploadURL, "/"),
		loc:       loc,
		now:       time.Now,
	}
}

// Get fetches a photo with tags.
func (s *PhotoService) Get(id uint) (*db.Photo, error) {
	var photo db.Photo
	if err := s.db.Preload("Tags").First(&photo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return &photo, nil
}

// List returns a page of photos, newest first.
func (s *PhotoService) List(page, perPage int) ([]db.Photo, Pagination, error) {
	var total int64
	if err := s.db.Model(&db.Photo{}).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}
	p, err := paginate(total, perPage, page)
	if err != nil {
		return nil, p, err
	}
	var photos []db.Photo
	if err := s.db.Preload("Tags").Order("created desc").Limit(p.PerPage).Offset(p.Offset()).Find(&photos).Error; err != nil {
		return nil, p, err
	}
	return photos, p, nil
}

// photoExtensions maps decoded image formats to stored file extensions. The
// client's file name never picks the extension.
var photoExtensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// Store writes the image to photos/YYYY/ under the upload directory and
// creates its Photo record. Dimensions are read from the image header.
func (s *PhotoService) Store(filename string, src io.Reader) (*db.Photo, error) {
	data, err := io.ReadAll(io.LimitReader(src, maxPhotoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrPhotoFileRequired
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("%w: file too large", ErrPhotoUnsupported)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPhotoUnsupported, err)
	}

	ext, ok := photoExtensions[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPhotoUnsupported, format)
	}

	now := s.now()
	year := now.In(s.loc).Format("2006")
	name := fmt.Sprintf("%s-%s%s", now.In(s.loc).Format("20060102"), uuid.New().String(), ext)

	dir := filepath.Join(s.uploadDir, "photos", year)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	filePath := filepath.Join(dir, name)
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	photo := db.Photo{
		ContentBase: db.ContentBase{
			Created: now,
			Slug:    db.TruncateSlug(db.Slugify(title), 64),
		},
		FilePath: filePath,
		URL:      path.Join(s.uploadURL, "photos", year, name),
		Width:    cfg.Width,
		Height:   cfg.Height,
	}
	if photo.Slug == "" {
		photo.Slug = strings.TrimSuffix(name, ext)
	}
	if err := s.db.Create(&photo).Error; err != nil {
		os.Remove(filePath)
		return nil, err
	}
	return &photo, nil
}
