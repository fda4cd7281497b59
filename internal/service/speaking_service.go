package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/weblog/internal/db"
	"gorm.io/gorm"
)

var ErrPresentationNotFound = errors.New("presentation not found")

// SpeakingService 负责演讲作品集的查询与导入。
type SpeakingService struct {
	db     *gorm.DB
	client httpDoer
}

// Talks splits presentations into upcoming and past relative to a day.
type Talks struct {
	Future []db.Presentation
	Past   []db.Presentation
}

// CoverageDetail is one value of the scraped coverage JSON, keyed by coverage URL.
type CoverageDetail struct {
	Type       string `json:"type"`
	TalkTitle  string `json:"talk_title"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Conference struct {
		Title string `json:"title"`
		Link  string `json:"link"`
		Error string `json:"error"`
	} `json:"conference"`
}

// CoverageImportReport counts what an import did.
type CoverageImportReport struct {
	Created  []string
	Errored  int
	Existing int
}

// NewSpeakingService creates a SpeakingService instance.
func NewSpeakingService(gdb *gorm.DB) *SpeakingService {
	return &SpeakingService{db: gdb, client: &http.Client{Timeout: 30 * time.Second}}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *SpeakingService) SetHTTPClient(client httpDoer) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	s.client = client
}

// Talks returns future and past talks, each newest first.
func (s *SpeakingService) Talks(today time.Time) (*Talks, error) {
	cutoff := endOfDay(today)
	talks := &Talks{}
	if err := s.db.Preload("Conference").Where("date >= ?", cutoff).Order("date desc").Find(&talks.Future).Error; err != nil {
		return nil, err
	}
	if err := s.db.Preload("Conference").Where("date < ?", cutoff).Order("date desc").Find(&talks.Past).Error; err != nil {
		return nil, err
	}
	return talks, nil
}

// Highlights returns up to limit talks for the homepage: upcoming ones in date
// order, then the most recent past ones.
func (s *SpeakingService) Highlights(today time.Time, limit int) ([]db.Presentation, error) {
	cutoff := endOfDay(today)
	var future []db.Presentation
	if err := s.db.Preload("Conference").Where("date >= ?", cutoff).Order("date asc").Limit(limit).Find(&future).Error; err != nil {
		return nil, err
	}
	var past []db.Presentation
	if err := s.db.Preload("Conference").Where("date < ?", cutoff).Order("date desc").Limit(limit).Find(&past).Error; err != nil {
		return nil, err
	}
	talks := append(future, past...)
	if len(talks) > limit {
		talks = talks[:limit]
	}
	return talks, nil
}

// GetBySlug loads a presentation with conference and coverage.
func (s *SpeakingService) GetBySlug(slug string) (*db.Presentation, error) {
	var presentation db.Presentation
	if err := s.db.Preload("Conference").Preload("Coverage").Where("slug = ?", slug).First(&presentation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPresentationNotFound
		}
		return nil, err
	}
	return &presentation, nil
}

// LoadCoverage reads coverage JSON from a local path or an http(s) URL.
func (s *SpeakingService) LoadCoverage(ctx context.Context, source string) (map[string]CoverageDetail, error) {
	var reader io.Reader
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch coverage: status %d", resp.StatusCode)
		}
		reader = resp.Body
	} else {
		file, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		reader = file
	}

	var data map[string]CoverageDetail
	if err := json.NewDecoder(reader).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode coverage: %w", err)
	}
	return data, nil
}

// ImportCoverage creates coverage rows, finding or creating the conference and
// presentation each belongs to. Known URLs and errored scrapes are skipped.
func (s *SpeakingService) ImportCoverage(data map[string]CoverageDetail, progress func(string)) (*CoverageImportReport, error) {
	if progress == nil {
		progress = func(string) {}
	}
	report := &CoverageImportReport{}

	for url, detail := range data {
		var count int64
		if err := s.db.Model(&db.Coverage{}).Where("url = ?", url).Count(&count).Error; err != nil {
			return report, err
		}
		if count > 0 {
			report.Existing++
			continue
		}
		if detail.Conference.Error != "" {
			report.Errored++
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			presentation, err := s.findOrCreatePresentation(tx, detail, progress)
			if err != nil {
				return err
			}
			coverage := db.Coverage{PresentationID: presentation.ID, Type: detail.Type, URL: url}
			if err := tx.Create(&coverage).Error; err != nil {
				return err
			}
			progress("Created coverage " + url)
			report.Created = append(report.Created, url)
			return nil
		})
		if err != nil {
			return report, fmt.Errorf("import %s: %w", url, err)
		}
	}
	return report, nil
}

func (s *SpeakingService) findOrCreatePresentation(tx *gorm.DB, detail CoverageDetail, progress func(string)) (*db.Presentation, error) {
	slug := db.TruncateSlug(db.Slugify(detail.TalkTitle), 50)

	var presentation db.Presentation
	err := tx.Joins("Conference").
		Where("presentations.slug = ? AND Conference.title = ?", slug, detail.Conference.Title).
		First(&presentation).Error
	if err == nil {
		return &presentation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	start, err := parseCoverageDate(detail.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseCoverageDate(detail.EndDate)
	if err != nil {
		end = start
	}

	var conference db.Conference
	result := tx.Where(db.Conference{Title: detail.Conference.Title}).
		Assign(db.Conference{Link: detail.Conference.Link, StartDate: start, EndDate: end}).
		FirstOrCreate(&conference)
	if result.Error != nil {
		return nil, result.Error
	}
	if conference.CreatedAt.Equal(conference.UpdatedAt) {
		progress("Created " + conference.Title)
	}

	presentation = db.Presentation{
		ConferenceID: conference.ID,
		Title:        detail.TalkTitle,
		Slug:         slug,
		Date:         start,
	}
	if err := tx.Create(&presentation).Error; err != nil {
		return nil, err
	}
	progress("Created " + presentation.Title)
	return &presentation, nil
}

func parseCoverageDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// endOfDay returns the start of the following calendar day. Presentation
// dates are stored as UTC midnights, so the cutoff is built the same way.
func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
