package service

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrResumeNotFound = errors.New("resume document not found")

// Resume 对应 JSON Resume 结构，文件可以是 YAML 或 JSON。
type Resume struct {
	Basics       ResumeBasics        `yaml:"basics"`
	Work         []ResumeWork        `yaml:"work"`
	Volunteer    []ResumeWork        `yaml:"volunteer"`
	Education    []ResumeEducation   `yaml:"education"`
	Awards       []ResumeAward       `yaml:"awards"`
	Publications []ResumePublication `yaml:"publications"`
	Skills       []ResumeSkill       `yaml:"skills"`
}

type ResumeBasics struct {
	Name     string          `yaml:"name"`
	Label    string          `yaml:"label"`
	Email    string          `yaml:"email"`
	Phone    string          `yaml:"phone"`
	URL      string          `yaml:"url"`
	Website  string          `yaml:"website"`
	Summary  string          `yaml:"summary"`
	Location ResumeLocation  `yaml:"location"`
	Profiles []ResumeProfile `yaml:"profiles"`
}

type ResumeLocation struct {
	City        string `yaml:"city"`
	Region      string `yaml:"region"`
	CountryCode string `yaml:"countryCode"`
}

type ResumeProfile struct {
	Network  string `yaml:"network"`
	Username string `yaml:"username"`
	URL      string `yaml:"url"`
}

type ResumeWork struct {
	Name         string   `yaml:"name"`
	Company      string   `yaml:"company"`
	Organization string   `yaml:"organization"`
	Position     string   `yaml:"position"`
	Website      string   `yaml:"website"`
	URL          string   `yaml:"url"`
	StartDate    string   `yaml:"startDate"`
	EndDate      string   `yaml:"endDate"`
	Summary      string   `yaml:"summary"`
	Highlights   []string `yaml:"highlights"`
}

// Employer returns whichever of the organization name fields is set.
func (w ResumeWork) Employer() string {
	for _, name := range []string{w.Name, w.Company, w.Organization} {
		if strings.TrimSpace(name) != "" {
			return name
		}
	}
	return ""
}

// Link returns the website or url field.
func (w ResumeWork) Link() string {
	if w.Website != "" {
		return w.Website
	}
	return w.URL
}

type ResumeEducation struct {
	Institution string `yaml:"institution"`
	Area        string `yaml:"area"`
	StudyType   string `yaml:"studyType"`
	StartDate   string `yaml:"startDate"`
	EndDate     string `yaml:"endDate"`
}

type ResumeAward struct {
	Title   string `yaml:"title"`
	Date    string `yaml:"date"`
	Awarder string `yaml:"awarder"`
	Summary string `yaml:"summary"`
}

type ResumePublication struct {
	Name        string `yaml:"name"`
	Publisher   string `yaml:"publisher"`
	ReleaseDate string `yaml:"releaseDate"`
	Website     string `yaml:"website"`
	URL         string `yaml:"url"`
	Summary     string `yaml:"summary"`
}

type ResumeSkill struct {
	Name     string   `yaml:"name"`
	Level    string   `yaml:"level"`
	Keywords []string `yaml:"keywords"`
}

// ResumeService loads the résumé document from disk on every call so edits
// show up without a restart.
type ResumeService struct {
	path string
}

// NewResumeService creates a ResumeService reading path.
func NewResumeService(path string) *ResumeService {
	return &ResumeService{path: path}
}

// Load parses the résumé file.
func (s *ResumeService) Load() (*Resume, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrResumeNotFound
		}
		return nil, err
	}
	var resume Resume
	if err := yaml.Unmarshal(data, &resume); err != nil {
		return nil, fmt.Errorf("parse resume %s: %w", s.path, err)
	}
	return &resume, nil
}

// ResumeDate formats YYYY-MM-DD, YYYY-MM or YYYY dates as "Jan 2006"; blank
// renders as "Present".
func ResumeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Present"
	}
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("Jan 2006")
		}
	}
	return value
}
