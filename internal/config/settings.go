package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds the tunable numbers and labels of the public site.
// It is read once at startup and handed to every request as a value.
type Settings struct {
	SiteTitle            string `yaml:"site_title"`
	Author               string `yaml:"author"`
	AuthorURL            string `yaml:"author_url"`
	HomepageNumEntries   int    `yaml:"homepage_num_entries"`
	HomepageNumElsewhere int    `yaml:"homepage_num_elsewhere"`
	HomepageNumTalks     int    `yaml:"homepage_num_talks"`
	SearchPageSize       int    `yaml:"search_page_size"`
	TagPageSize          int    `yaml:"tag_page_size"`
	TagFacetLimit        int    `yaml:"tag_facet_limit"`
	FeedSize             int    `yaml:"feed_size"`
}

// DefaultSettings 返回未配置文件时使用的默认值。
func DefaultSettings() Settings {
	return Settings{
		SiteTitle:            "Weblog",
		Author:               "Site Owner",
		HomepageNumEntries:   5,
		HomepageNumElsewhere: 30,
		HomepageNumTalks:     5,
		SearchPageSize:       30,
		TagPageSize:          30,
		TagFacetLimit:        40,
		FeedSize:             15,
	}
}

// LoadSettings reads a YAML settings file. A missing file yields the defaults;
// zero or empty fields fall back to their default individually.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	path = strings.TrimSpace(path)
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings %s: %w", path, err)
	}

	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return settings, fmt.Errorf("parse settings %s: %w", path, err)
	}

	return settings.merge(parsed), nil
}

func (s Settings) merge(override Settings) Settings {
	if v := strings.TrimSpace(override.SiteTitle); v != "" {
		s.SiteTitle = v
	}
	if v := strings.TrimSpace(override.Author); v != "" {
		s.Author = v
	}
	if v := strings.TrimSpace(override.AuthorURL); v != "" {
		s.AuthorURL = v
	}
	s.HomepageNumEntries = positiveOr(override.HomepageNumEntries, s.HomepageNumEntries)
	s.HomepageNumElsewhere = positiveOr(override.HomepageNumElsewhere, s.HomepageNumElsewhere)
	s.HomepageNumTalks = positiveOr(override.HomepageNumTalks, s.HomepageNumTalks)
	s.SearchPageSize = positiveOr(override.SearchPageSize, s.SearchPageSize)
	s.TagPageSize = positiveOr(override.TagPageSize, s.TagPageSize)
	s.TagFacetLimit = positiveOr(override.TagFacetLimit, s.TagFacetLimit)
	s.FeedSize = positiveOr(override.FeedSize, s.FeedSize)
	return s
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
