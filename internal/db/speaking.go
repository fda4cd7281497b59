package db

import (
	"time"

	"gorm.io/gorm"
)

// Conference 定义了会议模型
type Conference struct {
	gorm.Model
	Title         string         `gorm:"size:255;uniqueIndex;not null" json:"title"`
	Link          string         `gorm:"size:1000" json:"link"`
	StartDate     time.Time      `json:"start_date"`
	EndDate       time.Time      `json:"end_date"`
	Presentations []Presentation `json:"presentations,omitempty"`
}

// Presentation is a talk given at a conference.
type Presentation struct {
	gorm.Model
	ConferenceID uint       `gorm:"index;not null" json:"conference_id"`
	Conference   Conference `json:"conference"`
	Title        string     `gorm:"type:text;not null" json:"title"`
	Slug         string     `gorm:"size:64;index;not null" json:"slug"`
	Date         time.Time  `gorm:"index;not null" json:"date"`
	Description  string     `gorm:"type:text" json:"description"`
	VideoLink    string     `gorm:"size:1000" json:"video_link"`
	SlidesLink   string     `gorm:"size:1000" json:"slides_link"`
	TextLink     string     `gorm:"size:1000" json:"text_link"`
	Coverage     []Coverage `json:"coverage,omitempty"`
}

// Path 返回演讲详情页路径。
func (p *Presentation) Path() string {
	return "/speaking/" + p.Slug + "/"
}

// Coverage links a presentation to external material: video, slides, write-ups.
type Coverage struct {
	gorm.Model
	PresentationID uint   `gorm:"index;not null" json:"presentation_id"`
	Type           string `gorm:"size:64" json:"type"`
	URL            string `gorm:"size:1000;uniqueIndex;not null" json:"url"`
}

// TableName keeps the uncountable name.
func (Coverage) TableName() string {
	return "coverage"
}
