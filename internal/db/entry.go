package db

import (
	"strings"

	"gorm.io/gorm"
)

// Entry 定义了博客文章模型
type Entry struct {
	gorm.Model
	ContentBase
	Title         string  `gorm:"size:255" json:"title"`
	Body          string  `gorm:"type:text;not null" json:"body"`
	TweetHTML     *string `gorm:"type:text" json:"tweet_html,omitempty"`
	ExtraHeadHTML *string `gorm:"type:text" json:"extra_head_html,omitempty"`
	SeriesID      *uint   `gorm:"index" json:"series_id,omitempty"`
	Series        *Series `gorm:"constraint:OnDelete:SET NULL;" json:"series,omitempty"`
	Tags          []Tag   `gorm:"many2many:entry_tags;" json:"tags"`
}

func (e *Entry) Kind() string { return KindEntry }
func (e *Entry) PK() uint { return e.ID }
func (e *Entry) Base() *ContentBase { return &e.ContentBase }
func (e *Entry) TagNames() []string { return tagNames(e.Tags) }
func (e *Entry) SetTags(tags []Tag) { e.Tags = tags }

// String 优先返回标题，没有标题时截取正文前 15 个单词。
func (e *Entry) String() string {
	if strings.TrimSpace(e.Title) != "" {
		return e.Title
	}
	return TruncateWords(StripTags(e.Body), 15)
}

// BeforeSave refreshes the search columns.
func (e *Entry) BeforeSave(*gorm.DB) error {
	e.index(e.Title, strings.Join(e.TagNames(), " "), e.Body)
	return nil
}
