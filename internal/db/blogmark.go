package db

import (
	"fmt"
	"net/url"
	"strings"

	"gorm.io/gorm"
)

// Blogmark is a bookmarked link with commentary.
type Blogmark struct {
	gorm.Model
	ContentBase
	LinkURL    string  `gorm:"size:1000;not null" json:"link_url"`
	LinkTitle  string  `gorm:"size:255;not null" json:"link_title"`
	ViaURL     *string `gorm:"size:1000" json:"via_url,omitempty"`
	ViaTitle   *string `gorm:"size:255" json:"via_title,omitempty"`
	Commentary string  `gorm:"type:text" json:"commentary"`
	Tags       []Tag   `gorm:"many2many:blogmark_tags;" json:"tags"`
}

func (b *Blogmark) Kind() string { return KindBlogmark }
func (b *Blogmark) PK() uint { return b.ID }
func (b *Blogmark) Base() *ContentBase { return &b.ContentBase }
func (b *Blogmark) TagNames() []string { return tagNames(b.Tags) }
func (b *Blogmark) SetTags(tags []Tag) { b.Tags = tags }
func (b *Blogmark) String() string { return b.LinkTitle }

// LinkDomain 返回链接的主机名。
func (b *Blogmark) LinkDomain() string {
	parsed, err := url.Parse(b.LinkURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// WordCount renders the commentary length, e.g. "1 word" or "12 words".
func (b *Blogmark) WordCount() string {
	count := len(strings.Fields(b.Commentary))
	if count == 1 {
		return "1 word"
	}
	return fmt.Sprintf("%d words", count)
}

func (b *Blogmark) BeforeSave(*gorm.DB) error {
	via := ""
	if b.ViaTitle != nil {
		via = *b.ViaTitle
	}
	b.index(b.LinkTitle, strings.Join(b.TagNames(), " "), strings.Join([]string{b.Commentary, b.LinkDomain(), via}, " "))
	return nil
}
