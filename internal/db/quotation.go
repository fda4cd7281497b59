package db

import (
	"strings"

	"gorm.io/gorm"
)

// Quotation 定义了引用模型
type Quotation struct {
	gorm.Model
	ContentBase
	Quotation string  `gorm:"type:text;not null" json:"quotation"`
	Source    string  `gorm:"size:255;not null" json:"source"`
	SourceURL *string `gorm:"size:1000" json:"source_url,omitempty"`
	Tags      []Tag   `gorm:"many2many:quotation_tags;" json:"tags"`
}

func (q *Quotation) Kind() string { return KindQuotation }
func (q *Quotation) PK() uint { return q.ID }
func (q *Quotation) Base() *ContentBase { return &q.ContentBase }
func (q *Quotation) TagNames() []string { return tagNames(q.Tags) }
func (q *Quotation) SetTags(tags []Tag) { q.Tags = tags }
func (q *Quotation) String() string { return q.Quotation }

// Title is used where a quotation needs a headline, e.g. feeds.
func (q *Quotation) Title() string {
	return "A quote from " + q.Source
}

func (q *Quotation) BeforeSave(*gorm.DB) error {
	q.index(q.Quotation, strings.Join(q.TagNames(), " "), q.Source)
	return nil
}
