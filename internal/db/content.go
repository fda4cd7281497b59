package db

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"
)

const (
	KindEntry     = "entry"
	KindBlogmark  = "blogmark"
	KindQuotation = "quotation"
	KindPhoto     = "photo"
)

// SearchableKinds 是搜索与标签归档覆盖的三种内容。
var SearchableKinds = []string{KindEntry, KindBlogmark, KindQuotation}

var (
	tagStripper  = newTagStripper()
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ContentBase holds the columns shared by entries, blogmarks, quotations and photos.
type ContentBase struct {
	Created   time.Time         `gorm:"index;not null" json:"created"`
	Slug      string            `gorm:"size:64;index;not null" json:"slug"`
	Latitude  *float64          `json:"latitude,omitempty"`
	Longitude *float64          `json:"longitude,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	ImportRef *string           `gorm:"size:64;uniqueIndex" json:"import_ref,omitempty"`

	// Weighted search components, lowercased and stripped of markup.
	SearchA        string `gorm:"type:text" json:"-"`
	SearchB        string `gorm:"type:text" json:"-"`
	SearchC        string `gorm:"type:text" json:"-"`
	SearchDocument string `gorm:"type:text" json:"-"`
}

// Content 是四种内容模型的公共视图。
type Content interface {
	Kind() string
	PK() uint
	Base() *ContentBase
	TagNames() []string
	SetTags(tags []Tag)
	String() string
}

// ArchivePath returns the public /YYYY/mon/D/slug/ path in loc.
func (b *ContentBase) ArchivePath(loc *time.Location) string {
	return ArchivePath(b.Created, b.Slug, loc)
}

func (b *ContentBase) index(a, weightB, c string) {
	// stored in UTC so that range filters compare consistently on SQLite
	b.Created = b.Created.UTC()
	b.SearchA = normalizeSearchText(a)
	b.SearchB = normalizeSearchText(weightB)
	b.SearchC = normalizeSearchText(c)
	b.SearchDocument = strings.TrimSpace(strings.Join([]string{b.SearchA, b.SearchB, b.SearchC}, " "))
}

// StripTags removes markup and decodes entities, leaving plain text.
func StripTags(value string) string {
	plain := html.UnescapeString(tagStripper.Sanitize(value))
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(plain, " "))
}

// TruncateWords 保留前 n 个单词，超出时附加省略号。
func TruncateWords(value string, n int) string {
	words := strings.Fields(value)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " …"
}

func newTagStripper() *bluemonday.Policy {
	policy := bluemonday.StrictPolicy()
	policy.AddSpaceWhenStrippingTag(true)
	return policy
}

func normalizeSearchText(value string) string {
	plain := StripTags(value)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.ToLower(plain), " "))
}

func tagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Tag)
	}
	return names
}
