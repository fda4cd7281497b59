package db

import (
	"regexp"

	"gorm.io/gorm"
)

var tagRe = regexp.MustCompile(`^[a-z0-9]+$`)

// Tag 定义了标签模型，Tag 字段区分大小写且只允许小写字母与数字。
type Tag struct {
	gorm.Model
	Tag string `gorm:"size:64;uniqueIndex;not null" json:"tag"`
}

// ValidTag reports whether value is a well-formed tag.
func ValidTag(value string) bool {
	return len(value) <= 64 && tagRe.MatchString(value)
}

// TagPath 返回标签页路径。
func TagPath(tag string) string {
	return "/tags/" + tag + "/"
}

// TagTables maps each taggable kind to its join table and foreign key column.
var TagTables = map[string]struct {
	Table  string
	Join   string
	Column string
}{
	KindEntry:     {Table: "entries", Join: "entry_tags", Column: "entry_id"},
	KindBlogmark:  {Table: "blogmarks", Join: "blogmark_tags", Column: "blogmark_id"},
	KindQuotation: {Table: "quotations", Join: "quotation_tags", Column: "quotation_id"},
	KindPhoto:     {Table: "photos", Join: "photo_tags", Column: "photo_id"},
}
