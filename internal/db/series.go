package db

import "gorm.io/gorm"

// Series 是一组按时间顺序排列的文章。
type Series struct {
	gorm.Model
	Title       string  `gorm:"type:text;not null" json:"title"`
	Slug        string  `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	Entries     []Entry `gorm:"foreignKey:SeriesID" json:"entries,omitempty"`
}

// TableName 固定表名，避免 series 的复数推断。
func (Series) TableName() string {
	return "series"
}

// Path returns the public URL path of the series page.
func (s *Series) Path() string {
	return "/series/" + s.Slug + "/"
}
