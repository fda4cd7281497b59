package db

import (
	"strings"

	"gorm.io/gorm"
)

// Photo 定义照片模型，文件保存在上传目录下。
type Photo struct {
	gorm.Model
	ContentBase
	Title    string `gorm:"type:text" json:"title"`
	FilePath string `gorm:"size:500;not null" json:"file_path"`
	URL      string `gorm:"size:1000;not null" json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Tags     []Tag  `gorm:"many2many:photo_tags;" json:"tags"`
}

func (p *Photo) Kind() string { return KindPhoto }
func (p *Photo) PK() uint { return p.ID }
func (p *Photo) Base() *ContentBase { return &p.ContentBase }
func (p *Photo) TagNames() []string { return tagNames(p.Tags) }
func (p *Photo) SetTags(tags []Tag) { p.Tags = tags }

func (p *Photo) String() string {
	if strings.TrimSpace(p.Title) != "" {
		return p.Title
	}
	return p.URL
}

func (p *Photo) BeforeSave(*gorm.DB) error {
	p.index(p.Title, strings.Join(p.TagNames(), " "), "")
	return nil
}
