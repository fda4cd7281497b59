package view

import (
	"embed"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/weblog/internal/db"
	"github.com/weblog/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// Load parses every embedded template with the site funcs. Dates render in loc.
func Load(loc *time.Location) (*template.Template, error) {
	return template.New("").Funcs(Funcs(loc)).ParseFS(templateFS, "templates/*.html")
}

// Funcs 返回模板可用的辅助函数。
func Funcs(loc *time.Location) template.FuncMap {
	if loc == nil {
		loc = time.UTC
	}
	return template.FuncMap{
		"archivePath": func(v any) string { return archivePath(v, loc) },
		"tagPath":     db.TagPath,
		"monthAbbrev": db.MonthAbbrev,
		"localDate": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format(layout)
		},
		"resumeDate": service.ResumeDate,
		"markdown": func(content string) template.HTML {
			rendered, err := RenderMarkdown(content)
			if err != nil {
				return ""
			}
			return rendered
		},
		"bodyHTML": SanitizeHTML,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"add":       func(a, b int) int { return a + b },
		"sub":       func(a, b int) int { return a - b },
		"join":      strings.Join,
		"withParam": withParam,
		"addParam":  addParam,
		"dropParam": dropParam,
	}
}

func archivePath(v any, loc *time.Location) string {
	switch item := v.(type) {
	case service.ContentItem:
		if content := item.Content(); content != nil {
			return content.Base().ArchivePath(loc)
		}
	case *service.ContentItem:
		if content := item.Content(); content != nil {
			return content.Base().ArchivePath(loc)
		}
	case db.Content:
		return item.Base().ArchivePath(loc)
	case db.Entry:
		return item.ArchivePath(loc)
	case db.Blogmark:
		return item.ArchivePath(loc)
	case db.Quotation:
		return item.ArchivePath(loc)
	case db.Photo:
		return item.ArchivePath(loc)
	}
	return ""
}

// withParam returns a query string with key set to value; page is always reset.
func withParam(values url.Values, key, value string) string {
	next := cloneValues(values)
	next.Del("page")
	if value == "" {
		next.Del(key)
	} else {
		next.Set(key, value)
	}
	return encodeQuery(next)
}

// addParam appends value to key unless it is already present.
func addParam(values url.Values, key, value string) string {
	next := cloneValues(values)
	next.Del("page")
	for _, existing := range next[key] {
		if existing == value {
			return encodeQuery(next)
		}
	}
	next.Add(key, value)
	return encodeQuery(next)
}

// dropParam removes one value of key, or the whole key when value is empty.
func dropParam(values url.Values, key, value string) string {
	next := cloneValues(values)
	next.Del("page")
	if value == "" {
		next.Del(key)
		return encodeQuery(next)
	}
	kept := next[key][:0]
	for _, existing := range next[key] {
		if existing != value {
			kept = append(kept, existing)
		}
	}
	if len(kept) == 0 {
		next.Del(key)
	} else {
		next[key] = kept
	}
	return encodeQuery(next)
}

func cloneValues(values url.Values) url.Values {
	next := url.Values{}
	for key, list := range values {
		next[key] = append([]string(nil), list...)
	}
	return next
}

func encodeQuery(values url.Values) string {
	encoded := values.Encode()
	if encoded == "" {
		return "?"
	}
	return "?" + encoded
}
