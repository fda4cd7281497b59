package db

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugStripRe    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRe = regexp.MustCompile(`[-\s]+`)
	monthAbbrevs   = [...]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
)

// Slugify 将任意文本转换为 URL 安全的 slug：去掉重音、转小写、非单词字符删除、空白与连字符合并为单个 "-"。
func Slugify(value string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, value)
	if err != nil {
		ascii = value
	}

	var b strings.Builder
	for _, r := range ascii {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	cleaned := slugStripRe.ReplaceAllString(strings.ToLower(b.String()), "")
	cleaned = slugCollapseRe.ReplaceAllString(strings.TrimSpace(cleaned), "-")
	return strings.Trim(cleaned, "-_")
}

// CutSlug keeps the first max characters of slug as they are.
func CutSlug(slug string, max int) string {
	chars := []rune(slug)
	if max <= 0 || len(chars) <= max {
		return slug
	}
	return string(chars[:max])
}

// TruncateSlug cuts slug to at most max characters without leaving a trailing hyphen.
func TruncateSlug(slug string, max int) string {
	cut := CutSlug(slug, max)
	if cut == slug {
		return slug
	}
	return strings.TrimRight(cut, "-")
}

// MonthAbbrev returns the lowercase three-letter month used in archive URLs.
func MonthAbbrev(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthAbbrevs[m-1]
}

// ParseMonthAbbrev 解析 jan..dec，大小写敏感（归档 URL 只使用小写）。
func ParseMonthAbbrev(value string) (time.Month, bool) {
	for i, abbrev := range monthAbbrevs {
		if abbrev == value {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// ArchivePath builds /YYYY/mon/D/slug/ for a timestamp seen in loc.
func ArchivePath(created time.Time, slug string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := created.In(loc)
	return fmt.Sprintf("/%04d/%s/%d/%s/", local.Year(), MonthAbbrev(local.Month()), local.Day(), slug)
}
