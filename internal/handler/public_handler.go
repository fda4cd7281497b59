package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weblog/internal/db"
	"github.com/weblog/internal/service"
	"github.com/weblog/internal/view"
)

// ShowHome renders the homepage: latest entries, elsewhere and talks.
func (a *API) ShowHome(c *gin.Context) {
	settings := a.siteSettings(c)

	entries, err := a.content.RecentEntries(settings.HomepageNumEntries)
	if err != nil {
		a.serverError(c, err)
		return
	}
	elsewhere, err := a.content.Elsewhere(settings.HomepageNumElsewhere)
	if err != nil {
		a.serverError(c, err)
		return
	}
	talks, err := a.speaking.Highlights(time.Now().In(a.loc), settings.HomepageNumTalks)
	if err != nil {
		a.serverError(c, err)
		return
	}

	c.Header("Cache-Control", "s-maxage=200")
	a.renderHTML(c, http.StatusOK, "home.html", gin.H{
		"entries":   entries,
		"elsewhere": elsewhere,
		"talks":     talks,
	})
}

// archiveDate 解析 /YYYY/mon/D/ 中的各段，缺失的段保持为零值。
func archiveDate(c *gin.Context) (int, time.Month, int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 || len(c.Param("year")) != 4 {
		return 0, 0, 0, false
	}

	var month time.Month
	if raw := c.Param("month"); raw != "" {
		m, ok := db.ParseMonthAbbrev(raw)
		if !ok {
			return 0, 0, 0, false
		}
		month = m
	}

	day := 0
	if raw := c.Param("day"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 1 || d > 31 {
			return 0, 0, 0, false
		}
		day = d
	}
	return year, month, day, true
}

// ShowArchiveYear renders /YYYY/.
func (a *API) ShowArchiveYear(c *gin.Context) {
	year, _, _, ok := archiveDate(c)
	if !ok {
		a.notFound(c)
		return
	}

	archive, err := a.archive.Year(year)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			a.notFound(c)
			return
		}
		a.serverError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "archive_year.html", gin.H{
		"title":   strconv.Itoa(year),
		"archive": archive,
	})
}

// ShowArchiveMonth renders /YYYY/mon/.
func (a *API) ShowArchiveMonth(c *gin.Context) {
	year, month, _, ok := archiveDate(c)
	if !ok {
		a.notFound(c)
		return
	}

	items, err := a.archive.Month(year, month)
	if err != nil && !errors.Is(err, service.ErrItemNotFound) {
		a.serverError(c, err)
		return
	}
	if len(items) == 0 {
		a.notFound(c)
		return
	}

	heading := fmt.Sprintf("%s %d", month, year)
	a.renderHTML(c, http.StatusOK, "archive_list.html", gin.H{
		"title":   heading,
		"heading": heading,
		"items":   items,
	})
}

// ShowArchiveDay renders /YYYY/mon/D/.
func (a *API) ShowArchiveDay(c *gin.Context) {
	year, month, day, ok := archiveDate(c)
	if !ok {
		a.notFound(c)
		return
	}

	items, err := a.archive.Day(year, month, day)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) || errors.Is(err, service.ErrArchiveDateRange) {
			a.notFound(c)
			return
		}
		a.serverError(c, err)
		return
	}

	heading := fmt.Sprintf("%d %s %d", day, month, year)
	a.renderHTML(c, http.StatusOK, "archive_list.html", gin.H{
		"title":   heading,
		"heading": heading,
		"items":   items,
	})
}

// ShowArchiveItem renders /YYYY/mon/D/slug/ for whichever kind matches.
func (a *API) ShowArchiveItem(c *gin.Context) {
	year, month, day, ok := archiveDate(c)
	if !ok {
		a.notFound(c)
		return
	}

	item, err := a.archive.FindItem(year, month, day, c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) || errors.Is(err, service.ErrArchiveDateRange) {
			a.notFound(c)
			return
		}
		a.serverError(c, err)
		return
	}

	data := gin.H{
		"title": item.Content().String(),
		"item":  item,
	}
	if item.Entry != nil && item.Entry.ExtraHeadHTML != nil {
		data["extraHead"] = view.SanitizeHTML(*item.Entry.ExtraHeadHTML)
	}
	if item.Quotation != nil {
		data["title"] = item.Quotation.Title()
	}
	a.renderHTML(c, http.StatusOK, "item.html", data)
}

// ShowEntryArchive lists every entry grouped by year.
func (a *API) ShowEntryArchive(c *gin.Context) {
	years, err := a.content.EntryArchive(a.loc)
	if err != nil {
		a.serverError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "writing.html", gin.H{
		"title": "Writing",
		"years": years,
	})
}

// RedirectEntry 将旧的 /writing/<slug>/ 地址永久重定向到归档地址。
func (a *API) RedirectEntry(c *gin.Context) {
	entry, err := a.content.EntryBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			a.notFound(c)
			return
		}
		a.serverError(c, err)
		return
	}
	c.Redirect(http.StatusMovedPermanently, entry.ArchivePath(a.loc))
}

// ShowSeries renders a series with its entries in order.
func (a *API) ShowSeries(c *gin.Context) {
	series, err := a.series.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrSeriesNotFound) {
			a.notFound(c)
			return
		}
		a.serverError(c, err)
		return
	}

	description, err := view.RenderMarkdown(series.Description)
	if err != nil {
		c.Error(err)
	}
	a.renderHTML(c, http.StatusOK, "series.html", gin.H{
		"title":       series.Title,
		"series":      series,
		"description": description,
	})
}

// ShowSearch renders the faceted search page.
func (a *API) ShowSearch(c *gin.Context) {
	values := c.Request.URL.Query()
	query, err := service.ParseSearchQuery(values)
	if err != nil {
		a.badRequest(c, err.Error())
		return
	}

	result, err := a.search.Search(query)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPageNotFound):
			a.notFound(c)
		case errors.Is(err, service.ErrSearchInvalid):
			a.badRequest(c, err.Error())
		default:
			a.serverError(c, err)
		}
		return
	}

	yearClear := values
	if query.Year != 0 {
		yearClear = cloneQuery(values)
		yearClear.Del("month")
		yearClear.Del("year")
		yearClear.Del("page")
	}

	a.renderHTML(c, http.StatusOK, "search.html", gin.H{
		"title":     result.Title,
		"q":         query.Q,
		"result":    result,
		"query":     values,
		"yearClear": "?" + yearClear.Encode(),
		"pager":     gin.H{"p": result.Pagination, "query": values},
	})
}

func cloneQuery(values url.Values) url.Values {
	next := make(url.Values, len(values))
	for key, list := range values {
		next[key] = append([]string(nil), list...)
	}
	return next
}

// splitTags parses the a+b+c path segment of a tag page. Gin decodes "+" as
// itself in path params, so both "+" and spaces are accepted.
func splitTags(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool { return r == '+' || r == ' ' })
}
