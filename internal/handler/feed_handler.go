package handler

import (
	"encoding/xml"
	"html"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	atom "github.com/thomas11/atomgenerator"
	"github.com/weblog/internal/db"
	"github.com/weblog/internal/logger"
	"github.com/weblog/internal/service"
)

const atomContentType = "application/atom+xml; charset=utf-8"

// EntriesFeed serves /atom/entries/.
func (a *API) EntriesFeed(c *gin.Context) {
	a.serveFeed(c, "entries", db.KindEntry)
}

// LinksFeed serves /atom/links/.
func (a *API) LinksFeed(c *gin.Context) {
	a.serveFeed(c, "links", db.KindBlogmark)
}

// EverythingFeed serves /atom/everything/.
func (a *API) EverythingFeed(c *gin.Context) {
	a.serveFeed(c, "everything", db.SearchableKinds...)
}

func (a *API) serveFeed(c *gin.Context, name string, kinds ...string) {
	settings := a.siteSettings(c)
	items, err := a.content.Recent(settings.FeedSize, kinds...)
	if err != nil {
		a.serverError(c, err)
		return
	}

	feed := atom.Feed{
		Title:   settings.SiteTitle,
		Link:    a.absoluteURL(c, "/atom/"+name+"/"),
		PubDate: time.Now(),
	}
	if len(items) > 0 {
		feed.PubDate = items[0].Created()
	}
	feed.AddAuthor(atom.Author{
		Name: settings.Author,
		Uri:  settings.AuthorURL,
	})
	for _, item := range items {
		feed.AddEntry(a.feedEntry(c, item))
	}

	if errs := feed.Validate(); len(errs) > 0 {
		for _, e := range errs {
			logger.ErrorWithFields("atom feed is not valid", logger.Fields{"feed": name, "error": e.Error()})
		}
		a.serverError(c, errs[0])
		return
	}
	body, err := feed.GenXml()
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.Header("Cache-Control", "s-maxage=200")
	c.Data(http.StatusOK, atomContentType, body)
}

func (a *API) feedEntry(c *gin.Context, item service.ContentItem) *atom.Entry {
	content := item.Content()
	e := &atom.Entry{
		Link:    a.absoluteURL(c, content.Base().ArchivePath(a.loc)),
		PubDate: item.Created(),
	}

	switch item.Type {
	case db.KindEntry:
		e.Title = item.Entry.String()
		e.Content = item.Entry.Body
		e.Description = db.TruncateWords(db.StripTags(item.Entry.Body), 30)
	case db.KindBlogmark:
		e.Title = item.Blogmark.LinkTitle
		e.Content = `<p><a href="` + html.EscapeString(item.Blogmark.LinkURL) + `">` + html.EscapeString(item.Blogmark.LinkTitle) + `</a>: ` + html.EscapeString(item.Blogmark.Commentary) + `</p>`
		e.Description = item.Blogmark.Commentary
	case db.KindQuotation:
		e.Title = item.Quotation.Title()
		e.Content = `<blockquote>` + item.Quotation.Quotation + `</blockquote><p>&mdash; ` + html.EscapeString(item.Quotation.Source) + `</p>`
		e.Description = db.TruncateWords(db.StripTags(item.Quotation.Quotation), 30)
	}
	if e.Description == "" {
		e.Description = e.Title
	}

	for _, tag := range content.TagNames() {
		e.AddCategory(atom.Category{Term: tag})
	}
	return e
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap 输出所有文章、链接与引用的 sitemap.xml。
func (a *API) Sitemap(c *gin.Context) {
	locations, err := a.content.SitemapLocations(a.loc)
	if err != nil {
		a.serverError(c, err)
		return
	}

	set := sitemapURLSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, location := range locations {
		url := sitemapURL{Loc: a.absoluteURL(c, location.Path)}
		if !location.Modified.IsZero() {
			url.LastMod = location.Modified.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, url)
	}

	body, err := xml.Marshal(set)
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}
