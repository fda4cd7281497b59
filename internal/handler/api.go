package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weblog/internal/cache"
	"github.com/weblog/internal/config"
	"github.com/weblog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db       *gorm.DB
	cfg      config.AppConfig
	settings config.Settings
	loc      *time.Location

	content  *service.ContentService
	tags     *service.TagService
	series   *service.SeriesService
	archive  *service.ArchiveService
	search   *service.SearchService
	photos   *service.PhotoService
	speaking *service.SpeakingService
	resume   *service.ResumeService
	micropub *service.MicropubService
	auth     *service.Authorizer
	titles   *service.TitleExtractor
	pages    cache.Store
}

const settingsContextKey = "__site_settings"

// NewAPI constructs a handler set with shared services. pages may be nil when
// page caching is disabled.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig, settings config.Settings, pages cache.Store) *API {
	loc := cfg.Location()
	content := service.NewContentService(gdb)

	return &API{
		db:       gdb,
		cfg:      cfg,
		settings: settings,
		loc:      loc,
		content:  content,
		tags:     service.NewTagService(gdb),
		series:   service.NewSeriesService(gdb),
		archive:  service.NewArchiveService(gdb, loc),
		search:   service.NewSearchService(gdb, loc, settings.SearchPageSize, settings.TagFacetLimit),
		photos:   service.NewPhotoService(gdb, cfg.UploadDir, cfg.UploadURLPath, loc),
		speaking: service.NewSpeakingService(gdb),
		resume:   service.NewResumeService(cfg.ResumeFile),
		micropub: service.NewMicropubService(content, loc),
		auth:     service.NewAuthorizer(&cfg),
		titles:   service.NewTitleExtractor(),
		pages:    pages,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Authorizer 暴露 Micropub 鉴权器，便于测试替换 HTTP 客户端。
func (a *API) Authorizer() *service.Authorizer {
	return a.auth
}

// TitleExtractor exposes the extractor used by tools/extract-title.
func (a *API) TitleExtractor() *service.TitleExtractor {
	return a.titles
}

// InjectSettings makes the site settings available to every handler through
// the request context.
func (a *API) InjectSettings() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(settingsContextKey, a.settings)
		c.Next()
	}
}

func (a *API) siteSettings(c *gin.Context) config.Settings {
	if cached, exists := c.Get(settingsContextKey); exists {
		if settings, ok := cached.(config.Settings); ok {
			return settings
		}
	}
	return a.settings
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	settings := a.siteSettings(c)

	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["site"]; !exists {
		payload["site"] = gin.H{
			"title":     settings.SiteTitle,
			"author":    settings.Author,
			"authorURL": settings.AuthorURL,
		}
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = time.Now().In(a.loc).Year()
	}

	c.HTML(status, template, payload)
}

// purgePages 在内容写入后清空页面缓存。
func (a *API) purgePages(c *gin.Context) {
	if a.pages == nil {
		return
	}
	if err := a.pages.Purge(c.Request.Context()); err != nil {
		c.Error(err)
	}
}
