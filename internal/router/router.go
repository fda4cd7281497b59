package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/weblog/internal/cache"
	"github.com/weblog/internal/config"
	"github.com/weblog/internal/handler"
	"github.com/weblog/internal/view"
)

const sessionName = "weblog_session"

// SetupRouter 配置 Gin 引擎和路由。pages 为空时不启用页面缓存。
func SetupRouter(api *handler.API, cfg config.AppConfig, pages cache.Store) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, Secure: cfg.IsProduction(), SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(api.InjectSettings())

	// 加载内嵌模板
	templates, err := view.Load(cfg.Location())
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(templates)

	// 上传文件服务
	uploadPath := "/" + strings.Trim(cfg.UploadURLPath, "/")
	r.Static(uploadPath, cfg.UploadDir)
	if uploadPath != "/uploads" {
		r.Static("/uploads", cfg.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Micropub 客户端通常来自其他源，需要读取 Location 头
	micropub := r.Group("/micropub")
	micropub.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:   []string{"Location"},
		MaxAge:          12 * time.Hour,
	}))
	{
		micropub.GET("", api.MicropubConfig)
		micropub.POST("", api.MicropubCreate)
		micropub.OPTIONS("", preflight)
		micropub.POST("/media", api.MicropubMedia)
		micropub.OPTIONS("/media", preflight)
	}

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", api.ShowLoginPage)
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/dashboard", api.ShowDashboard)
			auth.POST("/tools/purge-cache", api.PurgeCache)

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/entries", api.ListEntries)
				apiGroup.GET("/entries/:id", api.GetEntry)
				apiGroup.POST("/entries", api.CreateEntry)
				apiGroup.PUT("/entries/:id", api.UpdateEntry)
				apiGroup.DELETE("/entries/:id", api.DeleteEntry)

				apiGroup.GET("/blogmarks", api.ListBlogmarks)
				apiGroup.GET("/blogmarks/:id", api.GetBlogmark)
				apiGroup.POST("/blogmarks", api.CreateBlogmark)
				apiGroup.PUT("/blogmarks/:id", api.UpdateBlogmark)
				apiGroup.DELETE("/blogmarks/:id", api.DeleteBlogmark)

				apiGroup.GET("/quotations", api.ListQuotations)
				apiGroup.GET("/quotations/:id", api.GetQuotation)
				apiGroup.POST("/quotations", api.CreateQuotation)
				apiGroup.PUT("/quotations/:id", api.UpdateQuotation)
				apiGroup.DELETE("/quotations/:id", api.DeleteQuotation)

				apiGroup.GET("/tags", api.GetTags)
				apiGroup.POST("/tags", api.CreateTag)
				apiGroup.PUT("/tags/:id", api.UpdateTag)
				apiGroup.DELETE("/tags/:id", api.DeleteTag)

				apiGroup.POST("/upload/image", api.UploadPhoto)
			}
		}
	}

	tools := r.Group("/tools")
	{
		tools.GET("/search-tags/", api.SearchTags)
		tools.GET("/extract-title/", handler.AuthRequired(), api.ExtractTitle)
	}

	// 公开页面，匿名 GET 请求走页面缓存
	public := r.Group("")
	public.Use(cache.Middleware(pages, cache.Options{
		TTL:           cfg.PageCacheTTL,
		SessionCookie: sessionName,
		SkipPrefixes:  []string{"/admin", "/micropub", "/tools"},
	}))
	{
		public.GET("/", api.ShowHome)
		public.GET("/search/", api.ShowSearch)
		public.GET("/tags/", api.ShowTagIndex)
		public.GET("/tags/:tags/", api.ShowTagArchive)
		public.GET("/writing/", api.ShowEntryArchive)
		public.GET("/writing/:slug/", api.RedirectEntry)
		public.GET("/series/:slug/", api.ShowSeries)
		public.GET("/speaking/", api.ShowSpeaking)
		public.GET("/speaking/:slug/", api.ShowPresentation)
		public.GET("/resume/", api.ShowResume)

		public.GET("/atom/entries/", api.EntriesFeed)
		public.GET("/atom/links/", api.LinksFeed)
		public.GET("/atom/everything/", api.EverythingFeed)
		public.GET("/sitemap.xml", api.Sitemap)

		public.GET("/:year/", api.ShowArchiveYear)
		public.GET("/:year/:month/", api.ShowArchiveMonth)
		public.GET("/:year/:month/:day/", api.ShowArchiveDay)
		public.GET("/:year/:month/:day/:slug/", api.ShowArchiveItem)
	}

	return r, nil
}

func preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
