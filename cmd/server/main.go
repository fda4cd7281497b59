package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weblog/internal/cache"
	"github.com/weblog/internal/config"
	"github.com/weblog/internal/db"
	"github.com/weblog/internal/handler"
	"github.com/weblog/internal/logger"
	"github.com/weblog/internal/router"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabaseURL); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	if err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatalf("failed to ensure super root user: %v", err)
	}

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	pages, closePages := pageStore(cfg)
	defer closePages()

	api := handler.NewAPI(db.DB, cfg, settings, pages)
	r, err := router.SetupRouter(api, cfg, pages)
	if err != nil {
		log.Fatalf("failed to set up router: %v", err)
	}

	logger.InfoWithFields("server starting", logger.Fields{
		"addr":        cfg.ListenAddr,
		"environment": cfg.Environment,
		"timezone":    cfg.Location().String(),
	})
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

// pageStore 优先使用 Redis，未配置或连接失败时回退到进程内缓存。
func pageStore(cfg config.AppConfig) (cache.Store, func()) {
	if cfg.PageCacheTTL <= 0 {
		return nil, func() {}
	}
	if cfg.RedisURL == "" {
		return cache.NewMemoryStore(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := cache.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.WarnWithFields("redis unavailable, using memory page cache", logger.Fields{"error": err.Error()})
		return cache.NewMemoryStore(), func() {}
	}
	return store, func() { store.Close() }
}
