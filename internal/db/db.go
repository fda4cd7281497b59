package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Models lists every table managed by AutoMigrate, in dependency order.
func Models() []any {
	return []any{
		&User{},
		&Tag{},
		&Series{},
		&Entry{},
		&Blogmark{},
		&Quotation{},
		&Photo{},
		&Conference{},
		&Presentation{},
		&Coverage{},
	}
}

// Init 初始化数据库连接并执行自动迁移。
// dsn 以 postgres:// 或 postgresql:// 开头时使用 PostgreSQL，否则视为 SQLite 文件路径；
// 为空时回退到 weblog.db。
func Init(dsn string) error {
	gdb, err := Open(dsn, logger.Warn)
	if err != nil {
		return err
	}
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return err
	}
	DB = gdb
	return nil
}

// Open 仅建立连接，不做迁移。
func Open(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "weblog.db"
	}

	cfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	if IsPostgresDSN(dsn) {
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	if err := ensureParentDir(dsn); err != nil {
		return nil, err
	}
	return gorm.Open(sqlite.Open(dsn), cfg)
}

// IsPostgresDSN reports whether dsn targets PostgreSQL.
func IsPostgresDSN(dsn string) bool {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
