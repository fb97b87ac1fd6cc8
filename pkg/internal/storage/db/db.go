// Package db 打开文档元数据库（gorm）.
//
// 方言按 build tag 拆分到独立文件并在 init 中注册，编译时可用
// no_mysql / no_postgres / no_sqlite 裁掉不需要的驱动. SQLite 在启用 cgo 时
// 使用 mattn 驱动，否则使用纯 Go 的 glebarez/sqlite.
package db

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/log"
)

// DialectorFactory 由 DSN 构造方言.
type DialectorFactory func(dsn string) gorm.Dialector

var (
	factoriesMu sync.RWMutex
	factories   = map[configs.DBType]DialectorFactory{}
)

// RegisterDialectorFactory 注册方言，同名覆盖.
func RegisterDialectorFactory(t configs.DBType, f DialectorFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[t] = f
}

// GetRegisteredDBTypes 已编译进来的方言（已排序）.
func GetRegisteredDBTypes() []configs.DBType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	out := make([]configs.DBType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}

	slices.Sort(out)

	return out
}

// Client 文档库连接.
type Client struct {
	*gorm.DB
}

// metricsRefreshSeconds 连接池指标刷新间隔.
const metricsRefreshSeconds = 15

// New 打开数据库、配置连接池并 Ping. 表结构由 Migrate 单独创建.
func New(ctx context.Context, cfg *configs.DBConfig) (*Client, error) {
	factoriesMu.RLock()
	factory, ok := factories[cfg.Type]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("database type %q not compiled in (have %v)", cfg.Type, GetRegisteredDBTypes())
	}

	dsn := cfg.GetDSN()
	if dsn == "" {
		return nil, fmt.Errorf("empty dsn for database type %q", cfg.Type)
	}

	level := logger.Warn
	if configs.GetConfig().Server.Debug {
		level = logger.Info
	}

	db, err := gorm.Open(factory(dsn), &gorm.Config{
		Logger: logger.New(log.Component("db"), logger.Config{
			SlowThreshold:             cfg.GetSlowQueryThreshold(),
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Family(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql db: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	// 共享内存库随最后一个连接关闭而消失：固定一个常驻连接，且不按寿命回收
	if cfg.Family() == "sqlite" && strings.Contains(dsn, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Family(), err)
	}

	client := &Client{DB: db}

	if configs.GetConfig().Metrics.Enabled {
		err := db.Use(gormPrometheus.New(gormPrometheus.Config{
			DBName:          cfg.Database,
			RefreshInterval: metricsRefreshSeconds,
		}))
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("gorm prometheus plugin: %w", err)
		}
	}

	log.Component("db").Info().
		Str("family", cfg.Family()).
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Msg("database connected")

	return client, nil
}

// withSQLiteParams 给 SQLite DSN 追加驱动参数.
func withSQLiteParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}

	return dsn + "?" + params
}

// Migrate 创建或更新文档表.
func (c *Client) Migrate(ctx context.Context) error {
	if err := model.Migrate(c.WithContext(ctx)); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}

	return nil
}

// GetDB 返回 gorm 实例.
func (c *Client) GetDB() *gorm.DB {
	return c.DB
}

// HealthCheck Ping 数据库.
func (c *Client) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Close 关闭连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
