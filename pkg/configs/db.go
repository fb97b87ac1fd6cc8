package configs

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// DBType 数据库方言.
type DBType string

const (
	PostgreSQL DBType = "postgresql"
	Postgres   DBType = "postgres"
	Pg         DBType = "pg"
	MySQL      DBType = "mysql"
	MariaDB    DBType = "mariadb"
	SQLite     DBType = "sqlite"
)

// DBConfig 文档元数据库配置. 默认使用本地 SQLite 文件.
type DBConfig struct {
	Type DBType `mapstructure:"type"     rule:"oneof=postgresql postgres pg mysql mariadb sqlite"`
	// DSN 非空时直接使用，忽略下面的连接字段
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"     rule:"omitempty,min=1,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// Database 库名；SQLite 下为文件路径（不含 .db），":memory:" 为共享内存库
	Database string `mapstructure:"database" rule:"required"`
	SSLMode  string `mapstructure:"sslmode"  rule:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`

	MaxOpenConns       int `mapstructure:"max_open_conns"        rule:"min=1"`
	MaxIdleConns       int `mapstructure:"max_idle_conns"        rule:"min=0"`
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_min" rule:"min=0"`
	// SlowQueryMs 超过该耗时的 SQL 以 warn 记录
	SlowQueryMs int `mapstructure:"slow_query_ms" rule:"min=0"`
}

// Family 把别名归一为 postgres / mysql / sqlite.
func (c *DBConfig) Family() string {
	switch c.Type {
	case PostgreSQL, Postgres, Pg:
		return "postgres"
	case MySQL, MariaDB:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return ""
	}
}

// GetDSN 生成连接串. SQLite 只返回文件部分，驱动相关参数由各方言追加.
func (c *DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}

	switch c.Family() {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, url.QueryEscape(c.Password), c.Host, c.Port, c.Database)
	case "sqlite":
		if c.Database == ":memory:" {
			return "file::memory:?cache=shared"
		}

		return "file:" + c.Database + ".db"
	default:
		return ""
	}
}

// GetConnMaxLifetime 连接最长存活时间，0 表示不限制.
func (c *DBConfig) GetConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMin) * time.Minute
}

// GetSlowQueryThreshold 慢查询阈值.
func (c *DBConfig) GetSlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMs) * time.Millisecond
}

func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", SQLite)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docvault")
	v.SetDefault("db.database", "docvault")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime_min", 30)
	v.SetDefault("db.slow_query_ms", 500)
}
