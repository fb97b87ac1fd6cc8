//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/configs"
)

// 纯 Go 驱动（modernc）的 pragma 写法.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

func openSQLite(dsn string) gorm.Dialector {
	return sqlite.Open(withSQLiteParams(dsn, sqlitePragmas))
}

func init() {
	RegisterDialectorFactory(configs.SQLite, openSQLite)
}
