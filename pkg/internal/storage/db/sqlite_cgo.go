//go:build !no_sqlite && cgo

package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/configs"
)

// mattn/go-sqlite3 的连接参数写法.
const sqlitePragmas = "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=1"

func openSQLite(dsn string) gorm.Dialector {
	return sqlite.Open(withSQLiteParams(dsn, sqlitePragmas))
}

func init() {
	RegisterDialectorFactory(configs.SQLite, openSQLite)
}
