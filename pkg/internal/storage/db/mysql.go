//go:build !no_mysql

package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/configs"
)

// openMySQL 文档标题与路径按 1024 以内设计，默认字符串长度放宽到 512.
func openMySQL(dsn string) gorm.Dialector {
	return mysql.New(mysql.Config{
		DSN:               dsn,
		DefaultStringSize: 512,
	})
}

func init() {
	RegisterDialectorFactory(configs.MySQL, openMySQL)
	RegisterDialectorFactory(configs.MariaDB, openMySQL)
}
