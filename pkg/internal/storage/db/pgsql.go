//go:build !no_postgres

package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/configs"
)

func openPostgres(dsn string) gorm.Dialector {
	return postgres.New(postgres.Config{DSN: dsn})
}

func init() {
	RegisterDialectorFactory(configs.PostgreSQL, openPostgres)
	RegisterDialectorFactory(configs.Postgres, openPostgres)
	RegisterDialectorFactory(configs.Pg, openPostgres)
}
