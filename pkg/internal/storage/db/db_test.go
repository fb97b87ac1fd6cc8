package db_test

import (
	"context"
	"slices"
	"testing"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/storage/db"
)

func TestNewSQLiteMemory(t *testing.T) {
	ctx := context.Background()

	client, err := db.New(ctx, &configs.DBConfig{
		Type:         configs.SQLite,
		Database:     ":memory:",
		MaxOpenConns: 4,
		MaxIdleConns: 0,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Close()

	if err := client.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if !client.Migrator().HasTable("documents") {
		t.Fatal("documents table missing after migrate")
	}

	if err := client.HealthCheck(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}

	sqlDB, err := client.DB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}

	if st := sqlDB.Stats(); st.MaxOpenConnections != 1 || st.OpenConnections != 1 {
		t.Fatalf("pool stats = %+v, want one pinned connection", st)
	}

	var n int64
	if err := client.Table("documents").Count(&n).Error; err != nil {
		t.Fatalf("table lost between calls: %v", err)
	}
}

func TestNewUnknownType(t *testing.T) {
	if _, err := db.New(context.Background(), &configs.DBConfig{Type: "oracle", Database: "x"}); err == nil {
		t.Fatal("expected error for unregistered type")
	}
}

func TestRegisteredTypes(t *testing.T) {
	types := db.GetRegisteredDBTypes()

	for _, want := range []configs.DBType{configs.SQLite, configs.PostgreSQL, configs.MySQL} {
		if !slices.Contains(types, want) {
			t.Errorf("%s not registered: %v", want, types)
		}
	}
}
