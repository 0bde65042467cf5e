package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
)

func TestCollectPublishesTableCounts(t *testing.T) {
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: "file::memory:?_pragma=foreign_keys(1)",
		LogLevel:    "silent",
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, name := range []string{"leo", "anna"} {
		if err := db.Create(&models.User{Username: name, PasswordHash: "x"}).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	c := &Collector{DB: db}
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if got := testutil.ToFloat64(tableCount.WithLabelValues("users")); got != 2 {
		t.Fatalf("users gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(tableCount.WithLabelValues("post_groups")); got != 0 {
		t.Fatalf("post_groups gauge = %v, want 0", got)
	}
}
