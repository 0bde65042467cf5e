package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: "file::memory:?_pragma=foreign_keys(1)",
		LogLevel:    "silent",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func mustUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := models.User{Username: username}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return &u
}

func mustGroup(t *testing.T, db *gorm.DB, slug string) *models.Group {
	t.Helper()
	g, err := NewGroupService(db).Create(context.Background(), GroupInput{
		Title:       "Group " + slug,
		Description: "About " + slug,
		Slug:        slug,
	})
	if err != nil {
		t.Fatalf("create group %s: %v", slug, err)
	}
	return g
}

func mustPost(t *testing.T, db *gorm.DB, author *models.User, text string, group *models.Group) *models.Post {
	t.Helper()
	in := PostInput{Text: text}
	if group != nil {
		in.GroupID = &group.ID
	}
	p, err := NewPostService(db, 0).Create(context.Background(), author.ID, in)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
