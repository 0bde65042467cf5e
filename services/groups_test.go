package services

import (
	"context"
	"errors"
	"testing"

	"github.com/cppla/yatube/models"
)

func TestDeleteGroupWithPostsIsRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, db, "alice")
	used := mustGroup(t, db, "used")
	mustGroup(t, db, "unused")
	mustPost(t, db, alice, "pinned", used)
	svc := NewGroupService(db)

	if err := svc.Delete(ctx, "used"); !errors.Is(err, ErrGroupInUse) {
		t.Fatalf("expected ErrGroupInUse, got %v", err)
	}
	if _, err := svc.GetBySlug(ctx, "used"); err != nil {
		t.Fatalf("referenced group was deleted: %v", err)
	}

	if err := svc.Delete(ctx, "unused"); err != nil {
		t.Fatalf("delete unused group: %v", err)
	}
	if err := svc.Delete(ctx, "unused"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGroupForeignKeyRestrictsRawDelete(t *testing.T) {
	db := newTestDB(t)
	alice := mustUser(t, db, "alice")
	g := mustGroup(t, db, "g")
	mustPost(t, db, alice, "p", g)

	if err := db.Delete(&models.Group{}, g.ID).Error; err == nil {
		t.Fatal("foreign key allowed deleting a referenced group")
	}
}

func TestCreateGroupValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewGroupService(db)
	mustGroup(t, db, "taken")

	cases := map[string]GroupInput{
		"title":       {Title: "", Description: "d", Slug: "ok"},
		"description": {Title: "t", Description: " ", Slug: "ok"},
		"slug":        {Title: "t", Description: "d", Slug: "no spaces"},
	}
	for field, in := range cases {
		_, err := svc.Create(ctx, in)
		fields, ok := AsValidation(err)
		if !ok {
			t.Errorf("%s: expected validation error, got %v", field, err)
			continue
		}
		if _, ok := fields[field]; !ok {
			t.Errorf("%s: missing field error in %v", field, fields)
		}
	}

	_, err := svc.Create(ctx, GroupInput{Title: "t", Description: "d", Slug: "taken"})
	if fields, ok := AsValidation(err); !ok || fields["slug"] == "" {
		t.Fatalf("duplicate slug accepted: %v", err)
	}
}

func TestUpdateGroupKeepsSlug(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	mustGroup(t, db, "stable")

	g, err := NewGroupService(db).Update(ctx, "stable", GroupInput{Title: "New", Description: "Desc", Slug: "ignored"})
	if err != nil {
		t.Fatal(err)
	}
	if g.Slug != "stable" || g.Title != "New" {
		t.Fatalf("unexpected group after update: %+v", g)
	}
}
