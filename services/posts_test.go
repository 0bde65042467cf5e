package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cppla/yatube/models"
)

func TestListPaginatesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := mustUser(t, db, "author")
	for i := 1; i <= 11; i++ {
		mustPost(t, db, author, fmt.Sprintf("post %d", i), nil)
	}
	svc := NewPostService(db, 10)

	first, err := svc.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Items) != 10 || first.TotalPages != 2 || !first.HasNext {
		t.Fatalf("unexpected first page: %d items, %d pages", len(first.Items), first.TotalPages)
	}
	if first.Items[0].Text != "post 11" {
		t.Fatalf("newest post should come first, got %q", first.Items[0].Text)
	}
	if first.Items[0].Author.Username != "author" {
		t.Fatalf("author not preloaded: %+v", first.Items[0].Author)
	}

	second, err := svc.List(ctx, "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Items) != 1 || second.Items[0].Text != "post 1" {
		t.Fatalf("unexpected second page: %+v", second.Items)
	}

	clamped, err := svc.List(ctx, "77")
	if err != nil {
		t.Fatal(err)
	}
	if clamped.Number != 2 || len(clamped.Items) != 1 {
		t.Fatalf("out of range page should clamp to last, got %d", clamped.Number)
	}
}

func TestListByGroupAndAuthor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, db, "alice")
	bob := mustUser(t, db, "bob")
	cats := mustGroup(t, db, "cats")
	mustPost(t, db, alice, "a1", cats)
	mustPost(t, db, alice, "a2", nil)
	mustPost(t, db, bob, "b1", cats)
	svc := NewPostService(db, 10)

	group, page, err := svc.ListByGroup(ctx, "cats", "1")
	if err != nil {
		t.Fatal(err)
	}
	if group.Slug != "cats" || page.Total != 2 || page.Items[0].Text != "b1" {
		t.Fatalf("unexpected group listing: %+v", page.Items)
	}
	if page.Items[0].Group == nil || page.Items[0].Group.Slug != "cats" {
		t.Fatalf("group not preloaded")
	}

	author, page, err := svc.ListByAuthor(ctx, "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	if author.ID != alice.ID || page.Total != 2 {
		t.Fatalf("unexpected author listing: %d posts", page.Total)
	}

	if _, _, err := svc.ListByGroup(ctx, "dogs", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown slug, got %v", err)
	}
	if _, _, err := svc.ListByAuthor(ctx, "carol", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown author, got %v", err)
	}
}

func TestFeedContainsOnlyFollowedAuthors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	reader := mustUser(t, db, "reader")
	followed := mustUser(t, db, "followed")
	other := mustUser(t, db, "other")
	mustPost(t, db, followed, "wanted", nil)
	mustPost(t, db, other, "unwanted", nil)
	if _, err := NewFollowService(db).Follow(ctx, reader.ID, "followed"); err != nil {
		t.Fatal(err)
	}

	page, err := NewPostService(db, 10).Feed(ctx, reader.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].Text != "wanted" {
		t.Fatalf("unexpected feed: %+v", page.Items)
	}

	empty, err := NewPostService(db, 10).Feed(ctx, other.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Total != 0 || len(empty.Items) != 0 || empty.TotalPages != 1 {
		t.Fatalf("user without follows should see an empty feed: %+v", empty)
	}
}

func TestGetRequiresMatchingAuthor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, db, "alice")
	mustUser(t, db, "bob")
	post := mustPost(t, db, alice, "hello", nil)
	svc := NewPostService(db, 10)

	got, err := svc.Get(ctx, "alice", post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Author.Username != "alice" {
		t.Fatalf("author not loaded: %+v", got.Author)
	}
	if _, err := svc.Get(ctx, "bob", post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong author, got %v", err)
	}
	if _, err := svc.Get(ctx, "alice", post.ID+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong id, got %v", err)
	}
}

func TestCleanValidatesFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	group := mustGroup(t, db, "g")
	svc := NewPostService(db, 10)

	in, errs := svc.Clean(ctx, "  text  ", fmt.Sprint(group.ID))
	if len(errs) != 0 || in.Text != "text" || in.GroupID == nil || *in.GroupID != group.ID {
		t.Fatalf("valid form rejected: %+v %v", in, errs)
	}

	_, errs = svc.Clean(ctx, "   ", "")
	if _, ok := errs["text"]; !ok {
		t.Fatalf("blank text accepted: %v", errs)
	}

	for _, raw := range []string{"abc", "0", "999"} {
		_, errs = svc.Clean(ctx, "ok", raw)
		if _, ok := errs["group"]; !ok {
			t.Errorf("group %q accepted", raw)
		}
	}
}

func TestUpdateKeepsPubDateAndAuthor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, db, "alice")
	a := mustGroup(t, db, "a")
	b := mustGroup(t, db, "b")
	post := mustPost(t, db, alice, "before", a)
	svc := NewPostService(db, 10)

	var original models.Post
	db.First(&original, post.ID)
	time.Sleep(10 * time.Millisecond)

	if _, err := svc.Update(ctx, alice.ID, &original, PostInput{Text: "after", GroupID: &b.ID}); err != nil {
		t.Fatal(err)
	}

	var stored models.Post
	db.First(&stored, post.ID)
	if stored.Text != "after" || stored.GroupID == nil || *stored.GroupID != b.ID {
		t.Fatalf("update not applied: %+v", stored)
	}
	if !stored.PubDate.Equal(original.PubDate) || stored.AuthorID != alice.ID {
		t.Fatalf("immutable fields changed: %v -> %v", original.PubDate, stored.PubDate)
	}
}

func TestUpdateImageReplaceKeepAndClear(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, db, "alice")
	post := mustPost(t, db, alice, "pic", nil)
	db.Model(post).Update("image", "posts/old.gif")
	post.Image = "posts/old.gif"
	svc := NewPostService(db, 10)

	steps := []struct {
		in   PostInput
		want string
	}{
		{PostInput{Text: "kept"}, "posts/old.gif"},
		{PostInput{Text: "replaced", Image: "posts/new.gif", ClearImage: true}, "posts/new.gif"},
		{PostInput{Text: "cleared", ClearImage: true}, ""},
	}
	for _, step := range steps {
		if _, err := svc.Update(ctx, alice.ID, post, step.in); err != nil {
			t.Fatal(err)
		}
		var stored models.Post
		db.First(&stored, post.ID)
		if stored.Image != step.want || post.Image != step.want {
			t.Fatalf("%s: image = %q (in memory %q), want %q", step.in.Text, stored.Image, post.Image, step.want)
		}
	}
}

func TestUpdateByNonAuthorIsDenied(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, db, "alice")
	mallory := mustUser(t, db, "mallory")
	post := mustPost(t, db, alice, "mine", nil)

	_, err := NewPostService(db, 10).Update(ctx, mallory.ID, post, PostInput{Text: "yours"})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	var stored models.Post
	db.First(&stored, post.ID)
	if stored.Text != "mine" {
		t.Fatalf("non-author changed the post: %q", stored.Text)
	}
}

func TestDeletePostCascadesComments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, db, "alice")
	post := mustPost(t, db, alice, "soon gone", nil)
	comments := NewCommentService(db)
	for i := 0; i < 3; i++ {
		if _, err := comments.Create(ctx, alice.ID, post.ID, "c"); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := NewPostService(db, 10).Delete(ctx, post.ID); err != nil {
		t.Fatal(err)
	}
	if n := countRows(t, db, &models.Comment{}, ""); n != 0 {
		t.Fatalf("comments survived their post: %d", n)
	}
	if _, err := NewPostService(db, 10).Delete(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCommentsListedInCreationOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, db, "alice")
	post := mustPost(t, db, alice, "p", nil)
	svc := NewCommentService(db)

	for _, text := range []string{"first", "second", "third"} {
		if _, err := svc.Create(ctx, alice.ID, post.ID, text); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Create(ctx, alice.ID, post.ID, "  "); err == nil {
		t.Fatal("blank comment accepted")
	}

	got, err := svc.ListForPost(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].Text != "first" || got[2].Text != "third" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Author.Username != "alice" {
		t.Fatalf("comment author not loaded")
	}
}
