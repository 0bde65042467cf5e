package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/pagination"
)

// PostInput is a cleaned post form.
type PostInput struct {
	Text       string
	GroupID    *uint
	Image      string
	// ClearImage drops the stored image on update unless Image replaces it.
	ClearImage bool
}

// PostService reads and writes posts.
type PostService struct {
	db      *gorm.DB
	perPage int
}

// NewPostService creates a PostService paging listings by perPage items.
func NewPostService(db *gorm.DB, perPage int) *PostService {
	if perPage <= 0 {
		perPage = pagination.PerPage
	}
	return &PostService{db: db, perPage: perPage}
}

func (s *PostService) newest(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Post{}).Order("posts.id DESC")
}

func (s *PostService) page(q *gorm.DB, rawPage string) (pagination.Page[models.Post], error) {
	page, err := pagination.Query[models.Post](q, rawPage, s.perPage, "Author", "Group")
	if err != nil {
		return page, fmt.Errorf("list posts: %w", err)
	}
	return page, nil
}

// List pages through every post, newest first.
func (s *PostService) List(ctx context.Context, rawPage string) (pagination.Page[models.Post], error) {
	return s.page(s.newest(ctx), rawPage)
}

// ListByGroup pages through the posts of the group with slug.
func (s *PostService) ListByGroup(ctx context.Context, slug, rawPage string) (*models.Group, pagination.Page[models.Post], error) {
	group, err := NewGroupService(s.db).GetBySlug(ctx, slug)
	if err != nil {
		return nil, pagination.Page[models.Post]{}, err
	}
	page, err := s.page(s.newest(ctx).Where("posts.group_id = ?", group.ID), rawPage)
	return group, page, err
}

// ListByAuthor pages through the posts written by username.
func (s *PostService) ListByAuthor(ctx context.Context, username, rawPage string) (*models.User, pagination.Page[models.Post], error) {
	author, err := NewUserService(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, pagination.Page[models.Post]{}, err
	}
	page, err := s.page(s.newest(ctx).Where("posts.author_id = ?", author.ID), rawPage)
	return author, page, err
}

// Feed pages through the posts of every author userID follows.
func (s *PostService) Feed(ctx context.Context, userID uint, rawPage string) (pagination.Page[models.Post], error) {
	followees := s.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)
	return s.page(s.newest(ctx).Where("posts.author_id IN (?)", followees), rawPage)
}

// Get loads a post by its author's username and its id.
func (s *PostService) Get(ctx context.Context, username string, postID uint) (*models.Post, error) {
	var post models.Post
	db := s.db.WithContext(ctx)
	author := db.Model(&models.User{}).Select("id").Where("username = ?", username)
	err := db.Preload("Author").
		Preload("Group").
		Where("posts.id = ? AND posts.author_id IN (?)", postID, author).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load post %d: %w", postID, err)
	}
	return &post, nil
}

// CountByAuthor returns how many posts authorID has written.
func (s *PostService) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, err
}

// Clean trims and validates raw form values. group is the raw id of an
// existing group or empty for none.
func (s *PostService) Clean(ctx context.Context, text, group string) (PostInput, FieldErrors) {
	errs := FieldErrors{}
	in := PostInput{Text: strings.TrimSpace(text)}
	if in.Text == "" {
		errs.Add("text", "this field is required")
	}

	group = strings.TrimSpace(group)
	if group == "" {
		return in, errs
	}
	id, err := strconv.ParseUint(group, 10, 64)
	if err != nil || id == 0 {
		errs.Add("group", "select a valid choice")
		return in, errs
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", id).Count(&n).Error; err != nil || n == 0 {
		errs.Add("group", "select a valid choice")
		return in, errs
	}
	gid := uint(id)
	in.GroupID = &gid
	return in, errs
}

// Create stores a new post attributed to authorID; PubDate is stamped by the database layer.
func (s *PostService) Create(ctx context.Context, authorID uint, in PostInput) (*models.Post, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, FieldErrors{"text": "this field is required"}.Err()
	}
	post := models.Post{
		Text:     in.Text,
		AuthorID: authorID,
		GroupID:  in.GroupID,
		Image:    in.Image,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

// Authorize returns ErrPermissionDenied unless actorID wrote post.
func Authorize(post *models.Post, actorID uint) error {
	if post == nil || post.AuthorID != actorID {
		return ErrPermissionDenied
	}
	return nil
}

// Update rewrites text, group and image of a post written by actorID.
// PubDate and author are never part of the statement. An empty in.Image keeps the current image.
func (s *PostService) Update(ctx context.Context, actorID uint, post *models.Post, in PostInput) (*models.Post, error) {
	if err := Authorize(post, actorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, FieldErrors{"text": "this field is required"}.Err()
	}
	image := post.Image
	switch {
	case in.Image != "":
		image = in.Image
	case in.ClearImage:
		image = ""
	}
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND author_id = ?", post.ID, actorID).
		Updates(map[string]any{"text": in.Text, "group_id": in.GroupID, "image": image})
	if res.Error != nil {
		return nil, fmt.Errorf("update post %d: %w", post.ID, res.Error)
	}
	post.Text = in.Text
	post.GroupID = in.GroupID
	post.Image = image
	post.Group = nil
	return post, nil
}

// Delete removes a post together with its comments and returns the removed row.
func (s *PostService) Delete(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	db := s.db.WithContext(ctx)
	if err := db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load post %d: %w", postID, err)
	}
	if err := db.Select("Comments").Delete(&post).Error; err != nil {
		return nil, fmt.Errorf("delete post %d: %w", postID, err)
	}
	return &post, nil
}
