package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/models"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]{1,50}$`)

// GroupInput carries the editable fields of a group.
type GroupInput struct {
	Title       string
	Description string
	Slug        string
}

// GroupService manages communities. Creation and removal are administrative operations.
type GroupService struct {
	db *gorm.DB
}

// NewGroupService creates a GroupService.
func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{db: db}
}

// List returns all groups ordered by title.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("title ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// GetBySlug loads a group or returns ErrNotFound.
func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load group %q: %w", slug, err)
	}
	return &group, nil
}

func validateGroup(in GroupInput, withSlug bool) FieldErrors {
	errs := FieldErrors{}
	if in.Title == "" {
		errs.Add("title", "this field is required")
	} else if utf8.RuneCountInString(in.Title) > 200 {
		errs.Add("title", "at most 200 characters")
	}
	if in.Description == "" {
		errs.Add("description", "this field is required")
	}
	if withSlug && !slugPattern.MatchString(in.Slug) {
		errs.Add("slug", "1-50 letters, digits, hyphens or underscores")
	}
	return errs
}

func trimGroup(in GroupInput) GroupInput {
	return GroupInput{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Slug:        strings.TrimSpace(in.Slug),
	}
}

// Create inserts a group; a duplicate slug becomes a field error.
func (s *GroupService) Create(ctx context.Context, in GroupInput) (*models.Group, error) {
	in = trimGroup(in)
	if err := validateGroup(in, true).Err(); err != nil {
		return nil, err
	}
	group := models.Group{Title: in.Title, Description: in.Description, Slug: in.Slug}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&group)
	if res.Error != nil {
		return nil, fmt.Errorf("create group: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, FieldErrors{"slug": "a group with this slug already exists"}.Err()
	}
	return &group, nil
}

// Update changes title and description. The slug is the group's identity and stays as is.
func (s *GroupService) Update(ctx context.Context, slug string, in GroupInput) (*models.Group, error) {
	in = trimGroup(in)
	if err := validateGroup(in, false).Err(); err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(&models.Group{}).Where("slug = ?", slug).
		Updates(map[string]any{"title": in.Title, "description": in.Description})
	if res.Error != nil {
		return nil, fmt.Errorf("update group %q: %w", slug, res.Error)
	}
	return s.GetBySlug(ctx, slug)
}

// Delete removes a group unless posts still reference it (ErrGroupInUse).
// The reference check is part of the DELETE statement; the foreign key is the backstop.
func (s *GroupService) Delete(ctx context.Context, slug string) error {
	db := s.db.WithContext(ctx)
	referenced := db.Model(&models.Post{}).Select("1").
		Where("posts.group_id = post_groups.id")
	res := db.Where("slug = ?", slug).
		Where("NOT EXISTS (?)", referenced).
		Delete(&models.Group{})
	if res.Error != nil {
		return fmt.Errorf("delete group %q: %w", slug, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := s.GetBySlug(ctx, slug); err != nil {
		return err
	}
	return ErrGroupInUse
}
