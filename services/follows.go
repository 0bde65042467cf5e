package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/models"
)

// FollowService maintains the follower graph.
type FollowService struct {
	db *gorm.DB
}

// NewFollowService creates a FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// Follow subscribes followerID to username. Re-following is a no-op;
// following yourself returns ErrSelfFollow and writes nothing.
func (s *FollowService) Follow(ctx context.Context, followerID uint, username string) (*models.User, error) {
	author, err := NewUserService(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == followerID {
		return author, ErrSelfFollow
	}
	edge := models.Follow{UserID: followerID, AuthorID: author.ID}
	// insert-if-absent in one statement: the unique (user_id, author_id) index settles races
	err = s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge).Error
	if err != nil {
		return nil, fmt.Errorf("follow %q: %w", username, err)
	}
	return author, nil
}

// Unfollow removes the edge followerID -> username if it exists.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint, username string) (*models.User, error) {
	author, err := NewUserService(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", followerID, author.ID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return nil, fmt.Errorf("unfollow %q: %w", username, err)
	}
	return author, nil
}

// IsFollowing reports whether followerID follows authorID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return n > 0, nil
}

// Counts returns how many users follow userID and how many userID follows.
func (s *FollowService) Counts(ctx context.Context, userID uint) (followers, following int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&models.Follow{}).Where("author_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, fmt.Errorf("count followers: %w", err)
	}
	if err = db.Model(&models.Follow{}).Where("user_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, fmt.Errorf("count following: %w", err)
	}
	return followers, following, nil
}
