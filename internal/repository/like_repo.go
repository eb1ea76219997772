package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/acquaintance/internal/db"
	apperr "github.com/oggyb/acquaintance/internal/errors"
)

// LikeRepository provides data access methods for the Like model.
// It encapsulates all queries over the directed like graph.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// GetLike returns the liker -> likee edge, or nil when there is none.
func (r *LikeRepository) GetLike(ctx context.Context, likerID, likeeID uint64) (*db.Like, error) {
	var likes []db.Like
	err := r.db.WithContext(ctx).
		Where("liker_id = ? AND likee_id = ?", likerID, likeeID).
		Limit(1).
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	if len(likes) == 0 {
		return nil, nil
	}
	return &likes[0], nil
}

// Create inserts the liker -> likee edge.
//
// Behavior:
//   - The composite primary key is the authority on uniqueness: of two racing
//     inserts for the same pair exactly one commits, the other gets ErrDuplicateKey.
//
// Example:
//
//	repo.Create(ctx, 1, 2) // user 1 liked user 2
func (r *LikeRepository) Create(ctx context.Context, likerID, likeeID uint64) (*db.Like, error) {
	like := db.Like{LikerID: likerID, LikeeID: likeeID}
	if err := r.db.WithContext(ctx).Create(&like).Error; err != nil {
		if apperr.IsDuplicateKey(err) {
			return nil, fmt.Errorf("%w: like %d -> %d", apperr.ErrDuplicateKey, likerID, likeeID)
		}
		return nil, err
	}
	return &like, nil
}

// HasLiked checks whether liker has liked likee.
func (r *LikeRepository) HasLiked(ctx context.Context, likerID, likeeID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ? AND likee_id = ?", likerID, likeeID).
		Count(&count).Error
	return count > 0, err
}

// CountLikers returns how many users liked the given user.
// Used in conjunction with the Redis counter (DB is the fallback).
func (r *LikeRepository) CountLikers(ctx context.Context, likeeID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("likee_id = ?", likeeID).
		Count(&count).Error
	return count, err
}

// ListMatches returns users in a mutual like with userID, most recent edge first.
func (r *LikeRepository) ListMatches(ctx context.Context, userID uint64) ([]db.User, error) {
	users := []db.User{}
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Joins("JOIN likes mine ON mine.likee_id = users.id AND mine.liker_id = ?", userID).
		Joins("JOIN likes theirs ON theirs.liker_id = users.id AND theirs.likee_id = ?", userID).
		Order("CASE WHEN mine.created_at > theirs.created_at THEN mine.created_at ELSE theirs.created_at END DESC").
		Order("users.id DESC").
		Find(&users).Error
	return users, err
}
