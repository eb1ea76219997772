// Package likes implements the like graph: directed edges, reciprocity and liker counts.
package likes

import (
	"context"

	"github.com/oggyb/acquaintance/internal/app"
	"github.com/oggyb/acquaintance/internal/db"
	apperr "github.com/oggyb/acquaintance/internal/errors"
	"github.com/oggyb/acquaintance/internal/repository"
)

var (
	ErrAlreadyLiked      = apperr.Conflict("you already like this user")
	ErrRecipientNotFound = apperr.NotFound("user not found")
	ErrSelfLike          = apperr.Validation("you cannot like yourself")
	ErrNotYourself       = apperr.Validation("you can only like as yourself")
)

// LikeResult reports the stored edge and whether it completed a match.
type LikeResult struct {
	Like    *db.Like
	IsMatch bool
}

// Service contains the like graph logic on top of repository and cache layers.
type Service struct {
	appCtx   *app.AppContext
	likeRepo *repository.LikeRepository
	userRepo *repository.UserRepository
}

// NewLikesService creates the service with dependencies from AppContext.
func NewLikesService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		likeRepo: repository.NewLikeRepository(appCtx.DB),
		userRepo: repository.NewUserRepository(appCtx.DB),
	}
}

// GetLike returns the liker -> likee edge, nil when absent.
func (s *Service) GetLike(ctx context.Context, likerID, likeeID uint64) (*db.Like, error) {
	like, err := s.likeRepo.GetLike(ctx, likerID, likeeID)
	if err != nil {
		return nil, apperr.Map(err)
	}
	return like, nil
}

// Like records that likerID likes likeeID, acting as requesterID.
//
// Behavior:
//   - requesterID must equal likerID, and a user cannot like themselves.
//   - An existing edge fails with ErrAlreadyLiked before the recipient lookup.
//   - An unknown likee fails with ErrRecipientNotFound.
//   - The insert relies on the (liker_id, likee_id) primary key: a concurrent
//     duplicate that slipped past the pre-check also ends in ErrAlreadyLiked.
//   - On success the likee's cached liker count is bumped if present.
//
// Example:
//
//	svc.Like(ctx, 1, 1, 2) // user 1 likes user 2
func (s *Service) Like(ctx context.Context, requesterID, likerID, likeeID uint64) (*LikeResult, error) {
	s.appCtx.Logger.Debug("Like called", "requester", requesterID, "liker", likerID, "likee", likeeID)

	if requesterID != likerID {
		return nil, ErrNotYourself
	}
	if likerID == likeeID {
		return nil, ErrSelfLike
	}

	existing, err := s.likeRepo.GetLike(ctx, likerID, likeeID)
	if err != nil {
		return nil, apperr.Map(err)
	}
	if existing != nil {
		return nil, ErrAlreadyLiked
	}

	if _, err := s.userRepo.GetByID(ctx, likeeID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRecipientNotFound
		}
		return nil, apperr.Map(err)
	}

	like, err := s.likeRepo.Create(ctx, likerID, likeeID)
	if err != nil {
		if apperr.IsDuplicateKey(err) {
			return nil, ErrAlreadyLiked
		}
		s.appCtx.Logger.Error("create like failed", "liker", likerID, "likee", likeeID, "err", err)
		return nil, apperr.Wrap(apperr.KindValidation, "failed to like user", err)
	}

	if rc := s.appCtx.RedisCache; rc != nil {
		if err := rc.IncrLikeCount(ctx, likeeID); err != nil {
			s.appCtx.Logger.Warn("like counter update failed", "likee", likeeID, "err", err)
		}
	}

	mutual, err := s.likeRepo.HasLiked(ctx, likeeID, likerID)
	if err != nil {
		// the edge is committed; report it without the match flag
		s.appCtx.Logger.Warn("reciprocity check failed", "liker", likerID, "likee", likeeID, "err", err)
	}

	return &LikeResult{Like: like, IsMatch: mutual}, nil
}

// IsMatch reports whether a and b like each other. Always read from the database.
func (s *Service) IsMatch(ctx context.Context, a, b uint64) (bool, error) {
	if a == b {
		return false, nil
	}
	ab, err := s.likeRepo.HasLiked(ctx, a, b)
	if err != nil {
		return false, apperr.Map(err)
	}
	if !ab {
		return false, nil
	}
	ba, err := s.likeRepo.HasLiked(ctx, b, a)
	if err != nil {
		return false, apperr.Map(err)
	}
	return ba, nil
}

// CountLikers returns how many users liked userID.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID), refreshing its TTL.
//  2. On a miss or a Redis error, falls back to the DB via repository.CountLikers.
//  3. On DB fetch, stores the count in Redis with a 1h TTL.
func (s *Service) CountLikers(ctx context.Context, userID uint64) (int64, error) {
	rc := s.appCtx.RedisCache
	if rc != nil {
		n, ok, err := rc.GetLikeCount(ctx, userID)
		if err != nil {
			s.appCtx.Logger.Warn("like counter read failed", "user_id", userID, "err", err)
		} else if ok {
			return n, nil
		}
	}

	count, err := s.likeRepo.CountLikers(ctx, userID)
	if err != nil {
		return 0, apperr.Map(err)
	}

	if rc != nil {
		_ = rc.SetLikeCount(ctx, userID, count)
	}
	return count, nil
}
