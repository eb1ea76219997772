// Package users implements discovery, profile reads and profile updates.
package users

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/oggyb/acquaintance/internal/app"
	"github.com/oggyb/acquaintance/internal/db"
	apperr "github.com/oggyb/acquaintance/internal/errors"
	"github.com/oggyb/acquaintance/internal/repository"
	"github.com/oggyb/acquaintance/internal/utils/pagination"
)

// DetailTTL bounds how stale a cached profile read can be.
const DetailTTL = time.Minute

// Gender policies applied when discovery has no explicit gender filter.
const (
	PolicyOpposite = "opposite"
	PolicyAny      = "any"
)

var (
	ErrUserNotFound  = apperr.NotFound("user not found")
	ErrNotYourself   = apperr.Validation("you can only act on your own account")
	ErrInvalidGender = apperr.Validation("gender must be male or female")
	ErrInvalidSort   = apperr.Validation("orderBy must be lastActive or createdAt")
	ErrInvalidAge    = apperr.Validation("minAge must not exceed maxAge")
)

// ListParams is one discovery request. Zero ages and page values select the configured defaults.
type ListParams struct {
	RequesterID uint64
	Gender      string
	MinAge      int
	MaxAge      int
	OrderBy     string
	PageNumber  int
	PageSize    int
	Likers      bool
	Likees      bool
}

// Service is the user query engine plus profile maintenance.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository
	likeRepo *repository.LikeRepository
	group    singleflight.Group
}

// NewUsersService creates the service with dependencies from AppContext.
func NewUsersService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
		likeRepo: repository.NewLikeRepository(appCtx.DB),
	}
}

// ListUsers returns one page of discovery candidates.
//
// Behavior:
//   - With no gender filter the configured policy applies: "opposite" picks the
//     gender opposite to the requester's, "any" leaves gender unfiltered.
//   - The requester never appears in the result.
//   - Age bounds are inclusive and derived from date of birth against today (UTC).
//   - totalCount and totalPages cover the whole filtered set; a page past the end is empty.
func (s *Service) ListUsers(ctx context.Context, p ListParams) (pagination.Page[db.User], error) {
	cfg := s.appCtx.Config.Discovery

	requester, err := s.userRepo.GetByID(ctx, p.RequesterID)
	if err != nil {
		if repository.IsNotFound(err) {
			return pagination.Page[db.User]{}, ErrUserNotFound
		}
		return pagination.Page[db.User]{}, apperr.Map(err)
	}

	gender := p.Gender
	switch gender {
	case db.GenderMale, db.GenderFemale:
	case "":
		if cfg.GenderPolicy != PolicyAny {
			gender = oppositeGender(requester.Gender)
		}
	default:
		return pagination.Page[db.User]{}, ErrInvalidGender
	}

	minAge, maxAge := p.MinAge, p.MaxAge
	if minAge <= 0 {
		minAge = cfg.MinAge
	}
	if maxAge <= 0 {
		maxAge = cfg.MaxAge
	}
	if minAge > maxAge {
		return pagination.Page[db.User]{}, ErrInvalidAge
	}

	sortBy, err := parseOrderBy(p.OrderBy)
	if err != nil {
		return pagination.Page[db.User]{}, err
	}

	minDOB, maxDOB := BirthDateRange(s.appCtx.Now(), minAge, maxAge)
	filter := repository.UserFilter{
		ExcludeID: requester.ID,
		Gender:    gender,
		MinDOB:    minDOB,
		MaxDOB:    maxDOB,
		SortBy:    sortBy,
	}
	if p.Likers {
		filter.LikersOf = requester.ID
	}
	if p.Likees {
		filter.LikeesOf = requester.ID
	}

	params := pagination.Normalize(p.PageNumber, p.PageSize, cfg.DefaultPageSize, cfg.MaxPageSize)
	items, total, err := s.userRepo.List(ctx, filter, params)
	if err != nil {
		return pagination.Page[db.User]{}, apperr.Map(err)
	}

	s.appCtx.Logger.Debug("ListUsers result",
		"requester", requester.ID, "gender", gender, "total", total, "page", params.PageNumber)

	return pagination.NewPage(items, total, params), nil
}

// BirthDateRange converts an inclusive age range into an inclusive date-of-birth range.
func BirthDateRange(now time.Time, minAge, maxAge int) (minDOB, maxDOB time.Time) {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	// oldest allowed: turns maxAge+1 tomorrow
	minDOB = today.AddDate(-(maxAge + 1), 0, 1)
	maxDOB = today.AddDate(-minAge, 0, 0)
	return minDOB, maxDOB
}

// GetUser returns a user's full detail, read through the Redis cache.
// Concurrent misses for the same id share one database read.
func (s *Service) GetUser(ctx context.Context, id uint64) (*db.User, error) {
	rc := s.appCtx.RedisCache
	key := ""
	if rc != nil {
		key = rc.KeyForUser(id)
		var cached db.User
		if hit, err := rc.GetJSON(ctx, key, &cached); err != nil {
			s.appCtx.Logger.Warn("user cache read failed", "user_id", id, "err", err)
		} else if hit {
			return &cached, nil
		}
	}

	// The read is shared with other callers, so one caller's cancellation must not fail it for all.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(strconv.FormatUint(id, 10), func() (any, error) {
		u, err := s.userRepo.GetByID(shared, id)
		if err != nil {
			return nil, err
		}
		if rc != nil {
			if err := rc.SetJSON(shared, key, u, DetailTTL); err != nil {
				s.appCtx.Logger.Warn("user cache write failed", "user_id", id, "err", err)
			}
		}
		return u, nil
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Map(err)
	}
	u := *v.(*db.User)
	u.PasswordHash = ""
	return &u, nil
}

// UpdateUser overwrites the requester's editable profile fields.
//
// Behavior:
//   - requesterID must equal id.
//   - A write that does not commit is a PersistenceFailure.
func (s *Service) UpdateUser(ctx context.Context, requesterID, id uint64, p repository.ProfileUpdate) error {
	if requesterID != id {
		return ErrNotYourself
	}
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return apperr.Map(err)
	}

	if err := s.userRepo.UpdateProfile(ctx, id, p); err != nil {
		s.appCtx.Logger.Error("update user failed", "user_id", id, "err", err)
		return apperr.Persistence("failed to update user", err)
	}

	s.invalidate(ctx, id)
	return nil
}

// TouchActivity records that id made an authenticated request.
func (s *Service) TouchActivity(ctx context.Context, id uint64) error {
	return s.userRepo.TouchLastActive(ctx, id, s.appCtx.Now())
}

// Matches lists the users in a mutual like with the requester.
func (s *Service) Matches(ctx context.Context, requesterID, id uint64) ([]db.User, error) {
	if requesterID != id {
		return nil, ErrNotYourself
	}
	users, err := s.likeRepo.ListMatches(ctx, id)
	if err != nil {
		return nil, apperr.Map(err)
	}
	return users, nil
}

func (s *Service) invalidate(ctx context.Context, id uint64) {
	if s.appCtx.RedisCache == nil {
		return
	}
	if err := s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForUser(id)); err != nil {
		s.appCtx.Logger.Warn("user cache invalidation failed", "user_id", id, "err", err)
	}
}

func parseOrderBy(v string) (repository.SortField, error) {
	switch v {
	case "", "lastActive":
		return repository.SortByLastActive, nil
	case "createdAt", "created":
		return repository.SortByCreatedAt, nil
	}
	return "", ErrInvalidSort
}

func oppositeGender(g string) string {
	if g == db.GenderMale {
		return db.GenderFemale
	}
	return db.GenderMale
}
