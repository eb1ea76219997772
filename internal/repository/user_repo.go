package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/acquaintance/internal/db"
	apperr "github.com/oggyb/acquaintance/internal/errors"
	"github.com/oggyb/acquaintance/internal/utils/pagination"
)

// SortField selects the descending order of a user listing.
type SortField string

const (
	SortByLastActive SortField = "lastActive"
	SortByCreatedAt  SortField = "createdAt"
)

// UserFilter is the conjunctive filter applied by List.
// Zero values disable a filter, except ExcludeID which is always applied when set.
type UserFilter struct {
	ExcludeID uint64
	Gender    string
	// Date-of-birth window, inclusive on both ends.
	MinDOB time.Time
	MaxDOB time.Time
	// LikersOf restricts to users who liked this user id.
	LikersOf uint64
	// LikeesOf restricts to users this user id liked.
	LikeesOf uint64
	SortBy   SortField
}

// ProfileUpdate holds the user-editable profile fields.
type ProfileUpdate struct {
	Introduction string
	LookingFor   string
	Interests    string
	City         string
	Country      string
}

// UserRepository is the credential and profile store.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Exists reports whether username is taken, compared case-insensitively.
func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("username = ?", normalizeUsername(username)).
		Count(&count).Error
	return count > 0, err
}

// Create inserts u with its username lowercased. A concurrent registration of the
// same name loses on the unique index and gets ErrDuplicateKey.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	u.Username = normalizeUsername(u.Username)
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if apperr.IsDuplicateKey(err) {
			return fmt.Errorf("%w: username %q", apperr.ErrDuplicateKey, u.Username)
		}
		return err
	}
	return nil
}

// GetByID returns gorm.ErrRecordNotFound when no such user exists.
func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername looks the user up case-insensitively.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).
		Where("username = ?", normalizeUsername(username)).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile overwrites the editable fields of user id.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint64, p ProfileUpdate) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"introduction": p.Introduction,
			"looking_for":  p.LookingFor,
			"interests":    p.Interests,
			"city":         p.City,
			"country":      p.Country,
		}).Error
}

// TouchLastActive records activity without bumping any other column.
func (r *UserRepository) TouchLastActive(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		UpdateColumn("last_active", at).Error
}

// List returns one page of users matching f plus the count over the whole filtered set.
//
// Behavior:
//   - Ordered by the requested field DESC, then id DESC for a stable order.
//   - A page past the end yields no rows but the full total.
func (r *UserRepository) List(ctx context.Context, f UserFilter, p pagination.Params) ([]db.User, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := []db.User{}
	if p.BeyondEnd(total) {
		return users, total, nil
	}

	orderCol := "users.last_active"
	if f.SortBy == SortByCreatedAt {
		orderCol = "users.created_at"
	}

	err := r.filtered(ctx, f).
		Order(orderCol + " DESC").
		Order("users.id DESC").
		Offset(p.Offset()).
		Limit(p.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) filtered(ctx context.Context, f UserFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&db.User{})

	if f.ExcludeID != 0 {
		q = q.Where("users.id <> ?", f.ExcludeID)
	}
	if f.Gender != "" {
		q = q.Where("users.gender = ?", f.Gender)
	}
	if !f.MinDOB.IsZero() {
		q = q.Where("users.date_of_birth >= ?", f.MinDOB)
	}
	if !f.MaxDOB.IsZero() {
		q = q.Where("users.date_of_birth <= ?", f.MaxDOB)
	}
	if f.LikersOf != 0 {
		q = q.Where("EXISTS (SELECT 1 FROM likes l WHERE l.liker_id = users.id AND l.likee_id = ?)", f.LikersOf)
	}
	if f.LikeesOf != 0 {
		q = q.Where("EXISTS (SELECT 1 FROM likes l WHERE l.likee_id = users.id AND l.liker_id = ?)", f.LikeesOf)
	}
	return q
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
