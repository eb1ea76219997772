package api

import (
	"time"

	"github.com/oggyb/acquaintance/internal/db"
	"github.com/oggyb/acquaintance/internal/repository"
)

// DateLayout is the wire format of dateOfBirth.
const DateLayout = "2006-01-02"

type RegisterRequest struct {
	Username    string `json:"username" binding:"required,username"`
	Password    string `json:"password" binding:"required,min=4,max=72"`
	Gender      string `json:"gender" binding:"required,gender"`
	KnownAs     string `json:"knownAs" binding:"max=64"`
	DateOfBirth string `json:"dateOfBirth" binding:"required,datetime=2006-01-02"`
	City        string `json:"city" binding:"max=64"`
	Country     string `json:"country" binding:"max=64"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	Introduction string `json:"introduction" binding:"max=2000"`
	LookingFor   string `json:"lookingFor" binding:"max=2000"`
	Interests    string `json:"interests" binding:"max=2000"`
	City         string `json:"city" binding:"max=64"`
	Country      string `json:"country" binding:"max=64"`
}

func (r UpdateUserRequest) toProfile() repository.ProfileUpdate {
	return repository.ProfileUpdate{
		Introduction: r.Introduction,
		LookingFor:   r.LookingFor,
		Interests:    r.Interests,
		City:         r.City,
		Country:      r.Country,
	}
}

// ListUsersQuery binds the discovery query string. sortOrder and orderBy are synonyms.
type ListUsersQuery struct {
	Gender     string `form:"gender" binding:"omitempty,gender"`
	MinAge     int    `form:"minAge" binding:"omitempty,min=0,max=150"`
	MaxAge     int    `form:"maxAge" binding:"omitempty,min=0,max=150"`
	PageNumber int    `form:"pageNumber" binding:"omitempty,min=0,max=1000000000"`
	PageSize   int    `form:"pageSize" binding:"omitempty,min=0"`
	SortOrder  string `form:"sortOrder"`
	OrderBy    string `form:"orderBy"`
	Likers     bool   `form:"likers"`
	Likees     bool   `form:"likees"`
}

type UserURI struct {
	ID uint64 `uri:"id" binding:"required,min=1"`
}

type LikeURI struct {
	ID          uint64 `uri:"id" binding:"required,min=1"`
	RecipientID uint64 `uri:"recipientId" binding:"required,min=1"`
}

// UserSummary is a discovery list item.
type UserSummary struct {
	ID         uint64    `json:"id"`
	Username   string    `json:"username"`
	KnownAs    string    `json:"knownAs"`
	Gender     string    `json:"gender"`
	Age        int       `json:"age"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"lastActive"`
}

// UserDetail is the full profile.
type UserDetail struct {
	UserSummary
	DateOfBirth  string `json:"dateOfBirth"`
	Introduction string `json:"introduction"`
	LookingFor   string `json:"lookingFor"`
	Interests    string `json:"interests"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserSummary `json:"user"`
}

type LikeResponse struct {
	Liked   bool `json:"liked"`
	IsMatch bool `json:"isMatch"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func toSummary(u db.User, now time.Time) UserSummary {
	return UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		KnownAs:    u.KnownAs,
		Gender:     u.Gender,
		Age:        u.Age(now),
		City:       u.City,
		Country:    u.Country,
		Created:    u.CreatedAt,
		LastActive: u.LastActive,
	}
}

func toDetail(u db.User, now time.Time) UserDetail {
	return UserDetail{
		UserSummary:  toSummary(u, now),
		DateOfBirth:  u.DateOfBirth.Format(DateLayout),
		Introduction: u.Introduction,
		LookingFor:   u.LookingFor,
		Interests:    u.Interests,
	}
}

func toSummaries(us []db.User, now time.Time) []UserSummary {
	out := make([]UserSummary, 0, len(us))
	for _, u := range us {
		out = append(out, toSummary(u, now))
	}
	return out
}
