// Package account registers users and exchanges credentials for bearer tokens.
package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oggyb/acquaintance/internal/app"
	"github.com/oggyb/acquaintance/internal/auth"
	"github.com/oggyb/acquaintance/internal/db"
	apperr "github.com/oggyb/acquaintance/internal/errors"
	"github.com/oggyb/acquaintance/internal/repository"
)

var (
	// ErrUsernameTaken is returned for any case variant of an existing username.
	ErrUsernameTaken = apperr.Validation("username already exists")
	// ErrAccessDenied covers both an unknown username and a wrong password.
	ErrAccessDenied = apperr.Validation("invalid username or password")
	// ErrFutureBirthDate rejects a date of birth after today (UTC).
	ErrFutureBirthDate = apperr.Validation("dateOfBirth must not be in the future")
)

// RegisterInput is a new account with its initial profile.
type RegisterInput struct {
	Username    string
	Password    string
	Gender      string
	KnownAs     string
	DateOfBirth time.Time
	City        string
	Country     string
}

// LoginResult is an issued token with the user it was issued for.
type LoginResult struct {
	Token auth.Token
	User  *db.User
}

// Service contains the credential logic on top of the user repository.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository

	dummyOnce sync.Once
	dummyHash string
}

// NewAccountService creates the service with dependencies from AppContext.
func NewAccountService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
	}
}

// Register creates an identity.
//
// Behavior:
//   - Username is lowercased before the uniqueness check and the insert.
//   - The unique index backs the pre-check, so a racing registration still fails with ErrUsernameTaken.
//   - createdAt and lastActive both start at now.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*db.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" {
		return nil, apperr.Validation("username is required")
	}
	if in.Gender != db.GenderMale && in.Gender != db.GenderFemale {
		return nil, apperr.Validation("gender must be male or female")
	}

	now := s.appCtx.Now()
	if dateOf(in.DateOfBirth).After(dateOf(now)) {
		return nil, ErrFutureBirthDate
	}

	exists, err := s.userRepo.Exists(ctx, username)
	if err != nil {
		return nil, apperr.Map(err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := s.appCtx.Hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to register user", err)
	}

	user := &db.User{
		Username:     username,
		PasswordHash: hash,
		Gender:       in.Gender,
		KnownAs:      in.KnownAs,
		DateOfBirth:  in.DateOfBirth.UTC(),
		City:         in.City,
		Country:      in.Country,
		CreatedAt:    now,
		LastActive:   now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if apperr.IsDuplicateKey(err) {
			return nil, ErrUsernameTaken
		}
		s.appCtx.Logger.Error("create user failed", "username", username, "err", err)
		return nil, apperr.Persistence("failed to register user", err)
	}

	s.appCtx.Logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and issues a token.
// Unknown users still pay for one hash comparison so both failure paths look alike.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, apperr.Map(err)
		}
		s.appCtx.Hasher.Verify(password, s.fallbackHash())
		return nil, ErrAccessDenied
	}
	if !s.appCtx.Hasher.Verify(password, user.PasswordHash) {
		return nil, ErrAccessDenied
	}

	tok, err := s.appCtx.Issuer.Issue(auth.Subject{ID: user.ID, Username: user.Username})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to issue token", err)
	}

	now := s.appCtx.Now()
	if err := s.userRepo.TouchLastActive(ctx, user.ID, now); err != nil {
		s.appCtx.Logger.Warn("touch last active failed", "user_id", user.ID, "err", err)
	} else {
		user.LastActive = now
	}

	return &LoginResult{Token: tok, User: user}, nil
}

func (s *Service) fallbackHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.appCtx.Hasher.Hash("acquaintance-unknown-user")
	})
	return s.dummyHash
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
