// Package apptest builds a fully wired AppContext for tests: in-memory SQLite,
// miniredis and a real token issuer.
package apptest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"

	"github.com/oggyb/acquaintance/internal/app"
	"github.com/oggyb/acquaintance/internal/auth"
	"github.com/oggyb/acquaintance/internal/cache"
	"github.com/oggyb/acquaintance/internal/config"
	"github.com/oggyb/acquaintance/internal/db"
	"github.com/oggyb/acquaintance/internal/logger"
)

// SigningKey is the HMAC key used by test issuers.
var SigningKey = strings.Repeat("k", 64)

// Env is a wired AppContext plus handles on the fakes behind it.
type Env struct {
	App   *app.AppContext
	Redis *miniredis.Miniredis
}

// New returns an Env whose database and Redis are private to t.
func New(t *testing.T) *Env {
	t.Helper()

	cfg := config.New()
	cfg.DB.Driver = "sqlite"
	cfg.DB.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.Token.SigningKey = SigningKey
	cfg.Discovery.GenderPolicy = "opposite"

	database, err := db.Open(sqlite.Open(cfg.DB.DSN), nil)
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		SigningKey: []byte(cfg.Token.SigningKey),
		TTL:        cfg.Token.TTL,
		Issuer:     cfg.Token.Issuer,
	})
	require.NoError(t, err)

	appCtx := app.New(cfg, database, rc, logger.Discard(), issuer, auth.NewBcryptHasher(bcrypt.MinCost))
	return &Env{App: appCtx, Redis: mr}
}

// CreateUser inserts a user directly, bypassing registration.
func (e *Env) CreateUser(t *testing.T, username, gender string, age int) *db.User {
	t.Helper()
	now := e.App.Now()
	u := &db.User{
		Username:     username,
		PasswordHash: "x",
		Gender:       gender,
		KnownAs:      username,
		DateOfBirth:  now.AddDate(-age, 0, -1).Truncate(24 * time.Hour),
		CreatedAt:    now,
		LastActive:   now,
	}
	require.NoError(t, e.App.DB.Create(u).Error)
	return u
}

// Token issues a bearer token for u.
func (e *Env) Token(t *testing.T, u *db.User) string {
	t.Helper()
	tok, err := e.App.Issuer.Issue(auth.Subject{ID: u.ID, Username: u.Username})
	require.NoError(t, err)
	return tok.Value
}
