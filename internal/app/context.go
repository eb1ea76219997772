package app

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/acquaintance/internal/auth"
	"github.com/oggyb/acquaintance/internal/cache"
	"github.com/oggyb/acquaintance/internal/config"
)

// AppContext holds shared dependencies (DB, Redis, Logger, token issuer, etc.)
// RedisCache may be nil; services then skip caching and counters.
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Issuer     *auth.Issuer
	Hasher     auth.PasswordHasher
	Now        func() time.Time
}

// New creates a new AppContext
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, issuer *auth.Issuer, hasher auth.PasswordHasher) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Issuer:     issuer,
		Hasher:     hasher,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}
