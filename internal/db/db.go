package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/acquaintance/internal/config"
)

// NewDB opens the configured database and migrates the schema.
func NewDB(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.DSN)
	default:
		dialector = mysql.Open(cfg.DB.DSN)
	}

	level := gormlogger.Warn
	if cfg.Log.Level == "debug" {
		level = gormlogger.Info // log SQL queries
	}

	database, err := Open(dialector, &gorm.Config{
		Logger: gormlogger.New(
			slog.NewLogLogger(log.Handler(), slog.LevelDebug),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return database, nil
}

// Open connects with the given dialector, enables driver error translation
// (so unique violations surface as gorm.ErrDuplicatedKey) and migrates.
func Open(dialector gorm.Dialector, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{}
	}
	gcfg.TranslateError = true
	if gcfg.NowFunc == nil {
		gcfg.NowFunc = func() time.Time { return time.Now().UTC() }
	}

	database, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := Migrate(database); err != nil {
		return nil, err
	}
	return database, nil
}

// Migrate ensures the schema is in sync with the models.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(&User{}, &Like{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
