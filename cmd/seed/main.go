package main

import (
	"os"

	"github.com/oggyb/acquaintance/internal/config"
	"github.com/oggyb/acquaintance/internal/db"
	"github.com/oggyb/acquaintance/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.InitFromConfig(cfg)
	log := logger.With("cmd", "seed")

	database, err := db.NewDB(cfg, log)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database, log); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	log.Info("seeding completed", "password", db.SeedPassword)
}
