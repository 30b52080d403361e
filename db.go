package main

import (
	"os"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"medicare-api/config"
	"medicare-api/models"
)

func openDB(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		// Migrate models individually so a failure on one doesn't block
		// the others.
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Warn("migration warning (users)", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Warn("migration warning (refresh_tokens)", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.Upload{}); err != nil {
			log.Warn("migration warning (uploads)", zap.Error(err))
		}
	}
	if err := os.MkdirAll(cfg.LicenseDir(), 0o755); err != nil {
		log.Warn("failed to create upload base dir", zap.String("dir", cfg.LicenseDir()), zap.Error(err))
	}
	return db, nil
}
