package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"line-monitor-backend/config"
	"line-monitor-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Info().Msg("running database migrations")
	if err := db.AutoMigrate(
		&model.Cause{},
		&model.Stop{},
		&model.MeterageEntry{},
		&model.SpeedSample{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	return db, nil
}

// EnsureReservedCause provisions the reserved non-considered cause that
// micro-stops are reassigned to. Classification fails with a
// configuration error while it is missing, so deployments usually seed
// it at startup.
func EnsureReservedCause(ctx context.Context, db *gorm.DB, code string) error {
	var count int64
	if err := db.WithContext(ctx).Model(&model.Cause{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check reserved cause %q: %w", code, err)
	}
	if count > 0 {
		return nil
	}

	log.Info().Str("code", code).Msg("seeding reserved non-considered cause")
	cause := model.Cause{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      "Non considéré",
		Category:  "Système",
		AffectTRS: false,
		IsActive:  true,
	}
	if err := db.WithContext(ctx).Create(&cause).Error; err != nil {
		return fmt.Errorf("failed to seed reserved cause %q: %w", code, err)
	}
	return nil
}
