package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vin-decoder-service/internal/auth"
)

// Connect opens the Postgres database and applies migrations.
func Connect(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := runMigrations(gdb); err != nil {
		return nil, err
	}

	log.Info().Int("migrations", len(migrationStatements)).Msg("database ready")
	return gdb, nil
}

type UserWriter interface {
	EnsureUser(ctx context.Context, username, passwordHash string) (bool, error)
}

// SeedUsers inserts the configured users that do not exist yet.
func SeedUsers(ctx context.Context, users UserWriter, table map[string]string, cost int, log zerolog.Logger) (int, error) {
	created := 0
	for name, password := range table {
		username := auth.NormalizeUsername(name)
		if username == "" {
			continue
		}
		hash, err := auth.HashPassword(password, cost)
		if err != nil {
			return created, err
		}
		ok, err := users.EnsureUser(ctx, username, hash)
		if err != nil {
			return created, fmt.Errorf("failed to seed user %s: %w", username, err)
		}
		if ok {
			created++
			log.Info().Str("username", username).Msg("seeded user")
		}
	}
	return created, nil
}
