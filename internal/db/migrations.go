package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS users (
		id              BIGSERIAL PRIMARY KEY,
		username        TEXT NOT NULL,
		password_hash   TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_username ON users(username);`,
	`CREATE TABLE IF NOT EXISTS lookup_audit (
		id              UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		username        TEXT NOT NULL,
		vin             TEXT NOT NULL,
		outcome         TEXT NOT NULL,
		error_kind      TEXT,
		duration_ms     BIGINT NOT NULL DEFAULT 0,
		details         JSONB,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_lookup_audit_username ON lookup_audit(username);`,
	`CREATE INDEX IF NOT EXISTS idx_lookup_audit_created_at ON lookup_audit(created_at);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
