package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/perspective-backend/internal/domain"
)

// AutoMigrateAll creates tables and the unique period indexes that back rollup
// idempotency and the one-mood-per-day rule.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.AllModels()...)
}
