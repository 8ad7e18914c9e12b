package database

import (
	"errors"
	"time"

	"github.com/mikeveit1/MacroTrack-sub000/internal/docstore"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillFoodServings = "2025-03-01_backfill_food_servings"

// Food documents live at users/{uid}/days/{dateKey}/{slot}/{foodId}.
const foodDocumentSeparators = 5

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillFoodServings, apply: backfillFoodServings},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// backfillFoodServings adds "servings": 1 to food documents written before the
// multiplier was stored.
func backfillFoodServings(db *gorm.DB) error {
	return db.Model(&docstore.DocumentRecord{}).
		Where("path LIKE ?", "users/%/days/%").
		Where("length(path) - length(replace(path, '/', '')) = ?", foodDocumentSeparators).
		Where("json_valid(value_json) AND json_type(value_json) = 'object'").
		Where("json_type(value_json, '$.servings') IS NULL").
		Update("value_json", gorm.Expr("json_set(value_json, '$.servings', 1)")).Error
}
