package migration

import (
	"fmt"
	"log"

	"github.com/latoulicious/arise-companion/pkg/database/models"
	"gorm.io/gorm"
)

// Models lists every table managed by the service, parents before children
func Models() []interface{} {
	return []interface{}{
		&models.Hunter{},
		&models.Build{},
		&models.Weapon{},
		&models.SetBonus{},
		&models.Artifact{},
		&models.Core{},
		&models.Skill{},
		&models.Shadow{},
		&models.PromoCode{},
		&models.PromoReward{},
		&models.YoutubeLink{},
		&models.TierListEntry{},
		&models.AdminUser{},
		&models.AppLog{},
	}
}

// RunMigration creates or updates every table, then applies the hand-written migrations
func RunMigration(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := AddListingIndexes(db); err != nil {
		return fmt.Errorf("failed to add listing indexes: %w", err)
	}

	log.Println("Migrations completed successfully!")
	return nil
}

// Reset drops every managed table, children first
func Reset(db *gorm.DB) error {
	log.Println("Dropping all managed tables...")

	all := Models()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", all[i], err)
		}
	}

	log.Println("Database reset successfully")
	return nil
}
