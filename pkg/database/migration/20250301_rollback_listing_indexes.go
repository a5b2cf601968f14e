package migration

import (
	"log"

	"gorm.io/gorm"
)

// RollbackListingIndexes removes the indexes created by AddListingIndexes
func RollbackListingIndexes(db *gorm.DB) error {
	log.Println("Running rollback: Remove listing indexes...")

	if err := db.Exec("DROP INDEX IF EXISTS idx_tier_list_order").Error; err != nil {
		log.Printf("Warning: Failed to drop idx_tier_list_order: %v", err)
	}

	if err := db.Exec("DROP INDEX IF EXISTS idx_promo_codes_active_expiry").Error; err != nil {
		log.Printf("Warning: Failed to drop idx_promo_codes_active_expiry: %v", err)
	}

	log.Println("Listing indexes rollback completed successfully!")
	return nil
}
