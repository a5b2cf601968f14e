package migration

import (
	"log"

	"gorm.io/gorm"
)

// AddListingIndexes adds the composite indexes used by the public listing routes:
// tier list rendering order and the active promo code lookup
func AddListingIndexes(db *gorm.DB) error {
	log.Println("Running migration: Add listing indexes...")

	// Tier list pages render rows grouped by tier then position
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_tier_list_order ON tier_list(list_key, tier, position)").Error; err != nil {
		return err
	}

	// Public promo code page only reads active codes ordered by expiry
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_promo_codes_active_expiry ON promo_codes(expires_at) WHERE active").Error; err != nil {
		return err
	}

	log.Println("Listing indexes migration completed successfully!")
	return nil
}
