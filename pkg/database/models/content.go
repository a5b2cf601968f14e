package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromoCode represents a redeemable in-game code and its rewards
type PromoCode struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string     `gorm:"column:code;uniqueIndex;size:50;not null" json:"code"`
	Description string     `gorm:"type:text" json:"description"`
	ExpiresAt   *time.Time `gorm:"column:expires_at;index" json:"expires_at"`
	Active      bool       `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Rewards []PromoReward `gorm:"foreignKey:PromoCodeID;constraint:OnDelete:CASCADE" json:"rewards"`
}

// PromoReward is one reward granted by a promo code
type PromoReward struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	PromoCodeID uuid.UUID `gorm:"type:uuid;index;not null" json:"promo_code_id"`
	Name        string    `gorm:"column:nom;not null" json:"nom"`
	Quantity    int       `gorm:"column:quantite;not null" json:"quantite"`
}

// YoutubeLink references a video guide shown on the guides page
type YoutubeLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"column:titre;uniqueIndex;size:150;not null" json:"titre"`
	URL       string    `gorm:"column:url;not null" json:"url"`
	Category  string    `gorm:"column:categorie;index;not null" json:"categorie"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TierListEntry places one entity at a position inside a tier of a grouping
type TierListEntry struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Grouping string `gorm:"column:list_key;uniqueIndex:idx_tier_list_key_entity;size:50;not null" json:"grouping"`
	EntityID int64  `gorm:"uniqueIndex:idx_tier_list_key_entity;not null" json:"entity_id"`
	Tier     string `gorm:"size:5;not null" json:"tier"`
	Position int    `gorm:"not null" json:"position"`
}

// BeforeCreate assigns a UUID when the caller did not
func (p *PromoCode) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeCreate assigns a UUID when the caller did not
func (y *YoutubeLink) BeforeCreate(tx *gorm.DB) error {
	if y.ID == uuid.Nil {
		y.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for PromoCode
func (PromoCode) TableName() string {
	return "promo_codes"
}

// TableName returns the table name for PromoReward
func (PromoReward) TableName() string {
	return "promo_rewards"
}

// TableName returns the table name for YoutubeLink
func (YoutubeLink) TableName() string {
	return "youtube_links"
}

// TableName returns the table name for TierListEntry
func (TierListEntry) TableName() string {
	return "tier_list"
}
