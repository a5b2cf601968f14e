package models

import (
	"time"
)

// Hunter represents a playable hunter
type Hunter struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"column:nom;uniqueIndex;size:50;not null" json:"nom"`
	Element      string    `gorm:"index;not null" json:"element"`
	Rarity       string    `gorm:"column:rarete;index;not null" json:"rarete"`
	Class        string    `gorm:"column:classe;index" json:"classe"`
	Description  string    `gorm:"type:text" json:"description"`
	Image        *string   `gorm:"column:image" json:"image"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastModified time.Time `gorm:"column:last_modified;autoUpdateTime" json:"last_modified"`
}

// Build holds the recommended build of one hunter. Every hunter owns exactly
// one build row, created empty alongside the hunter.
type Build struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	HunterID  int64     `gorm:"uniqueIndex;not null" json:"hunter_id"`
	Payload   string    `gorm:"type:text;not null;default:'{}'" json:"payload"`
	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Hunter *Hunter `gorm:"foreignKey:HunterID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName returns the table name for Hunter
func (Hunter) TableName() string {
	return "hunters"
}

// TableName returns the table name for Build
func (Build) TableName() string {
	return "builds"
}
