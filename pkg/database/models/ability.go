package models

import (
	"time"
)

// Skill represents a skill, optionally attached to a hunter
type Skill struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"column:nom;uniqueIndex;size:100;not null" json:"nom"`
	Type         string    `gorm:"column:type;index;not null" json:"type"`
	HunterID     *int64    `gorm:"column:hunter_id;index" json:"hunter_id"`
	Description  string    `gorm:"type:text" json:"description"`
	Image        *string   `gorm:"column:image" json:"image"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastModified time.Time `gorm:"column:last_modified;autoUpdateTime" json:"last_modified"`

	// Relationships
	Hunter *Hunter `gorm:"foreignKey:HunterID;constraint:OnDelete:RESTRICT" json:"-"`
}

// Shadow represents a shadow soldier
type Shadow struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"column:nom;uniqueIndex;size:100;not null" json:"nom"`
	Rarity       string    `gorm:"column:rarete;index;not null" json:"rarete"`
	Description  string    `gorm:"type:text" json:"description"`
	Image        *string   `gorm:"column:image" json:"image"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastModified time.Time `gorm:"column:last_modified;autoUpdateTime" json:"last_modified"`
}

// TableName returns the table name for Skill
func (Skill) TableName() string {
	return "competences"
}

// TableName returns the table name for Shadow
func (Shadow) TableName() string {
	return "ombres"
}
