package models

import (
	"time"
)

// Weapon represents a weapon usable by hunters or Sung Jinwoo
type Weapon struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"column:nom;uniqueIndex;size:100;not null" json:"nom"`
	Element      string    `gorm:"index" json:"element"`
	Rarity       string    `gorm:"column:rarete;index;not null" json:"rarete"`
	Attack       int       `gorm:"column:attaque" json:"attaque"`
	Description  string    `gorm:"type:text" json:"description"`
	Image        *string   `gorm:"column:image" json:"image"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastModified time.Time `gorm:"column:last_modified;autoUpdateTime" json:"last_modified"`
}

// Artifact represents an equipment piece belonging to an optional set
type Artifact struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"column:nom;uniqueIndex;size:100;not null" json:"nom"`
	Category     string    `gorm:"column:categorie;index;not null" json:"categorie"`
	SetBonusID   *int64    `gorm:"column:set_bonus_id;index" json:"set_bonus_id"`
	Description  string    `gorm:"type:text" json:"description"`
	Image        *string   `gorm:"column:image" json:"image"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastModified time.Time `gorm:"column:last_modified;autoUpdateTime" json:"last_modified"`

	// Relationships
	SetBonus *SetBonus `gorm:"foreignKey:SetBonusID;constraint:OnDelete:RESTRICT" json:"-"`
}

// Core represents a core equipped in one of three slots
type Core struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"column:nom;uniqueIndex;size:100;not null" json:"nom"`
	Slot         int       `gorm:"column:emplacement;index;not null" json:"emplacement"`
	Description  string    `gorm:"type:text" json:"description"`
	Image        *string   `gorm:"column:image" json:"image"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastModified time.Time `gorm:"column:last_modified;autoUpdateTime" json:"last_modified"`
}

// SetBonus describes the bonus granted by wearing several artifacts of a set
type SetBonus struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"column:nom;uniqueIndex;size:100;not null" json:"nom"`
	Pieces       int       `gorm:"column:pieces;not null" json:"pieces"`
	Effect       string    `gorm:"column:effet;type:text" json:"effet"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastModified time.Time `gorm:"column:last_modified;autoUpdateTime" json:"last_modified"`
}

// TableName returns the table name for Weapon
func (Weapon) TableName() string {
	return "armes"
}

// TableName returns the table name for Artifact
func (Artifact) TableName() string {
	return "artefacts"
}

// TableName returns the table name for Core
func (Core) TableName() string {
	return "noyaux"
}

// TableName returns the table name for SetBonus
func (SetBonus) TableName() string {
	return "set_bonus"
}
