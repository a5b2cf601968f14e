package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminUser is an account allowed to use the admin routes
type AdminUser struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// AppLog represents a persisted log entry
type AppLog struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	Component string                 `gorm:"index;not null" json:"component"`
	Level     string                 `gorm:"index;not null" json:"level"`
	Message   string                 `gorm:"type:text;not null" json:"message"`
	Error     string                 `gorm:"type:text" json:"error"`
	Fields    map[string]interface{} `gorm:"type:text;serializer:json" json:"fields"`
	Entity    string                 `gorm:"index" json:"entity"`
	EntityID  string                 `gorm:"index" json:"entity_id"`
	AdminID   string                 `gorm:"index" json:"admin_id"`
	Timestamp time.Time              `gorm:"index;not null" json:"timestamp"`
}

// BeforeCreate assigns a UUID when the caller did not
func (a *AdminUser) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for AdminUser
func (AdminUser) TableName() string {
	return "admin_users"
}

// TableName returns the table name for AppLog
func (AppLog) TableName() string {
	return "app_logs"
}
