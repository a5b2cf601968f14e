package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"gorm.io/gorm"
)

// LogRepository persists logging entries into app_logs
type LogRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ logging.LogRepository = (*LogRepository)(nil)

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db, now: time.Now}
}

// SaveLog converts a logging entry to an AppLog row
func (r *LogRepository) SaveLog(entry logging.LogEntry) error {
	return r.db.Create(&models.AppLog{
		ID:        uuid.New(),
		Component: entry.Component,
		Level:     entry.Level,
		Message:   entry.Message,
		Error:     entry.Error,
		Fields:    entry.Fields,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		AdminID:   entry.AdminID,
		Timestamp: r.now(),
	}).Error
}

// Recent returns the latest persisted entries, newest first
func (r *LogRepository) Recent(limit int) ([]models.AppLog, error) {
	var logs []models.AppLog
	if err := r.db.Order("timestamp DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
