package repository

import (
	"context"

	"github.com/latoulicious/arise-companion/pkg/database"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"gorm.io/gorm"
)

// BuildRepository handles database operations for Build model
type BuildRepository struct {
	db *gorm.DB
}

func NewBuildRepository(db *gorm.DB) *BuildRepository {
	return &BuildRepository{db: db}
}

// CreateEmpty inserts the empty build row of a freshly created hunter
func (r *BuildRepository) CreateEmpty(ctx context.Context, hunterID int64) (*models.Build, error) {
	build := &models.Build{HunterID: hunterID, Payload: "{}", Version: 1}
	if err := r.db.WithContext(ctx).Omit("Hunter").Create(build).Error; err != nil {
		return nil, err
	}
	return build, nil
}

func (r *BuildRepository) GetByHunterID(ctx context.Context, hunterID int64) (*models.Build, error) {
	var build models.Build
	if err := r.db.WithContext(ctx).First(&build, "hunter_id = ?", hunterID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &build, nil
}

func (r *BuildRepository) GetAll(ctx context.Context) ([]models.Build, error) {
	var builds []models.Build
	if err := r.db.WithContext(ctx).Order("hunter_id ASC").Find(&builds).Error; err != nil {
		return nil, err
	}
	return builds, nil
}

// SaveVersioned replaces the payload only if the stored version equals
// expectedVersion, bumping the version. It reports whether a row was updated.
func (r *BuildRepository) SaveVersioned(ctx context.Context, hunterID int64, payload string, expectedVersion int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Build{}).
		Where("hunter_id = ? AND version = ?", hunterID, expectedVersion).
		Updates(map[string]interface{}{
			"payload": payload,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Restore re-inserts a previously deleted build row as it was
func (r *BuildRepository) Restore(ctx context.Context, build *models.Build) error {
	return r.db.WithContext(ctx).Omit("Hunter").Create(build).Error
}

func (r *BuildRepository) DeleteByHunterID(ctx context.Context, hunterID int64) error {
	return r.db.WithContext(ctx).Where("hunter_id = ?", hunterID).Delete(&models.Build{}).Error
}
