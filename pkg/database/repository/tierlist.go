package repository

import (
	"context"

	"github.com/latoulicious/arise-companion/pkg/database/models"
	"gorm.io/gorm"
)

// TierListRepository handles database operations for TierListEntry model
type TierListRepository struct {
	db *gorm.DB
}

func NewTierListRepository(db *gorm.DB) *TierListRepository {
	return &TierListRepository{db: db}
}

// GetByGrouping returns the rows of one tier list in storage order
func (r *TierListRepository) GetByGrouping(ctx context.Context, grouping string) ([]models.TierListEntry, error) {
	var entries []models.TierListEntry
	if err := r.db.WithContext(ctx).
		Where("list_key = ?", grouping).
		Order("tier ASC").
		Order("position ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListGroupings returns the distinct tier list keys
func (r *TierListRepository) ListGroupings(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(&models.TierListEntry{}).
		Distinct("list_key").
		Order("list_key ASC").
		Pluck("list_key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Replace deletes every row of the grouping and inserts entries, in one transaction
func (r *TierListRepository) Replace(ctx context.Context, grouping string, entries []models.TierListEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_key = ?", grouping).Delete(&models.TierListEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}
