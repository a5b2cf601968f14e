package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"gorm.io/gorm"
)

// PromoRewardRepository handles the rewards nested in promo codes
type PromoRewardRepository struct {
	db *gorm.DB
}

func NewPromoRewardRepository(db *gorm.DB) *PromoRewardRepository {
	return &PromoRewardRepository{db: db}
}

// GetByCodes returns the rewards of the given codes keyed by code id
func (r *PromoRewardRepository) GetByCodes(ctx context.Context, codeIDs []uuid.UUID) (map[uuid.UUID][]models.PromoReward, error) {
	byCode := make(map[uuid.UUID][]models.PromoReward, len(codeIDs))
	if len(codeIDs) == 0 {
		return byCode, nil
	}
	var rewards []models.PromoReward
	if err := r.db.WithContext(ctx).Where("promo_code_id IN ?", codeIDs).Order("id ASC").Find(&rewards).Error; err != nil {
		return nil, err
	}
	for _, reward := range rewards {
		byCode[reward.PromoCodeID] = append(byCode[reward.PromoCodeID], reward)
	}
	return byCode, nil
}

// ReplaceForCode deletes the code's rewards and inserts the given ones, in one transaction
func (r *PromoRewardRepository) ReplaceForCode(ctx context.Context, codeID uuid.UUID, rewards []models.PromoReward) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("promo_code_id = ?", codeID).Delete(&models.PromoReward{}).Error; err != nil {
			return err
		}
		if len(rewards) == 0 {
			return nil
		}
		for i := range rewards {
			rewards[i].ID = 0
			rewards[i].PromoCodeID = codeID
		}
		return tx.Create(&rewards).Error
	})
}

func (r *PromoRewardRepository) DeleteForCode(ctx context.Context, codeID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("promo_code_id = ?", codeID).Delete(&models.PromoReward{}).Error
}

// PromoCodeRepository holds the promo code queries that are not plain CRUD
type PromoCodeRepository struct {
	db *gorm.DB
}

func NewPromoCodeRepository(db *gorm.DB) *PromoCodeRepository {
	return &PromoCodeRepository{db: db}
}

// ListActive returns active codes that have not expired at now, soonest expiry first
func (r *PromoCodeRepository) ListActive(ctx context.Context, now time.Time) ([]models.PromoCode, error) {
	var codes []models.PromoCode
	if err := r.db.WithContext(ctx).
		Preload("Rewards").
		Where("active = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("expires_at IS NULL").
		Order("expires_at ASC").
		Order("code ASC").
		Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// DeactivateExpired flags every active code expired at now and returns how many changed
func (r *PromoCodeRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.PromoCode{}).
		Where("active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Update("active", false)
	return result.RowsAffected, result.Error
}
