package catalog

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/entity"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/latoulicious/arise-companion/pkg/validation"
)

var promoCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// PromoRewards is the rewards table as seen by the promo code workflow
type PromoRewards interface {
	GetByCodes(ctx context.Context, codeIDs []uuid.UUID) (map[uuid.UUID][]models.PromoReward, error)
	ReplaceForCode(ctx context.Context, codeID uuid.UUID, rewards []models.PromoReward) error
	DeleteForCode(ctx context.Context, codeID uuid.UUID) error
}

// PromoCodePatch updates a promo code. Rewards, when provided, replace the
// existing list; ClearExpiry removes the expiry date.
type PromoCodePatch struct {
	Code        *string               `json:"code"`
	Description *string               `json:"description"`
	ExpiresAt   *time.Time            `json:"expires_at"`
	ClearExpiry bool                  `json:"clear_expiry"`
	Active      *bool                 `json:"active"`
	Rewards     *[]models.PromoReward `json:"rewards"`
}

func validateCode(code string) error {
	if err := validation.Name(code, 3, 50); err != nil {
		return err
	}
	if !promoCodePattern.MatchString(code) {
		return apperror.Validation("Le code ne peut contenir que des lettres, chiffres, tirets et underscores")
	}
	return nil
}

func validateRewards(rewards []models.PromoReward) error {
	for i := range rewards {
		rewards[i].Name = strings.TrimSpace(rewards[i].Name)
		if err := validation.First(
			validation.Required("récompense", rewards[i].Name),
			validation.MaxLen("récompense", rewards[i].Name, 100),
			validation.IntRange("quantité", rewards[i].Quantity, 1, 1000000),
		); err != nil {
			return err
		}
	}
	return nil
}

// NewPromoCodes creates the promo code service. Rewards are written after
// the code and removed with it.
func NewPromoCodes(store entity.Store[models.PromoCode, uuid.UUID], rewards PromoRewards, logger logging.Logger) *entity.Service[models.PromoCode, uuid.UUID, PromoCodePatch] {
	return entity.NewService(entity.Spec[models.PromoCode, uuid.UUID, PromoCodePatch]{
		Kind:      "promo_codes",
		Plural:    "codes promo",
		ID:        func(p *models.PromoCode) uuid.UUID { return p.ID },
		Name:      func(p *models.PromoCode) string { return p.Code },
		CreatedAt: func(p *models.PromoCode) time.Time { return p.CreatedAt },
		Validate: func(p *models.PromoCode) error {
			p.Code = strings.TrimSpace(p.Code)
			return validation.First(
				validateCode(p.Code),
				validation.MaxLen("description", p.Description, maxDescription),
				validateRewards(p.Rewards),
			)
		},
		ValidatePatch: func(p *PromoCodePatch) error {
			var code, rewardsErr error
			if p.Code != nil {
				*p.Code = strings.TrimSpace(*p.Code)
				code = validateCode(*p.Code)
			}
			if p.Rewards != nil {
				rewardsErr = validateRewards(*p.Rewards)
			}
			return validation.First(code, checkMaxLen("description", p.Description, maxDescription), rewardsErr)
		},
		PatchName: func(p *PromoCodePatch) *string { return p.Code },
		Changes: func(p *PromoCodePatch) map[string]interface{} {
			changes := map[string]interface{}{}
			set(changes, "code", p.Code)
			set(changes, "description", p.Description)
			set(changes, "active", p.Active)
			if p.ClearExpiry {
				changes["expires_at"] = nil
			} else {
				set(changes, "expires_at", p.ExpiresAt)
			}
			return changes
		},
		AfterCreate: func(ctx context.Context, p *models.PromoCode, saga *entity.Saga) error {
			if len(p.Rewards) == 0 {
				return nil
			}
			if err := rewards.ReplaceForCode(ctx, p.ID, p.Rewards); err != nil {
				return err
			}
			saga.Defer("delete rewards", func(ctx context.Context) error {
				return rewards.DeleteForCode(ctx, p.ID)
			})
			return nil
		},
		AfterUpdate: func(ctx context.Context, p *models.PromoCode, patch *PromoCodePatch, saga *entity.Saga) error {
			if patch.Rewards == nil {
				return nil
			}
			previous := append([]models.PromoReward(nil), p.Rewards...)
			if err := rewards.ReplaceForCode(ctx, p.ID, *patch.Rewards); err != nil {
				return err
			}
			saga.Defer("restore rewards", func(ctx context.Context) error {
				return rewards.ReplaceForCode(ctx, p.ID, previous)
			})
			byCode, err := rewards.GetByCodes(ctx, []uuid.UUID{p.ID})
			if err != nil {
				return err
			}
			p.Rewards = byCode[p.ID]
			return nil
		},
		BeforeDelete: func(ctx context.Context, p *models.PromoCode, saga *entity.Saga) error {
			if len(p.Rewards) == 0 {
				return nil
			}
			removed := append([]models.PromoReward(nil), p.Rewards...)
			if err := rewards.DeleteForCode(ctx, p.ID); err != nil {
				return err
			}
			saga.Defer("restore rewards", func(ctx context.Context) error {
				return rewards.ReplaceForCode(ctx, p.ID, removed)
			})
			return nil
		},
	}, store, nil, logger)
}

type YoutubeLinkPatch struct {
	Title    *string `json:"titre"`
	URL      *string `json:"url"`
	Category *string `json:"categorie"`
}

// NewYoutubeLinks creates the guide video service
func NewYoutubeLinks(store entity.Store[models.YoutubeLink, uuid.UUID], logger logging.Logger) *entity.Service[models.YoutubeLink, uuid.UUID, YoutubeLinkPatch] {
	return entity.NewService(entity.Spec[models.YoutubeLink, uuid.UUID, YoutubeLinkPatch]{
		Kind:      "youtube_links",
		Plural:    "vidéos",
		ID:        func(y *models.YoutubeLink) uuid.UUID { return y.ID },
		Name:      func(y *models.YoutubeLink) string { return y.Title },
		CreatedAt: func(y *models.YoutubeLink) time.Time { return y.CreatedAt },
		Validate: func(y *models.YoutubeLink) error {
			y.Title = strings.TrimSpace(y.Title)
			y.URL = strings.TrimSpace(y.URL)
			y.Category = strings.TrimSpace(y.Category)
			return validation.First(
				validation.Name(y.Title, 2, 150),
				validation.URL("url", y.URL, validation.YoutubeHosts),
				validation.Required("catégorie", y.Category),
				validation.MaxLen("catégorie", y.Category, 50),
			)
		},
		ValidatePatch: func(p *YoutubeLinkPatch) error {
			var urlErr, category error
			if p.URL != nil {
				*p.URL = strings.TrimSpace(*p.URL)
				urlErr = validation.URL("url", *p.URL, validation.YoutubeHosts)
			}
			if p.Category != nil {
				*p.Category = strings.TrimSpace(*p.Category)
				category = validation.First(
					validation.Required("catégorie", *p.Category),
					validation.MaxLen("catégorie", *p.Category, 50),
				)
			}
			return validation.First(checkName(p.Title, 2, 150), urlErr, category)
		},
		PatchName: func(p *YoutubeLinkPatch) *string { return p.Title },
		Changes: func(p *YoutubeLinkPatch) map[string]interface{} {
			changes := map[string]interface{}{}
			set(changes, "titre", p.Title)
			set(changes, "url", p.URL)
			set(changes, "categorie", p.Category)
			return changes
		},
	}, store, nil, logger)
}
