package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/latoulicious/arise-companion/pkg/database"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/entity"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/latoulicious/arise-companion/pkg/validation"
)

// HunterBuilds is the part of the builds table the hunter workflow touches
type HunterBuilds interface {
	CreateEmpty(ctx context.Context, hunterID int64) (*models.Build, error)
	GetByHunterID(ctx context.Context, hunterID int64) (*models.Build, error)
	DeleteByHunterID(ctx context.Context, hunterID int64) error
	Restore(ctx context.Context, build *models.Build) error
}

type HunterPatch struct {
	Name        *string `json:"nom"`
	Element     *string `json:"element"`
	Rarity      *string `json:"rarete"`
	Class       *string `json:"classe"`
	Description *string `json:"description"`
}

func validateHunter(h *models.Hunter) error {
	h.Name = strings.TrimSpace(h.Name)
	return validation.First(
		validation.Name(h.Name, 2, 50),
		validation.OneOf("élément", h.Element, validation.Elements),
		validation.OneOf("rareté", h.Rarity, validation.Rarities),
		optionalOneOf("classe", h.Class, validation.HunterClasses),
		validation.MaxLen("description", h.Description, maxDescription),
	)
}

// NewHunters creates the hunter service. Every hunter owns one builds row:
// it is inserted right after the hunter and removed right before it.
func NewHunters(store entity.Store[models.Hunter, int64], builds HunterBuilds, images entity.ImageStore, logger logging.Logger) *entity.Service[models.Hunter, int64, HunterPatch] {
	return entity.NewService(entity.Spec[models.Hunter, int64, HunterPatch]{
		Kind:      "hunters",
		Plural:    "chasseurs",
		Bucket:    BucketHunters,
		ID:        func(h *models.Hunter) int64 { return h.ID },
		Name:      func(h *models.Hunter) string { return h.Name },
		CreatedAt: func(h *models.Hunter) time.Time { return h.CreatedAt },
		Image:     func(h *models.Hunter) *string { return h.Image },
		SetImage:  func(h *models.Hunter, url *string) { h.Image = url },
		Validate:  validateHunter,
		ValidatePatch: func(p *HunterPatch) error {
			return validation.First(
				checkName(p.Name, 2, 50),
				checkOneOf("élément", p.Element, validation.Elements),
				checkOneOf("rareté", p.Rarity, validation.Rarities),
				checkOptionalOneOf("classe", p.Class, validation.HunterClasses),
				checkMaxLen("description", p.Description, maxDescription),
			)
		},
		PatchName: func(p *HunterPatch) *string { return p.Name },
		Changes: func(p *HunterPatch) map[string]interface{} {
			changes := map[string]interface{}{}
			set(changes, "nom", p.Name)
			set(changes, "element", p.Element)
			set(changes, "rarete", p.Rarity)
			set(changes, "classe", p.Class)
			set(changes, "description", p.Description)
			return changes
		},
		AfterCreate: func(ctx context.Context, h *models.Hunter, saga *entity.Saga) error {
			if _, err := builds.CreateEmpty(ctx, h.ID); err != nil {
				return err
			}
			saga.Defer("delete builds row", func(ctx context.Context) error {
				return builds.DeleteByHunterID(ctx, h.ID)
			})
			return nil
		},
		BeforeDelete: func(ctx context.Context, h *models.Hunter, saga *entity.Saga) error {
			build, err := builds.GetByHunterID(ctx, h.ID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return nil
				}
				return err
			}
			if err := builds.DeleteByHunterID(ctx, h.ID); err != nil {
				return err
			}
			saga.Defer("restore builds row", func(ctx context.Context) error {
				return builds.Restore(ctx, build)
			})
			return nil
		},
	}, store, images, logger)
}
