package catalog

import (
	"strings"
	"time"

	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/entity"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/latoulicious/arise-companion/pkg/validation"
)

type WeaponPatch struct {
	Name        *string `json:"nom"`
	Element     *string `json:"element"`
	Rarity      *string `json:"rarete"`
	Attack      *int    `json:"attaque"`
	Description *string `json:"description"`
}

func checkAttack(v *int) error {
	if v == nil {
		return nil
	}
	return validation.IntRange("attaque", *v, 0, 100000)
}

func NewWeapons(store entity.Store[models.Weapon, int64], images entity.ImageStore, logger logging.Logger) *entity.Service[models.Weapon, int64, WeaponPatch] {
	return entity.NewService(entity.Spec[models.Weapon, int64, WeaponPatch]{
		Kind:      "armes",
		Plural:    "armes",
		Bucket:    BucketWeapons,
		ID:        func(w *models.Weapon) int64 { return w.ID },
		Name:      func(w *models.Weapon) string { return w.Name },
		CreatedAt: func(w *models.Weapon) time.Time { return w.CreatedAt },
		Image:     func(w *models.Weapon) *string { return w.Image },
		SetImage:  func(w *models.Weapon, url *string) { w.Image = url },
		Validate: func(w *models.Weapon) error {
			w.Name = strings.TrimSpace(w.Name)
			return validation.First(
				validation.Name(w.Name, 2, 100),
				validation.OneOf("rareté", w.Rarity, validation.Rarities),
				optionalOneOf("élément", w.Element, validation.Elements),
				validation.IntRange("attaque", w.Attack, 0, 100000),
				validation.MaxLen("description", w.Description, maxDescription),
			)
		},
		ValidatePatch: func(p *WeaponPatch) error {
			return validation.First(
				checkName(p.Name, 2, 100),
				checkOneOf("rareté", p.Rarity, validation.Rarities),
				checkOptionalOneOf("élément", p.Element, validation.Elements),
				checkAttack(p.Attack),
				checkMaxLen("description", p.Description, maxDescription),
			)
		},
		PatchName: func(p *WeaponPatch) *string { return p.Name },
		Changes: func(p *WeaponPatch) map[string]interface{} {
			changes := map[string]interface{}{}
			set(changes, "nom", p.Name)
			set(changes, "element", p.Element)
			set(changes, "rarete", p.Rarity)
			set(changes, "attaque", p.Attack)
			set(changes, "description", p.Description)
			return changes
		},
	}, store, images, logger)
}

// ArtifactPatch updates an artifact; a SetBonusID of 0 detaches it from its set
type ArtifactPatch struct {
	Name        *string `json:"nom"`
	Category    *string `json:"categorie"`
	SetBonusID  *int64  `json:"set_bonus_id"`
	Description *string `json:"description"`
}

func NewArtifacts(store entity.Store[models.Artifact, int64], images entity.ImageStore, logger logging.Logger) *entity.Service[models.Artifact, int64, ArtifactPatch] {
	return entity.NewService(entity.Spec[models.Artifact, int64, ArtifactPatch]{
		Kind:      "artefacts",
		Plural:    "artefacts",
		Bucket:    BucketArtifacts,
		ID:        func(a *models.Artifact) int64 { return a.ID },
		Name:      func(a *models.Artifact) string { return a.Name },
		CreatedAt: func(a *models.Artifact) time.Time { return a.CreatedAt },
		Image:     func(a *models.Artifact) *string { return a.Image },
		SetImage:  func(a *models.Artifact, url *string) { a.Image = url },
		Validate: func(a *models.Artifact) error {
			a.Name = strings.TrimSpace(a.Name)
			a.SetBonusID = refOrNil(a.SetBonusID)
			return validation.First(
				validation.Name(a.Name, 2, 100),
				validation.OneOf("catégorie", a.Category, validation.ArtifactCategories),
				validation.MaxLen("description", a.Description, maxDescription),
			)
		},
		ValidatePatch: func(p *ArtifactPatch) error {
			return validation.First(
				checkName(p.Name, 2, 100),
				checkOneOf("catégorie", p.Category, validation.ArtifactCategories),
				checkMaxLen("description", p.Description, maxDescription),
			)
		},
		PatchName: func(p *ArtifactPatch) *string { return p.Name },
		Changes: func(p *ArtifactPatch) map[string]interface{} {
			changes := map[string]interface{}{}
			set(changes, "nom", p.Name)
			set(changes, "categorie", p.Category)
			setRef(changes, "set_bonus_id", p.SetBonusID)
			set(changes, "description", p.Description)
			return changes
		},
	}, store, images, logger)
}

type CorePatch struct {
	Name        *string `json:"nom"`
	Slot        *int    `json:"emplacement"`
	Description *string `json:"description"`
}

// NewCores creates the core service; a core cannot be created without image
func NewCores(store entity.Store[models.Core, int64], images entity.ImageStore, logger logging.Logger) *entity.Service[models.Core, int64, CorePatch] {
	return entity.NewService(entity.Spec[models.Core, int64, CorePatch]{
		Kind:          "noyaux",
		Plural:        "noyaux",
		Bucket:        BucketCores,
		ImageRequired: true,
		ID:            func(c *models.Core) int64 { return c.ID },
		Name:          func(c *models.Core) string { return c.Name },
		CreatedAt:     func(c *models.Core) time.Time { return c.CreatedAt },
		Image:         func(c *models.Core) *string { return c.Image },
		SetImage:      func(c *models.Core, url *string) { c.Image = url },
		Validate: func(c *models.Core) error {
			c.Name = strings.TrimSpace(c.Name)
			return validation.First(
				validation.Name(c.Name, 2, 100),
				validation.OneOfInt("emplacement", c.Slot, validation.CoreSlots),
				validation.MaxLen("description", c.Description, maxDescription),
			)
		},
		ValidatePatch: func(p *CorePatch) error {
			var slot error
			if p.Slot != nil {
				slot = validation.OneOfInt("emplacement", *p.Slot, validation.CoreSlots)
			}
			return validation.First(
				checkName(p.Name, 2, 100),
				slot,
				checkMaxLen("description", p.Description, maxDescription),
			)
		},
		PatchName: func(p *CorePatch) *string { return p.Name },
		Changes: func(p *CorePatch) map[string]interface{} {
			changes := map[string]interface{}{}
			set(changes, "nom", p.Name)
			set(changes, "emplacement", p.Slot)
			set(changes, "description", p.Description)
			return changes
		},
	}, store, images, logger)
}

type SetBonusPatch struct {
	Name   *string `json:"nom"`
	Pieces *int    `json:"pieces"`
	Effect *string `json:"effet"`
}

// NewSetBonuses creates the set bonus service; set bonuses carry no image
func NewSetBonuses(store entity.Store[models.SetBonus, int64], logger logging.Logger) *entity.Service[models.SetBonus, int64, SetBonusPatch] {
	return entity.NewService(entity.Spec[models.SetBonus, int64, SetBonusPatch]{
		Kind:      "set_bonus",
		Plural:    "bonus d'ensemble",
		ID:        func(b *models.SetBonus) int64 { return b.ID },
		Name:      func(b *models.SetBonus) string { return b.Name },
		CreatedAt: func(b *models.SetBonus) time.Time { return b.CreatedAt },
		Validate: func(b *models.SetBonus) error {
			b.Name = strings.TrimSpace(b.Name)
			return validation.First(
				validation.Name(b.Name, 2, 100),
				validation.OneOfInt("pièces", b.Pieces, validation.SetBonusPieces),
				validation.Required("effet", b.Effect),
				validation.MaxLen("effet", b.Effect, maxDescription),
			)
		},
		ValidatePatch: func(p *SetBonusPatch) error {
			var pieces, effect error
			if p.Pieces != nil {
				pieces = validation.OneOfInt("pièces", *p.Pieces, validation.SetBonusPieces)
			}
			if p.Effect != nil {
				effect = validation.First(
					validation.Required("effet", *p.Effect),
					validation.MaxLen("effet", *p.Effect, maxDescription),
				)
			}
			return validation.First(checkName(p.Name, 2, 100), pieces, effect)
		},
		PatchName: func(p *SetBonusPatch) *string { return p.Name },
		Changes: func(p *SetBonusPatch) map[string]interface{} {
			changes := map[string]interface{}{}
			set(changes, "nom", p.Name)
			set(changes, "pieces", p.Pieces)
			set(changes, "effet", p.Effect)
			return changes
		},
	}, store, nil, logger)
}
