// Package catalog configures the entity service for every managed game-data
// entity.
package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/database/repository"
	"github.com/latoulicious/arise-companion/pkg/entity"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/latoulicious/arise-companion/pkg/validation"
	"gorm.io/gorm"
)

// Image buckets
const (
	BucketHunters   = "hunter-portrait"
	BucketWeapons   = "armes"
	BucketArtifacts = "artefacts"
	BucketCores     = "noyaux"
	BucketSkills    = "runes"
	BucketShadows   = "ombres"
)

const maxDescription = 2000

// Catalog holds one service per managed entity
type Catalog struct {
	Hunters      *entity.Service[models.Hunter, int64, HunterPatch]
	Weapons      *entity.Service[models.Weapon, int64, WeaponPatch]
	Artifacts    *entity.Service[models.Artifact, int64, ArtifactPatch]
	Cores        *entity.Service[models.Core, int64, CorePatch]
	Skills       *entity.Service[models.Skill, int64, SkillPatch]
	Shadows      *entity.Service[models.Shadow, int64, ShadowPatch]
	SetBonuses   *entity.Service[models.SetBonus, int64, SetBonusPatch]
	PromoCodes   *entity.Service[models.PromoCode, uuid.UUID, PromoCodePatch]
	YoutubeLinks *entity.Service[models.YoutubeLink, uuid.UUID, YoutubeLinkPatch]
}

// New wires every service to its table. recorder may be nil.
func New(db *gorm.DB, images entity.ImageStore, logs logging.LoggerFactory, recorder entity.Recorder) *Catalog {
	c := &Catalog{
		Hunters: NewHunters(
			repository.NewTable[models.Hunter, int64](db, "nom"),
			repository.NewBuildRepository(db), images, logs.CreateEntityLogger("hunters")),
		Weapons: NewWeapons(
			repository.NewTable[models.Weapon, int64](db, "nom"), images, logs.CreateEntityLogger("armes")),
		Artifacts: NewArtifacts(
			repository.NewTable[models.Artifact, int64](db, "nom", "categorie ASC", "nom ASC"), images, logs.CreateEntityLogger("artefacts")),
		Cores: NewCores(
			repository.NewTable[models.Core, int64](db, "nom", "emplacement ASC", "nom ASC"), images, logs.CreateEntityLogger("noyaux")),
		Skills: NewSkills(
			repository.NewTable[models.Skill, int64](db, "nom", "type ASC", "nom ASC"), images, logs.CreateEntityLogger("competences")),
		Shadows: NewShadows(
			repository.NewTable[models.Shadow, int64](db, "nom"), images, logs.CreateEntityLogger("ombres")),
		SetBonuses: NewSetBonuses(
			repository.NewTable[models.SetBonus, int64](db, "nom"), logs.CreateEntityLogger("set_bonus")),
		PromoCodes: NewPromoCodes(
			repository.NewTable[models.PromoCode, uuid.UUID](db, "code", "created_at DESC").WithPreload("Rewards"),
			repository.NewPromoRewardRepository(db), logs.CreateEntityLogger("promo_codes")),
		YoutubeLinks: NewYoutubeLinks(
			repository.NewTable[models.YoutubeLink, uuid.UUID](db, "titre", "categorie ASC", "titre ASC"), logs.CreateEntityLogger("youtube_links")),
	}

	if recorder != nil {
		c.Hunters.WithRecorder(recorder)
		c.Weapons.WithRecorder(recorder)
		c.Artifacts.WithRecorder(recorder)
		c.Cores.WithRecorder(recorder)
		c.Skills.WithRecorder(recorder)
		c.Shadows.WithRecorder(recorder)
		c.SetBonuses.WithRecorder(recorder)
		c.PromoCodes.WithRecorder(recorder)
		c.YoutubeLinks.WithRecorder(recorder)
	}
	return c
}

// Patch field helpers. A nil pointer means "not provided".

func checkName(v *string, min, max int) error {
	if v == nil {
		return nil
	}
	*v = strings.TrimSpace(*v)
	return validation.Name(*v, min, max)
}

func checkOneOf(field string, v *string, allowed []string) error {
	if v == nil {
		return nil
	}
	return validation.OneOf(field, *v, allowed)
}

// optionalOneOf accepts the empty string as "unset"
func optionalOneOf(field, v string, allowed []string) error {
	if v == "" {
		return nil
	}
	return validation.OneOf(field, v, allowed)
}

func checkOptionalOneOf(field string, v *string, allowed []string) error {
	if v == nil {
		return nil
	}
	return optionalOneOf(field, *v, allowed)
}

func checkMaxLen(field string, v *string, max int) error {
	if v == nil {
		return nil
	}
	return validation.MaxLen(field, *v, max)
}

func set[V any](changes map[string]interface{}, column string, v *V) {
	if v != nil {
		changes[column] = *v
	}
}

// setRef maps a reference id where 0 detaches the row
func setRef(changes map[string]interface{}, column string, v *int64) {
	if v == nil {
		return
	}
	if *v == 0 {
		changes[column] = nil
		return
	}
	changes[column] = *v
}

func refOrNil(v *int64) *int64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}
