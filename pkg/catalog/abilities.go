package catalog

import (
	"strings"
	"time"

	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/entity"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/latoulicious/arise-companion/pkg/validation"
)

// SkillPatch updates a skill; a HunterID of 0 detaches it from its hunter
type SkillPatch struct {
	Name        *string `json:"nom"`
	Type        *string `json:"type"`
	HunterID    *int64  `json:"hunter_id"`
	Description *string `json:"description"`
}

func NewSkills(store entity.Store[models.Skill, int64], images entity.ImageStore, logger logging.Logger) *entity.Service[models.Skill, int64, SkillPatch] {
	return entity.NewService(entity.Spec[models.Skill, int64, SkillPatch]{
		Kind:      "competences",
		Plural:    "compétences",
		Bucket:    BucketSkills,
		ID:        func(s *models.Skill) int64 { return s.ID },
		Name:      func(s *models.Skill) string { return s.Name },
		CreatedAt: func(s *models.Skill) time.Time { return s.CreatedAt },
		Image:     func(s *models.Skill) *string { return s.Image },
		SetImage:  func(s *models.Skill, url *string) { s.Image = url },
		Validate: func(s *models.Skill) error {
			s.Name = strings.TrimSpace(s.Name)
			s.HunterID = refOrNil(s.HunterID)
			return validation.First(
				validation.Name(s.Name, 2, 100),
				validation.OneOf("type", s.Type, validation.SkillTypes),
				validation.MaxLen("description", s.Description, maxDescription),
			)
		},
		ValidatePatch: func(p *SkillPatch) error {
			return validation.First(
				checkName(p.Name, 2, 100),
				checkOneOf("type", p.Type, validation.SkillTypes),
				checkMaxLen("description", p.Description, maxDescription),
			)
		},
		PatchName: func(p *SkillPatch) *string { return p.Name },
		Changes: func(p *SkillPatch) map[string]interface{} {
			changes := map[string]interface{}{}
			set(changes, "nom", p.Name)
			set(changes, "type", p.Type)
			setRef(changes, "hunter_id", p.HunterID)
			set(changes, "description", p.Description)
			return changes
		},
	}, store, images, logger)
}

type ShadowPatch struct {
	Name        *string `json:"nom"`
	Rarity      *string `json:"rarete"`
	Description *string `json:"description"`
}

// NewShadows creates the shadow service; a shadow cannot be created without image
func NewShadows(store entity.Store[models.Shadow, int64], images entity.ImageStore, logger logging.Logger) *entity.Service[models.Shadow, int64, ShadowPatch] {
	return entity.NewService(entity.Spec[models.Shadow, int64, ShadowPatch]{
		Kind:          "ombres",
		Plural:        "ombres",
		Bucket:        BucketShadows,
		ImageRequired: true,
		ID:            func(s *models.Shadow) int64 { return s.ID },
		Name:          func(s *models.Shadow) string { return s.Name },
		CreatedAt:     func(s *models.Shadow) time.Time { return s.CreatedAt },
		Image:         func(s *models.Shadow) *string { return s.Image },
		SetImage:      func(s *models.Shadow, url *string) { s.Image = url },
		Validate: func(s *models.Shadow) error {
			s.Name = strings.TrimSpace(s.Name)
			return validation.First(
				validation.Name(s.Name, 2, 100),
				validation.OneOf("rareté", s.Rarity, validation.Rarities),
				validation.MaxLen("description", s.Description, maxDescription),
			)
		},
		ValidatePatch: func(p *ShadowPatch) error {
			return validation.First(
				checkName(p.Name, 2, 100),
				checkOneOf("rareté", p.Rarity, validation.Rarities),
				checkMaxLen("description", p.Description, maxDescription),
			)
		},
		PatchName: func(p *ShadowPatch) *string { return p.Name },
		Changes: func(p *ShadowPatch) map[string]interface{} {
			changes := map[string]interface{}{}
			set(changes, "nom", p.Name)
			set(changes, "rarete", p.Rarity)
			set(changes, "description", p.Description)
			return changes
		},
	}, store, images, logger)
}
