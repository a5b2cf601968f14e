// Package tierlist reads and rewrites the ranked tier lists of the site.
package tierlist

import (
	"context"
	"fmt"
	"regexp"

	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/entity"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/latoulicious/arise-companion/pkg/validation"
)

var groupingPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,49}$`)

// Repository stores tier list rows
type Repository interface {
	GetByGrouping(ctx context.Context, grouping string) ([]models.TierListEntry, error)
	ListGroupings(ctx context.Context) ([]string, error)
	Replace(ctx context.Context, grouping string, entries []models.TierListEntry) error
}

// Placement puts one entity into a tier. Order within a tier follows the
// order of placements.
type Placement struct {
	EntityID int64  `json:"entity_id"`
	Tier     string `json:"tier"`
}

// Tier is one ranked row of a tier list
type Tier struct {
	Label     string  `json:"tier"`
	EntityIDs []int64 `json:"entity_ids"`
}

type Service struct {
	repo     Repository
	logger   logging.Logger
	recorder entity.Recorder
}

func NewService(repo Repository, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{repo: repo, logger: logger}
}

// WithRecorder attaches an activity recorder
func (s *Service) WithRecorder(r entity.Recorder) *Service {
	s.recorder = r
	return s
}

// Groupings returns the keys of every stored tier list
func (s *Service) Groupings(ctx context.Context) ([]string, error) {
	keys, err := s.repo.ListGroupings(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnknown, err, "Impossible de charger les tier lists")
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Get returns every tier of grouping, best first, including empty tiers
func (s *Service) Get(ctx context.Context, grouping string) ([]Tier, error) {
	if err := validateGrouping(grouping); err != nil {
		return nil, err
	}
	entries, err := s.repo.GetByGrouping(ctx, grouping)
	if err != nil {
		s.logger.Error("Failed to load tier list", err, map[string]interface{}{"grouping": grouping})
		return nil, apperror.Wrap(apperror.KindUnknown, err, "Impossible de charger la tier list")
	}
	return arrange(entries), nil
}

// Reorder replaces the whole tier list with placements, numbering positions
// from 0 within each tier. The rewrite is atomic.
func (s *Service) Reorder(ctx context.Context, grouping string, placements []Placement) ([]Tier, error) {
	if err := validateGrouping(grouping); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(placements))
	positions := make(map[string]int, len(validation.TierLabels))
	entries := make([]models.TierListEntry, 0, len(placements))
	for _, p := range placements {
		if p.EntityID <= 0 {
			return nil, apperror.Validation("Identifiant d'élément invalide dans la tier list")
		}
		if err := validation.OneOf("tier", p.Tier, validation.TierLabels); err != nil {
			return nil, err
		}
		if seen[p.EntityID] {
			return nil, apperror.Newf(apperror.KindValidation, "L'élément %d apparaît plusieurs fois dans la tier list", p.EntityID)
		}
		seen[p.EntityID] = true

		entries = append(entries, models.TierListEntry{
			Grouping: grouping,
			EntityID: p.EntityID,
			Tier:     p.Tier,
			Position: positions[p.Tier],
		})
		positions[p.Tier]++
	}

	if err := s.repo.Replace(ctx, grouping, entries); err != nil {
		s.logger.Error("Failed to reorder tier list", err, map[string]interface{}{
			"grouping": grouping,
			"entries":  len(entries),
		})
		return nil, apperror.Wrap(apperror.KindUnknown, err, "Impossible d'enregistrer la tier list")
	}

	s.logger.Info("Tier list reordered", map[string]interface{}{"grouping": grouping, "entries": len(entries)})
	if s.recorder != nil {
		s.recorder.Record("tier_list", entity.ActionUpdate, grouping, grouping)
	}
	return arrange(entries), nil
}

func validateGrouping(grouping string) error {
	if !groupingPattern.MatchString(grouping) {
		return apperror.Validation(fmt.Sprintf("Tier list inconnue : %q", grouping))
	}
	return nil
}

// arrange groups entries by tier in label order, each tier sorted by position
func arrange(entries []models.TierListEntry) []Tier {
	byTier := make(map[string][]models.TierListEntry, len(validation.TierLabels))
	for _, e := range entries {
		byTier[e.Tier] = append(byTier[e.Tier], e)
	}

	tiers := make([]Tier, 0, len(validation.TierLabels))
	for _, label := range validation.TierLabels {
		rows := byTier[label]
		ids := make([]int64, len(rows))
		for _, r := range rows {
			if r.Position >= 0 && r.Position < len(ids) {
				ids[r.Position] = r.EntityID
			}
		}
		tiers = append(tiers, Tier{Label: label, EntityIDs: ids})
	}
	return tiers
}
