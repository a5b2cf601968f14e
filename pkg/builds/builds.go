// Package builds manages the recommended build of each hunter. Saves use
// optimistic concurrency on the row version.
package builds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/database"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/entity"
	"github.com/latoulicious/arise-companion/pkg/logging"
)

// MaxPayloadBytes bounds a stored build document
const MaxPayloadBytes = 64 * 1024

// Repository stores build rows
type Repository interface {
	GetAll(ctx context.Context) ([]models.Build, error)
	GetByHunterID(ctx context.Context, hunterID int64) (*models.Build, error)
	SaveVersioned(ctx context.Context, hunterID int64, payload string, expectedVersion int) (bool, error)
}

// Build is the API view of a build row with its payload decoded
type Build struct {
	HunterID int64           `json:"hunter_id"`
	Version  int             `json:"version"`
	Payload  json.RawMessage `json:"payload"`
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

func (s *Service) List(ctx context.Context) ([]Build, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list builds", err, nil)
		return nil, apperror.Wrap(apperror.KindUnknown, err, "Impossible de charger la liste des builds")
	}
	out := make([]Build, 0, len(rows))
	for i := range rows {
		out = append(out, view(&rows[i]))
	}
	return out, nil
}

// Get returns the build of hunterID or a NotFound error
func (s *Service) Get(ctx context.Context, hunterID int64) (*Build, error) {
	row, err := s.repo.GetByHunterID(ctx, hunterID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.Wrap(apperror.KindNotFound, err, "Aucun build pour ce chasseur")
		}
		return nil, apperror.Wrap(apperror.KindUnknown, err, "Impossible de charger le build")
	}
	b := view(row)
	return &b, nil
}

// Save stores payload if the current version is expectedVersion and returns
// the build with its bumped version. A stale version yields a Conflict.
func (s *Service) Save(ctx context.Context, hunterID int64, payload json.RawMessage, expectedVersion int) (*Build, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		return nil, apperror.Validation("Le build doit être un objet JSON valide")
	}

	ok, err := s.repo.SaveVersioned(ctx, hunterID, compact.String(), expectedVersion)
	if err != nil {
		s.logger.Error("Failed to save build", err, map[string]interface{}{"hunter_id": hunterID})
		return nil, apperror.Wrap(apperror.KindUnknown, err, "Impossible d'enregistrer le build")
	}
	if !ok {
		current, err := s.Get(ctx, hunterID)
		if err != nil {
			return nil, err
		}
		s.logger.Warn("Stale build version rejected", map[string]interface{}{
			"hunter_id": hunterID,
			"expected":  expectedVersion,
			"current":   current.Version,
		})
		return nil, apperror.Newf(apperror.KindConflict,
			"Le build a été modifié entre-temps (version %d), rechargez la page avant d'enregistrer", current.Version)
	}

	saved, err := s.Get(ctx, hunterID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Build saved", map[string]interface{}{"hunter_id": hunterID, "version": saved.Version})
	if s.recorder != nil {
		s.recorder.Record("builds", entity.ActionUpdate, fmt.Sprint(hunterID), fmt.Sprintf("build #%d", hunterID))
	}
	return saved, nil
}

func validatePayload(payload json.RawMessage) error {
	if len(payload) > MaxPayloadBytes {
		return apperror.Newf(apperror.KindValidation, "Le build dépasse la taille maximale de %d Ko", MaxPayloadBytes/1024)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil || doc == nil {
		return apperror.Validation("Le build doit être un objet JSON valide")
	}
	return nil
}

func view(row *models.Build) Build {
	payload := json.RawMessage(row.Payload)
	if !json.Valid(payload) {
		payload = json.RawMessage("{}")
	}
	return Build{HunterID: row.HunterID, Version: row.Version, Payload: payload}
}
