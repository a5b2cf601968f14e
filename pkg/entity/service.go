// Package entity implements the create/update/delete workflow shared by every
// managed game-data entity: validation, name uniqueness, image upload and
// compensation of partial writes.
package entity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/database"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/latoulicious/arise-companion/pkg/storage"
)

// Store is the typed repository of one entity table
type Store[T any, K comparable] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id K) (*T, error)
	NameExists(ctx context.Context, name string, exclude *K) (bool, error)
	Create(ctx context.Context, row *T) error
	Update(ctx context.Context, id K, changes map[string]interface{}) error
	// Restore writes every column of row back, undoing an Update
	Restore(ctx context.Context, row *T) error
	Delete(ctx context.Context, id K) error
	Count(ctx context.Context) (int64, error)
}

// ImageStore uploads and deletes entity images
type ImageStore interface {
	Upload(ctx context.Context, bucket string, file *storage.File, entityName string) (string, error)
	Delete(ctx context.Context, bucket, publicURL string)
}

// Recorder receives successful writes, e.g. the admin activity feed
type Recorder interface {
	Record(kind, action, entityID, name string)
}

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Spec configures a Service for one entity. T is the row type, K its key and
// P the partial-update payload.
type Spec[T any, K comparable, P any] struct {
	// Kind names the entity in logs and activity, e.g. "armes"
	Kind string
	// Plural is the French plural used in list failure messages
	Plural string
	// Bucket holds the entity images; empty means the entity has no image
	Bucket        string
	ImageColumn   string
	ImageRequired bool

	ID        func(*T) K
	Name      func(*T) string
	CreatedAt func(*T) time.Time
	Image     func(*T) *string
	SetImage  func(*T, *string)

	// Validate checks a new row and may normalize it in place
	Validate func(*T) error
	// ValidatePatch checks the provided fields of a partial update
	ValidatePatch func(*P) error
	// PatchName returns the new name carried by the patch, if any
	PatchName func(*P) *string
	// Changes maps the provided fields of the patch to column values
	Changes func(*P) map[string]interface{}

	// AfterCreate writes dependent rows; undo actions go to the saga
	AfterCreate func(ctx context.Context, row *T, saga *Saga) error
	// AfterUpdate writes dependent rows once the row update succeeded; undo
	// actions go to the saga
	AfterUpdate func(ctx context.Context, row *T, patch *P, saga *Saga) error
	// BeforeDelete removes dependent rows; undo actions go to the saga
	BeforeDelete func(ctx context.Context, row *T, saga *Saga) error
}

// Service is the generic entity workflow
type Service[T any, K comparable, P any] struct {
	spec     Spec[T, K, P]
	store    Store[T, K]
	images   ImageStore
	logger   logging.Logger
	recorder Recorder
}

// NewService creates a service; images may be nil for entities without a bucket
func NewService[T any, K comparable, P any](spec Spec[T, K, P], store Store[T, K], images ImageStore, logger logging.Logger) *Service[T, K, P] {
	if spec.ImageColumn == "" {
		spec.ImageColumn = "image"
	}
	if spec.Plural == "" {
		spec.Plural = spec.Kind
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service[T, K, P]{spec: spec, store: store, images: images, logger: logger}
}

// WithRecorder attaches an activity recorder
func (s *Service[T, K, P]) WithRecorder(r Recorder) *Service[T, K, P] {
	s.recorder = r
	return s
}

// Kind returns the configured entity kind
func (s *Service[T, K, P]) Kind() string {
	return s.spec.Kind
}

func (s *Service[T, K, P]) hasImage() bool {
	return s.spec.Bucket != "" && s.spec.Image != nil && s.spec.SetImage != nil
}

// List returns every row in the repository order
func (s *Service[T, K, P]) List(ctx context.Context) ([]T, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list", err, nil)
		return nil, apperror.Wrap(apperror.KindUnknown, err, fmt.Sprintf("Impossible de charger la liste des %s", s.spec.Plural))
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// Query filters and orders a listing
type Query struct {
	// Search keeps rows whose name contains it, case-insensitively
	Search string
	// Sort is "name", "-name" or "created"; empty keeps the repository order
	Sort string
}

// Search lists rows matching q
func (s *Service[T, K, P]) Search(ctx context.Context, q Query) ([]T, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	if needle != "" {
		filtered := rows[:0]
		for i := range rows {
			if strings.Contains(strings.ToLower(s.spec.Name(&rows[i])), needle) {
				filtered = append(filtered, rows[i])
			}
		}
		rows = filtered
	}

	switch q.Sort {
	case "name":
		sort.SliceStable(rows, func(i, j int) bool { return s.spec.Name(&rows[i]) < s.spec.Name(&rows[j]) })
	case "-name":
		sort.SliceStable(rows, func(i, j int) bool { return s.spec.Name(&rows[i]) > s.spec.Name(&rows[j]) })
	case "created":
		if s.spec.CreatedAt != nil {
			sort.SliceStable(rows, func(i, j int) bool {
				return s.spec.CreatedAt(&rows[i]).After(s.spec.CreatedAt(&rows[j]))
			})
		}
	case "":
	default:
		return nil, apperror.Newf(apperror.KindValidation, "Tri inconnu « %s » : valeurs possibles name, -name, created", q.Sort)
	}
	return rows, nil
}

// GetByID returns the row, or nil without error when it does not exist
func (s *Service[T, K, P]) GetByID(ctx context.Context, id K) (*T, error) {
	row, err := s.store.Get(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		s.logger.Error("Failed to get", err, map[string]interface{}{"entity_id": fmt.Sprint(id)})
		return nil, apperror.Wrap(apperror.KindUnknown, err, "Impossible de charger l'élément demandé")
	}
	return row, nil
}

// NameExists reports whether another row already uses name
func (s *Service[T, K, P]) NameExists(ctx context.Context, name string, exclude *K) (bool, error) {
	exists, err := s.store.NameExists(ctx, strings.TrimSpace(name), exclude)
	if err != nil {
		s.logger.Error("Uniqueness check failed", err, map[string]interface{}{"name": name})
		return false, apperror.Wrap(apperror.KindUnknown, err, msgUniqueCheck)
	}
	return exists, nil
}

// Count returns the number of rows
func (s *Service[T, K, P]) Count(ctx context.Context) (int64, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, apperror.Unknown(err)
	}
	return count, nil
}

// Create validates row, checks its name, uploads file if given, inserts the
// row and runs the dependent writes. Any failure undoes the completed steps.
func (s *Service[T, K, P]) Create(ctx context.Context, row *T, file *storage.File) (*T, error) {
	if s.spec.Validate != nil {
		if err := s.spec.Validate(row); err != nil {
			return nil, err
		}
	}
	if err := s.checkImageAllowed(file, s.spec.ImageRequired); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(s.spec.Name(row))
	exists, err := s.NameExists(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateError(name, nil)
	}

	logger := s.logger.WithOperation(ActionCreate)
	saga := NewSaga(s.spec.Kind+".create", logger)

	if file != nil {
		url, err := s.images.Upload(ctx, s.spec.Bucket, file, name)
		if err != nil {
			return nil, err
		}
		s.spec.SetImage(row, &url)
		saga.Defer("delete uploaded image", func(ctx context.Context) error {
			s.images.Delete(ctx, s.spec.Bucket, url)
			return nil
		})
	} else if s.hasImage() {
		s.spec.SetImage(row, nil)
	}

	if err := s.store.Create(ctx, row); err != nil {
		saga.Compensate(ctx)
		logger.Error("Insert failed", err, map[string]interface{}{"name": name})
		return nil, classify(err, name, false)
	}
	id := s.spec.ID(row)
	saga.Defer("delete inserted row", func(ctx context.Context) error {
		return s.store.Delete(ctx, id)
	})

	if s.spec.AfterCreate != nil {
		if err := s.spec.AfterCreate(ctx, row, saga); err != nil {
			saga.Compensate(ctx)
			logger.Error("Dependent insert failed", err, map[string]interface{}{"name": name, "entity_id": fmt.Sprint(id)})
			return nil, classify(err, name, false)
		}
	}

	logger.Info("Created", map[string]interface{}{"name": name, "entity_id": fmt.Sprint(id)})
	s.record(ActionCreate, id, name)
	return row, nil
}

// Update applies the provided fields of patch to the row id. A new image is
// uploaded first; the old one is deleted only once the row and its dependent
// writes succeeded. Any failure puts the previous row back.
func (s *Service[T, K, P]) Update(ctx context.Context, id K, patch *P, file *storage.File) (*T, error) {
	if patch == nil {
		patch = new(P)
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.Wrap(apperror.KindNotFound, err, msgNotFound)
		}
		return nil, apperror.Unknown(err)
	}

	if s.spec.ValidatePatch != nil {
		if err := s.spec.ValidatePatch(patch); err != nil {
			return nil, err
		}
	}
	if err := s.checkImageAllowed(file, false); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(s.spec.Name(current))
	if s.spec.PatchName != nil {
		if newName := s.spec.PatchName(patch); newName != nil && strings.TrimSpace(*newName) != name {
			name = strings.TrimSpace(*newName)
			exists, err := s.NameExists(ctx, name, &id)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, duplicateError(name, nil)
			}
		}
	}

	logger := s.logger.WithOperation(ActionUpdate).WithContext(map[string]interface{}{"entity_id": fmt.Sprint(id)})
	saga := NewSaga(s.spec.Kind+".update", logger)

	changes := map[string]interface{}{}
	if s.spec.Changes != nil {
		for column, value := range s.spec.Changes(patch) {
			changes[column] = value
		}
	}

	var oldImage *string
	if file != nil {
		url, err := s.images.Upload(ctx, s.spec.Bucket, file, name)
		if err != nil {
			return nil, err
		}
		saga.Defer("delete uploaded image", func(ctx context.Context) error {
			s.images.Delete(ctx, s.spec.Bucket, url)
			return nil
		})
		oldImage = s.spec.Image(current)
		changes[s.spec.ImageColumn] = url
	}

	if err := s.store.Update(ctx, id, changes); err != nil {
		saga.Compensate(ctx)
		logger.Error("Update failed", err, map[string]interface{}{"name": name})
		return nil, classify(err, name, false)
	}
	if len(changes) > 0 {
		previous := *current
		saga.Defer("restore previous row", func(ctx context.Context) error {
			return s.store.Restore(ctx, &previous)
		})
	}

	updated, err := s.store.Get(ctx, id)
	if err != nil {
		saga.Compensate(ctx)
		return nil, classify(err, name, false)
	}

	if s.spec.AfterUpdate != nil {
		if err := s.spec.AfterUpdate(ctx, updated, patch, saga); err != nil {
			saga.Compensate(ctx)
			logger.Error("Dependent update failed", err, map[string]interface{}{"name": name})
			return nil, classify(err, name, false)
		}
	}

	// the row now references the new image for good
	if oldImage != nil && *oldImage != "" {
		s.images.Delete(ctx, s.spec.Bucket, *oldImage)
	}

	logger.Info("Updated", map[string]interface{}{"name": name, "fields": len(changes)})
	s.record(ActionUpdate, id, name)
	return updated, nil
}

// Delete removes dependents, then the row, then its image. The image removal
// is best effort and never fails the operation.
func (s *Service[T, K, P]) Delete(ctx context.Context, id K) error {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return apperror.Wrap(apperror.KindNotFound, err, msgNotFound)
		}
		return apperror.Unknown(err)
	}
	name := s.spec.Name(current)

	logger := s.logger.WithOperation(ActionDelete).WithContext(map[string]interface{}{"entity_id": fmt.Sprint(id)})
	saga := NewSaga(s.spec.Kind+".delete", logger)

	if s.spec.BeforeDelete != nil {
		if err := s.spec.BeforeDelete(ctx, current, saga); err != nil {
			saga.Compensate(ctx)
			logger.Error("Dependent delete failed", err, map[string]interface{}{"name": name})
			return classify(err, name, true)
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		saga.Compensate(ctx)
		logger.Error("Delete failed", err, map[string]interface{}{"name": name})
		return classify(err, name, true)
	}

	if s.hasImage() {
		if image := s.spec.Image(current); image != nil && *image != "" {
			s.images.Delete(ctx, s.spec.Bucket, *image)
		}
	}

	logger.Info("Deleted", map[string]interface{}{"name": name})
	s.record(ActionDelete, id, name)
	return nil
}

func (s *Service[T, K, P]) checkImageAllowed(file *storage.File, required bool) error {
	if file == nil {
		if required && s.hasImage() {
			return apperror.Validation("Une image est requise")
		}
		return nil
	}
	if !s.hasImage() || s.images == nil {
		return apperror.Validation("Ce type d'élément n'accepte pas d'image")
	}
	return nil
}

func (s *Service[T, K, P]) record(action string, id K, name string) {
	if s.recorder != nil {
		s.recorder.Record(s.spec.Kind, action, fmt.Sprint(id), name)
	}
}
