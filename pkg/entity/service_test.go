package entity_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/database/dbtest"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/database/repository"
	"github.com/latoulicious/arise-companion/pkg/entity"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/latoulicious/arise-companion/pkg/storage"
	"github.com/latoulicious/arise-companion/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weaponPatch struct {
	Name        *string
	Description *string
}

func weaponSpec() entity.Spec[models.Weapon, int64, weaponPatch] {
	return entity.Spec[models.Weapon, int64, weaponPatch]{
		Kind:     "armes",
		Plural:   "armes",
		Bucket:   "armes",
		ID:       func(w *models.Weapon) int64 { return w.ID },
		Name:     func(w *models.Weapon) string { return w.Name },
		Image:    func(w *models.Weapon) *string { return w.Image },
		SetImage: func(w *models.Weapon, url *string) { w.Image = url },
		Validate: func(w *models.Weapon) error {
			return validation.Name(w.Name, 2, 100)
		},
		ValidatePatch: func(p *weaponPatch) error {
			if p.Name != nil {
				return validation.Name(*p.Name, 2, 100)
			}
			return nil
		},
		PatchName: func(p *weaponPatch) *string { return p.Name },
		Changes: func(p *weaponPatch) map[string]interface{} {
			changes := map[string]interface{}{}
			if p.Name != nil {
				changes["nom"] = *p.Name
			}
			if p.Description != nil {
				changes["description"] = *p.Description
			}
			return changes
		},
	}
}

type fixture struct {
	svc    *entity.Service[models.Weapon, int64, weaponPatch]
	store  entity.Store[models.Weapon, int64]
	bucket *storage.Memory
}

func newFixture(t *testing.T, wrap func(entity.Store[models.Weapon, int64]) entity.Store[models.Weapon, int64]) *fixture {
	db := dbtest.Open(t)
	var store entity.Store[models.Weapon, int64] = repository.NewTable[models.Weapon, int64](db, "nom")
	if wrap != nil {
		store = wrap(store)
	}
	bucket := storage.NewMemory("https://cdn.test")
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	images := storage.NewImages(bucket, storage.ImageOptions{}, logging.Nop()).WithClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	})
	return &fixture{
		svc:    entity.NewService(weaponSpec(), store, images, logging.Nop()),
		store:  store,
		bucket: bucket,
	}
}

func webp() *storage.File {
	return &storage.File{ContentType: "image/webp", Size: 4, Body: bytes.NewReader([]byte("RIFF"))}
}

// failingStore fails the selected operations of an otherwise real store
type failingStore struct {
	entity.Store[models.Weapon, int64]
	failCreate bool
	failUpdate bool
}

func (f *failingStore) Create(ctx context.Context, row *models.Weapon) error {
	if f.failCreate {
		return errors.New("connection reset")
	}
	return f.Store.Create(ctx, row)
}

func (f *failingStore) Update(ctx context.Context, id int64, changes map[string]interface{}) error {
	if f.failUpdate {
		return errors.New("connection reset")
	}
	return f.Store.Update(ctx, id, changes)
}

func TestCreate_DuplicateNameSkipsUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Create(ctx, &models.Weapon{Name: "Dague", Rarity: "SSR"}, nil)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, &models.Weapon{Name: " Dague ", Rarity: "SR"}, webp())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindDuplicate))
	assert.Contains(t, err.Error(), "Dague")
	assert.Zero(t, f.bucket.Puts)
}

func TestCreate_WrongFormatInsertsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	png := webp()
	png.ContentType = "image/png"
	_, err := f.svc.Create(ctx, &models.Weapon{Name: "Dague", Rarity: "SSR"}, png)

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUpload))
	count, err := f.svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreate_OversizeFailsBeforeUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	big := webp()
	big.Size = 6 * 1000 * 1000
	_, err := f.svc.Create(ctx, &models.Weapon{Name: "Dague", Rarity: "SSR"}, big)

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUpload))
	assert.Contains(t, err.Error(), "5.72 Mo")
	assert.Zero(t, f.bucket.Puts)
}

func TestCreate_InvalidNameIsRejectedWithoutIO(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Create(ctx, &models.Weapon{Name: "<script>", Rarity: "SSR"}, webp())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Zero(t, f.bucket.Puts)
}

func TestCreate_InsertFailureRemovesUploadedImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(s entity.Store[models.Weapon, int64]) entity.Store[models.Weapon, int64] {
		return &failingStore{Store: s, failCreate: true}
	})

	_, err := f.svc.Create(ctx, &models.Weapon{Name: "Dague", Rarity: "SSR"}, webp())

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUnknown))
	assert.Equal(t, 1, f.bucket.Puts)
	assert.Empty(t, f.bucket.Objects("armes"))
}

func TestCreate_StoresImageURL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	created, err := f.svc.Create(ctx, &models.Weapon{Name: "Épée de Kamish", Rarity: "SSR"}, webp())
	require.NoError(t, err)
	require.NotNil(t, created.Image)
	assert.Contains(t, *created.Image, "https://cdn.test/armes/Epee_de_Kamish_")

	got, err := f.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Image, got.Image)
}

func TestUpdate_ReplacesImageAfterRowUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	created, err := f.svc.Create(ctx, &models.Weapon{Name: "Dague", Rarity: "SSR"}, webp())
	require.NoError(t, err)
	oldURL := *created.Image

	desc := "Tranchante"
	updated, err := f.svc.Update(ctx, created.ID, &weaponPatch{Description: &desc}, webp())
	require.NoError(t, err)

	require.NotNil(t, updated.Image)
	assert.NotEqual(t, oldURL, *updated.Image)
	assert.Equal(t, "Tranchante", updated.Description)
	assert.Equal(t, []string{storage.ObjectKey(*updated.Image)}, f.bucket.Objects("armes"))
}

func TestUpdate_FailureKeepsOldImage(t *testing.T) {
	ctx := context.Background()
	failing := &failingStore{}
	f := newFixture(t, func(s entity.Store[models.Weapon, int64]) entity.Store[models.Weapon, int64] {
		failing.Store = s
		return failing
	})

	created, err := f.svc.Create(ctx, &models.Weapon{Name: "Dague", Rarity: "SSR"}, webp())
	require.NoError(t, err)
	oldURL := *created.Image

	failing.failUpdate = true
	_, err = f.svc.Update(ctx, created.ID, &weaponPatch{}, webp())
	require.Error(t, err)

	assert.Equal(t, []string{storage.ObjectKey(oldURL)}, f.bucket.Objects("armes"))
	got, err := f.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Image)
	assert.Equal(t, oldURL, *got.Image)
}

func TestUpdate_DependentFailureRestoresRowAndImage(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	bucket := storage.NewMemory("https://cdn.test")
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	images := storage.NewImages(bucket, storage.ImageOptions{}, logging.Nop()).WithClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	})

	spec := weaponSpec()
	spec.AfterUpdate = func(context.Context, *models.Weapon, *weaponPatch, *entity.Saga) error {
		return errors.New("dependent table unavailable")
	}
	svc := entity.NewService(spec, repository.NewTable[models.Weapon, int64](db, "nom"), images, logging.Nop())

	created, err := svc.Create(ctx, &models.Weapon{Name: "Dague", Rarity: "SSR", Description: "Courte"}, webp())
	require.NoError(t, err)
	oldURL := *created.Image

	name, desc := "Lance", "Longue"
	_, err = svc.Update(ctx, created.ID, &weaponPatch{Name: &name, Description: &desc}, webp())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUnknown))

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dague", got.Name)
	assert.Equal(t, "Courte", got.Description)
	require.NotNil(t, got.Image)
	assert.Equal(t, oldURL, *got.Image)
	assert.Equal(t, []string{storage.ObjectKey(oldURL)}, bucket.Objects("armes"))
}

func TestUpdate_RenameChecksUniquenessExcludingSelf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	dague, err := f.svc.Create(ctx, &models.Weapon{Name: "Dague", Rarity: "SSR"}, nil)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &models.Weapon{Name: "Lance", Rarity: "SSR"}, nil)
	require.NoError(t, err)

	same := "Dague"
	_, err = f.svc.Update(ctx, dague.ID, &weaponPatch{Name: &same}, nil)
	assert.NoError(t, err)

	taken := "Lance"
	_, err = f.svc.Update(ctx, dague.ID, &weaponPatch{Name: &taken}, nil)
	assert.True(t, apperror.Is(err, apperror.KindDuplicate))
}

func TestUpdate_MissingRowIsNotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Update(context.Background(), 404, &weaponPatch{}, nil)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestDelete_RowRemovedEvenIfImageDeleteFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	created, err := f.svc.Create(ctx, &models.Weapon{Name: "Dague", Rarity: "SSR"}, webp())
	require.NoError(t, err)

	f.bucket.RemoveErr = errors.New("bucket offline")
	require.NoError(t, f.svc.Delete(ctx, created.ID))

	got, err := f.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, f.bucket.Removes)

	assert.True(t, apperror.Is(f.svc.Delete(ctx, created.ID), apperror.KindNotFound))
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	for _, name := range []string{"Dague de Kasaka", "Lance", "Dague"} {
		_, err := f.svc.Create(ctx, &models.Weapon{Name: name, Rarity: "SR"}, nil)
		require.NoError(t, err)
	}

	rows, err := f.svc.Search(ctx, entity.Query{Search: "dague", Sort: "-name"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Dague de Kasaka", rows[0].Name)
	assert.Equal(t, "Dague", rows[1].Name)

	_, err = f.svc.Search(ctx, entity.Query{Sort: "price"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

type recorder struct{ actions []string }

func (r *recorder) Record(kind, action, entityID, name string) {
	r.actions = append(r.actions, kind+":"+action+":"+name)
}

func TestRecorderSeesSuccessfulWritesOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rec := &recorder{}
	f.svc.WithRecorder(rec)

	created, err := f.svc.Create(ctx, &models.Weapon{Name: "Dague", Rarity: "SR"}, nil)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &models.Weapon{Name: "Dague", Rarity: "SR"}, nil)
	require.Error(t, err)
	require.NoError(t, f.svc.Delete(ctx, created.ID))

	assert.Equal(t, []string{"armes:create:Dague", "armes:delete:Dague"}, rec.actions)
}
