package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/catalog"
	"github.com/latoulicious/arise-companion/pkg/database/dbtest"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/database/repository"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/latoulicious/arise-companion/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func webp() *storage.File {
	return &storage.File{ContentType: "image/webp", Size: 4, Body: bytes.NewReader([]byte("RIFF"))}
}

func newImages(bucket *storage.Memory) *storage.Images {
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return storage.NewImages(bucket, storage.ImageOptions{}, logging.Nop()).WithClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	})
}

func newCatalog(t *testing.T) (*catalog.Catalog, *gorm.DB, *storage.Memory) {
	db := dbtest.Open(t)
	bucket := storage.NewMemory("https://cdn.test")
	c := catalog.New(db, newImages(bucket), logging.NewLoggerFactory(logging.Options{Level: "error"}), nil)
	return c, db, bucket
}

// failingBuilds refuses to insert build rows
type failingBuilds struct {
	*repository.BuildRepository
}

func (failingBuilds) CreateEmpty(context.Context, int64) (*models.Build, error) {
	return nil, errors.New("builds table unavailable")
}

func TestHunterCreate_InsertsBuildsRow(t *testing.T) {
	ctx := context.Background()
	c, db, _ := newCatalog(t)

	hunter, err := c.Hunters.Create(ctx, &models.Hunter{Name: "Cha Hae-In", Element: "Lumière", Rarity: "SSR", Class: "Combattant"}, webp())
	require.NoError(t, err)

	build, err := repository.NewBuildRepository(db).GetByHunterID(ctx, hunter.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, build.Version)
	assert.Equal(t, "{}", build.Payload)
}

func TestHunterCreate_BuildsFailureRollsBackHunterAndImage(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	bucket := storage.NewMemory("https://cdn.test")
	hunters := catalog.NewHunters(
		repository.NewTable[models.Hunter, int64](db, "nom"),
		failingBuilds{repository.NewBuildRepository(db)},
		newImages(bucket), logging.Nop())

	_, err := hunters.Create(ctx, &models.Hunter{Name: "Baek Yoonho", Element: "Vent", Rarity: "SSR"}, webp())
	require.Error(t, err)

	rows, err := hunters.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows, "no hunter without builds row may remain")
	assert.Equal(t, 1, bucket.Puts)
	assert.Empty(t, bucket.Objects(catalog.BucketHunters))
}

func TestHunterDelete_RemovesBuildsAndRestoresThemWhenBlocked(t *testing.T) {
	ctx := context.Background()
	c, db, _ := newCatalog(t)
	builds := repository.NewBuildRepository(db)

	hunter, err := c.Hunters.Create(ctx, &models.Hunter{Name: "Go Gunhee", Element: "Vent", Rarity: "SSR"}, nil)
	require.NoError(t, err)
	ok, err := builds.SaveVersioned(ctx, hunter.ID, `{"armes":["Lance"]}`, 1)
	require.NoError(t, err)
	require.True(t, ok)

	skill, err := c.Skills.Create(ctx, &models.Skill{Name: "Tornade", Type: "Ultime", HunterID: &hunter.ID}, nil)
	require.NoError(t, err)

	err = c.Hunters.Delete(ctx, hunter.ID)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindReferential))

	build, err := builds.GetByHunterID(ctx, hunter.ID)
	require.NoError(t, err, "builds row restored after blocked delete")
	assert.JSONEq(t, `{"armes":["Lance"]}`, build.Payload)

	require.NoError(t, c.Skills.Delete(ctx, skill.ID))
	require.NoError(t, c.Hunters.Delete(ctx, hunter.ID))
	_, err = builds.GetByHunterID(ctx, hunter.ID)
	assert.Error(t, err)
}

func TestImageRequiredOnCreate(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCatalog(t)

	_, err := c.Cores.Create(ctx, &models.Core{Name: "Noyau du Chasseur", Slot: 1}, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = c.Shadows.Create(ctx, &models.Shadow{Name: "Igris", Rarity: "SSR"}, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	core, err := c.Cores.Create(ctx, &models.Core{Name: "Noyau du Chasseur", Slot: 1}, webp())
	require.NoError(t, err)

	desc := "Augmente les dégâts"
	_, err = c.Cores.Update(ctx, core.ID, &catalog.CorePatch{Description: &desc}, nil)
	assert.NoError(t, err, "an image is only required on create")
}

func TestSetBonusRejectsImage(t *testing.T) {
	c, _, bucket := newCatalog(t)
	_, err := c.SetBonuses.Create(context.Background(), &models.SetBonus{Name: "Set du Roi", Pieces: 4, Effect: "+10% PV"}, webp())
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Zero(t, bucket.Puts)
}

func TestEnumerationsAreValidated(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCatalog(t)

	_, err := c.Hunters.Create(ctx, &models.Hunter{Name: "Woo Jinchul", Element: "Glace", Rarity: "SSR"}, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Contains(t, err.Error(), "Feu, Eau, Vent, Lumière, Ténèbres")

	_, err = c.Cores.Create(ctx, &models.Core{Name: "Noyau", Slot: 4}, webp())
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = c.Artifacts.Create(ctx, &models.Artifact{Name: "Casque", Category: "Arme"}, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestArtifactUnknownSetBonusIsReferential(t *testing.T) {
	missing := int64(999)
	c, _, _ := newCatalog(t)
	_, err := c.Artifacts.Create(context.Background(), &models.Artifact{Name: "Casque", Category: "Armure", SetBonusID: &missing}, nil)
	assert.True(t, apperror.Is(err, apperror.KindReferential))
}

func TestPromoCodeRewards(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCatalog(t)

	code, err := c.PromoCodes.Create(ctx, &models.PromoCode{
		Code:   "ARISE2025",
		Active: true,
		Rewards: []models.PromoReward{
			{Name: "Essence", Quantity: 100},
			{Name: "Or", Quantity: 5000},
		},
	}, nil)
	require.NoError(t, err)

	got, err := c.PromoCodes.GetByID(ctx, code.ID)
	require.NoError(t, err)
	require.Len(t, got.Rewards, 2)

	updated, err := c.PromoCodes.Update(ctx, code.ID, &catalog.PromoCodePatch{
		Rewards: &[]models.PromoReward{{Name: "Gemmes", Quantity: 300}},
	}, nil)
	require.NoError(t, err)
	require.Len(t, updated.Rewards, 1)
	assert.Equal(t, "Gemmes", updated.Rewards[0].Name)

	_, err = c.PromoCodes.Update(ctx, code.ID, &catalog.PromoCodePatch{
		Rewards: &[]models.PromoReward{{Name: "Gemmes", Quantity: 0}},
	}, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	bad := "code avec espaces"
	_, err = c.PromoCodes.Update(ctx, code.ID, &catalog.PromoCodePatch{Code: &bad}, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	require.NoError(t, c.PromoCodes.Delete(ctx, code.ID))
	got, err = c.PromoCodes.GetByID(ctx, code.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// failingRewards refuses to replace rewards once fail is set
type failingRewards struct {
	*repository.PromoRewardRepository
	fail bool
}

func (f *failingRewards) ReplaceForCode(ctx context.Context, codeID uuid.UUID, rewards []models.PromoReward) error {
	if f.fail {
		return errors.New("rewards table unavailable")
	}
	return f.PromoRewardRepository.ReplaceForCode(ctx, codeID, rewards)
}

func TestPromoCodeUpdate_RewardsFailureLeavesCodeUnchanged(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	rewards := &failingRewards{PromoRewardRepository: repository.NewPromoRewardRepository(db)}
	promos := catalog.NewPromoCodes(
		repository.NewTable[models.PromoCode, uuid.UUID](db, "code").WithPreload("Rewards"),
		rewards, logging.Nop())

	code, err := promos.Create(ctx, &models.PromoCode{
		Code:        "OLDCODE",
		Description: "Lancement",
		Active:      true,
		Rewards:     []models.PromoReward{{Name: "Essence", Quantity: 100}},
	}, nil)
	require.NoError(t, err)

	rewards.fail = true
	newCode, desc, active := "NEWCODE", "Relance", false
	_, err = promos.Update(ctx, code.ID, &catalog.PromoCodePatch{
		Code:        &newCode,
		Description: &desc,
		Active:      &active,
		Rewards:     &[]models.PromoReward{{Name: "Gemmes", Quantity: 300}},
	}, nil)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUnknown))

	got, err := promos.GetByID(ctx, code.ID)
	require.NoError(t, err)
	assert.Equal(t, "OLDCODE", got.Code)
	assert.Equal(t, "Lancement", got.Description)
	assert.True(t, got.Active)
	require.Len(t, got.Rewards, 1)
	assert.Equal(t, "Essence", got.Rewards[0].Name)
}

func TestYoutubeLinks(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCatalog(t)

	_, err := c.YoutubeLinks.Create(ctx, &models.YoutubeLink{Title: "Guide Igris", URL: "https://vimeo.com/1", Category: "Ombres"}, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	link, err := c.YoutubeLinks.Create(ctx, &models.YoutubeLink{Title: "Guide Igris", URL: "https://youtu.be/abc", Category: "Ombres"}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", link.ID.String())

	_, err = c.YoutubeLinks.Create(ctx, &models.YoutubeLink{Title: "Guide Igris", URL: "https://youtu.be/def", Category: "Ombres"}, nil)
	assert.True(t, apperror.Is(err, apperror.KindDuplicate))
}
