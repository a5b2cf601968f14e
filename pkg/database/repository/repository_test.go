package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/latoulicious/arise-companion/pkg/database"
	"github.com/latoulicious/arise-companion/pkg/database/dbtest"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/database/repository"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_NameExistsExcludesSelf(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	weapons := repository.NewTable[models.Weapon, int64](db, "nom")

	dague := &models.Weapon{Name: "Dague", Rarity: "SSR"}
	require.NoError(t, weapons.Create(ctx, dague))

	exists, err := weapons.NameExists(ctx, "Dague", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = weapons.NameExists(ctx, "  Dague ", &dague.ID)
	require.NoError(t, err)
	assert.False(t, exists, "the only match is the excluded row")

	other := &models.Weapon{Name: "Épée", Rarity: "SR"}
	require.NoError(t, weapons.Create(ctx, other))
	exists, err = weapons.NameExists(ctx, "Dague", &other.ID)
	require.NoError(t, err)
	assert.True(t, exists, "a different row shares the name")

	exists, err = weapons.NameExists(ctx, "dague", nil)
	require.NoError(t, err)
	assert.False(t, exists, "matching is case-sensitive")
}

func TestTable_CRUD(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	cores := repository.NewTable[models.Core, int64](db, "nom", "emplacement ASC", "nom ASC")

	require.NoError(t, cores.Create(ctx, &models.Core{Name: "Noyau B", Slot: 2}))
	require.NoError(t, cores.Create(ctx, &models.Core{Name: "Noyau A", Slot: 2}))
	require.NoError(t, cores.Create(ctx, &models.Core{Name: "Noyau Z", Slot: 1}))

	rows, err := cores.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Noyau Z", "Noyau A", "Noyau B"}, []string{rows[0].Name, rows[1].Name, rows[2].Name})

	id := rows[1].ID
	require.NoError(t, cores.Update(ctx, id, map[string]interface{}{"description": "Critique"}))
	got, err := cores.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Critique", got.Description)
	assert.Equal(t, "Noyau A", got.Name)

	count, err := cores.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, cores.Delete(ctx, id))
	_, err = cores.Get(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.ErrorIs(t, cores.Delete(ctx, id), database.ErrNotFound)
	assert.ErrorIs(t, cores.Update(ctx, id, map[string]interface{}{"description": "x"}), database.ErrNotFound)
}

func TestTable_UniqueIndexIsClassified(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	shadows := repository.NewTable[models.Shadow, int64](db, "nom")

	require.NoError(t, shadows.Create(ctx, &models.Shadow{Name: "Igris", Rarity: "SSR"}))
	err := shadows.Create(ctx, &models.Shadow{Name: "Igris", Rarity: "SSR"})
	require.Error(t, err)
	assert.True(t, database.IsDuplicate(err))
}

func TestBuildRepository_ForeignKeyAndVersioning(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	hunters := repository.NewTable[models.Hunter, int64](db, "nom")
	builds := repository.NewBuildRepository(db)

	hunter := &models.Hunter{Name: "Cha Hae-In", Element: "Lumière", Rarity: "SSR"}
	require.NoError(t, hunters.Create(ctx, hunter))
	_, err := builds.CreateEmpty(ctx, hunter.ID)
	require.NoError(t, err)

	err = hunters.Delete(ctx, hunter.ID)
	require.Error(t, err)
	assert.True(t, database.IsForeignKey(err))

	ok, err := builds.SaveVersioned(ctx, hunter.ID, `{"armes":["Dague"]}`, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = builds.SaveVersioned(ctx, hunter.ID, `{}`, 1)
	require.NoError(t, err)
	assert.False(t, ok, "stale version must not overwrite")

	build, err := builds.GetByHunterID(ctx, hunter.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, build.Version)
	assert.JSONEq(t, `{"armes":["Dague"]}`, build.Payload)

	require.NoError(t, builds.DeleteByHunterID(ctx, hunter.ID))
	require.NoError(t, hunters.Delete(ctx, hunter.ID))
}

func TestTierListRepository_Replace(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := repository.NewTierListRepository(db)

	require.NoError(t, repo.Replace(ctx, "hunters", []models.TierListEntry{
		{Grouping: "hunters", EntityID: 1, Tier: "S", Position: 0},
		{Grouping: "hunters", EntityID: 2, Tier: "A", Position: 0},
	}))
	require.NoError(t, repo.Replace(ctx, "weapons", []models.TierListEntry{
		{Grouping: "weapons", EntityID: 1, Tier: "SS", Position: 0},
	}))
	require.NoError(t, repo.Replace(ctx, "hunters", []models.TierListEntry{
		{Grouping: "hunters", EntityID: 3, Tier: "SSS", Position: 0},
	}))

	entries, err := repo.GetByGrouping(ctx, "hunters")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].EntityID)

	keys, err := repo.ListGroupings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hunters", "weapons"}, keys)
}

func TestPromoRepositories(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	codes := repository.NewTable[models.PromoCode, uuid.UUID](db, "code")
	promo := repository.NewPromoCodeRepository(db)
	rewards := repository.NewPromoRewardRepository(db)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := &models.PromoCode{Code: "OLD", Active: true, ExpiresAt: &past}
	live := &models.PromoCode{Code: "LIVE", Active: true, ExpiresAt: &future}
	forever := &models.PromoCode{Code: "FOREVER", Active: true}
	require.NoError(t, codes.Create(ctx, expired))
	require.NoError(t, codes.Create(ctx, live))
	require.NoError(t, codes.Create(ctx, forever))

	require.NoError(t, rewards.ReplaceForCode(ctx, live.ID, []models.PromoReward{{Name: "Essence", Quantity: 100}}))
	require.NoError(t, rewards.ReplaceForCode(ctx, live.ID, []models.PromoReward{
		{Name: "Gemmes", Quantity: 300},
		{Name: "Or", Quantity: 5000},
	}))

	byCode, err := rewards.GetByCodes(ctx, []uuid.UUID{live.ID, forever.ID})
	require.NoError(t, err)
	require.Len(t, byCode[live.ID], 2)
	assert.Equal(t, "Gemmes", byCode[live.ID][0].Name)
	assert.Empty(t, byCode[forever.ID])

	active, err := promo.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "LIVE", active[0].Code)
	assert.Equal(t, "FOREVER", active[1].Code)

	changed, err := promo.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	old, err := codes.Get(ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, old.Active)

	require.NoError(t, codes.Delete(ctx, live.ID))
	byCode, err = rewards.GetByCodes(ctx, []uuid.UUID{live.ID})
	require.NoError(t, err)
	assert.Empty(t, byCode[live.ID], "rewards cascade with their code")
}

func TestAdminRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := repository.NewAdminRepository(db)

	admin := &models.AdminUser{Email: " Admin@Arise.gg ", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, admin))

	got, err := repo.GetByEmail(ctx, "admin@arise.gg")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
	assert.Nil(t, got.LastLoginAt)

	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastLogin(ctx, admin.ID, at))
	got, err = repo.GetByEmail(ctx, "ADMIN@arise.gg")
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, at.Equal(*got.LastLoginAt))

	_, err = repo.GetByEmail(ctx, "nobody@arise.gg")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestLogRepository_SaveLog(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewLogRepository(db)

	require.NoError(t, repo.SaveLog(logging.LogEntry{
		Component: "entity",
		Level:     "INFO",
		Message:   "Created",
		Fields:    map[string]interface{}{"entity": "armes"},
		Entity:    "armes",
		EntityID:  "1",
	}))

	logs, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "armes", logs[0].Entity)
	assert.Equal(t, "armes", logs[0].Fields["entity"])
}
