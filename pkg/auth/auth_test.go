package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/auth"
	"github.com/latoulicious/arise-companion/pkg/database/dbtest"
	"github.com/latoulicious/arise-companion/pkg/database/repository"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var secret = []byte(strings.Repeat("s", 32))

func newService(t *testing.T, now func() time.Time) *auth.Service {
	svc, err := auth.NewService(repository.NewAdminRepository(dbtest.Open(t)), auth.Config{
		Secret:     secret,
		TTL:        time.Hour,
		BcryptCost: bcrypt.MinCost,
		Now:        now,
	}, logging.Nop())
	require.NoError(t, err)
	return svc
}

func TestLoginAndVerify(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	svc := newService(t, func() time.Time { return now })

	admin, err := svc.CreateAdmin(ctx, "Admin@Arise.gg", "motdepasse")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "admin@arise.gg", "motdepasse")
	require.NoError(t, err)
	assert.Equal(t, admin.ID.String(), session.AdminID)
	assert.Equal(t, now.Add(time.Hour).Unix(), session.ExpiresAt.Unix())

	claims, err := svc.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID.String(), claims.Subject)
	assert.Equal(t, "admin@arise.gg", claims.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	_, err := svc.CreateAdmin(ctx, "admin@arise.gg", "motdepasse")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "admin@arise.gg", "mauvais")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = svc.Login(ctx, "inconnu@arise.gg", "motdepasse")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
	assert.Equal(t, "Identifiants invalides", err.Error())
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	svc := newService(t, func() time.Time { return now })
	_, err := svc.CreateAdmin(ctx, "admin@arise.gg", "motdepasse")
	require.NoError(t, err)
	session, err := svc.Login(ctx, "admin@arise.gg", "motdepasse")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = svc.Verify(session.Token)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = svc.Verify("not-a-token")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
	_, err = svc.Verify("")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestCreateAdminValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	_, err := svc.CreateAdmin(ctx, "pas-un-email", "motdepasse")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = svc.CreateAdmin(ctx, "admin@arise.gg", "court")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.CreateAdmin(ctx, "admin@arise.gg", "motdepasse")
	require.NoError(t, err)
	_, err = svc.CreateAdmin(ctx, "ADMIN@arise.gg", "motdepasse")
	assert.True(t, apperror.Is(err, apperror.KindDuplicate))
}

func TestNewServiceRequiresLongSecret(t *testing.T) {
	_, err := auth.NewService(nil, auth.Config{Secret: []byte("short")}, nil)
	assert.Error(t, err)
}
