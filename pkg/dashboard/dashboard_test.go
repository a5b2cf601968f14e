package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/latoulicious/arise-companion/pkg/activity"
	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/jobs"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter struct {
	n     int64
	err   error
	calls atomic.Int32
}

func (f *fixedCounter) Count(context.Context) (int64, error) {
	f.calls.Add(1)
	return f.n, f.err
}

type staticJob struct{ status jobs.Status }

func (j staticJob) Status() jobs.Status { return j.status }

func TestStats_CountsEveryEntity(t *testing.T) {
	log := activity.New(5)
	log.Record("armes", "create", "1", "Dague")

	svc := NewService(log, logging.Nop()).
		Count("hunters", &fixedCounter{n: 12}).
		Count("armes", &fixedCounter{n: 30}).
		Count("ombres", &fixedCounter{n: 0}).
		Job(staticJob{jobs.Status{Name: "promo-expiry", Schedule: "@hourly"}})

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"hunters": 12, "armes": 30, "ombres": 0}, stats.Counts)
	assert.Equal(t, int64(42), stats.Total)
	require.Len(t, stats.Recent, 1)
	assert.Equal(t, "Dague", stats.Recent[0].Name)
	require.Len(t, stats.Jobs, 1)
	assert.Equal(t, "@hourly", stats.Jobs[0].Schedule)
}

func TestStats_FailureIsClassified(t *testing.T) {
	svc := NewService(nil, logging.Nop()).
		Count("hunters", &fixedCounter{n: 1}).
		Count("armes", &fixedCounter{err: errors.New("db down")})

	_, err := svc.Stats(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUnknown))
}
