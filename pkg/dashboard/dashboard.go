// Package dashboard gathers the admin home page statistics.
package dashboard

import (
	"context"
	"time"

	"github.com/latoulicious/arise-companion/pkg/activity"
	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/jobs"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// RecentLimit is the number of activity events shown
const RecentLimit = 10

// Counter counts the rows of one entity
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// JobStatus reports the state of a background job
type JobStatus interface {
	Status() jobs.Status
}

type source struct {
	name    string
	counter Counter
}

// Stats is the dashboard payload
type Stats struct {
	Counts      map[string]int64 `json:"counts"`
	Total       int64            `json:"total"`
	Recent      []activity.Event `json:"recent"`
	Jobs        []jobs.Status    `json:"jobs"`
	GeneratedAt time.Time        `json:"generated_at"`
}

type Service struct {
	sources  []source
	activity *activity.Log
	jobs     []JobStatus
	now      func() time.Time
	logger   logging.Logger
}

func NewService(log *activity.Log, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{activity: log, now: time.Now, logger: logger}
}

// Count registers a counted entity under name
func (s *Service) Count(name string, c Counter) *Service {
	s.sources = append(s.sources, source{name: name, counter: c})
	return s
}

// Job registers a background job shown on the dashboard
func (s *Service) Job(j JobStatus) *Service {
	s.jobs = append(s.jobs, j)
	return s
}

// Stats counts every registered entity concurrently. The first failure
// cancels the remaining counts.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts := make([]int64, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, src := range s.sources {
		i, src := i, src
		g.Go(func() error {
			n, err := src.counter.Count(gctx)
			if err != nil {
				s.logger.Error("Failed to count", err, map[string]interface{}{"entity": src.name})
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperror.Wrap(apperror.KindUnknown, err, "Impossible de charger les statistiques")
	}

	stats := &Stats{
		Counts:      make(map[string]int64, len(s.sources)),
		Recent:      []activity.Event{},
		Jobs:        make([]jobs.Status, 0, len(s.jobs)),
		GeneratedAt: s.now(),
	}
	for i, src := range s.sources {
		stats.Counts[src.name] = counts[i]
		stats.Total += counts[i]
	}
	if s.activity != nil {
		stats.Recent = s.activity.Recent(RecentLimit)
	}
	for _, j := range s.jobs {
		stats.Jobs = append(stats.Jobs, j.Status())
	}
	return stats, nil
}
