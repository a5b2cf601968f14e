// Package jobs runs the periodic maintenance tasks of the content service.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/robfig/cron/v3"
)

// DefaultPromoExpirySchedule runs the sweep at the top of every hour
const DefaultPromoExpirySchedule = "@hourly"

// PromoDeactivator flags expired promo codes as inactive
type PromoDeactivator interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// PromoExpiry deactivates promo codes whose expiry date has passed on a cron
// schedule. It mirrors the status surface of a cron manager: schedule, next
// run and whether a sweep is running.
type PromoExpiry struct {
	repo     PromoDeactivator
	schedule string
	timeout  time.Duration
	now      func() time.Time
	logger   logging.Logger

	mu       sync.Mutex
	cron     *cron.Cron
	entryID  cron.EntryID
	running  bool
	lastRun  time.Time
	lastErr  error
	disabled int64
}

func NewPromoExpiry(repo PromoDeactivator, schedule string, logger logging.Logger) *PromoExpiry {
	if schedule == "" {
		schedule = DefaultPromoExpirySchedule
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &PromoExpiry{
		repo:     repo,
		schedule: schedule,
		timeout:  time.Minute,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the clock used to decide expiry
func (j *PromoExpiry) WithClock(now func() time.Time) *PromoExpiry {
	j.now = now
	return j
}

// Start registers the sweep and starts the scheduler
func (j *PromoExpiry) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cron != nil {
		return fmt.Errorf("promo expiry job already started")
	}

	c := cron.New(cron.WithChain(cron.Recover(cronLogger{j.logger})))
	id, err := c.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			j.logger.Error("Scheduled promo expiry sweep failed", err, nil)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid promo expiry schedule %q: %w", j.schedule, err)
	}

	j.cron = c
	j.entryID = id
	c.Start()

	j.logger.Info("Promo expiry job started", map[string]interface{}{
		"schedule": j.schedule,
		"next_run": c.Entry(id).Next,
	})
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish or ctx to expire
func (j *PromoExpiry) Stop(ctx context.Context) {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
		j.logger.Info("Promo expiry job stopped", nil)
	case <-ctx.Done():
		j.logger.Warn("Promo expiry job did not stop in time", nil)
	}
}

// Run performs one sweep now and returns how many codes were deactivated
func (j *PromoExpiry) Run(ctx context.Context) (int64, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		j.logger.Warn("Promo expiry sweep skipped, previous run still active", nil)
		return 0, nil
	}
	j.running = true
	j.mu.Unlock()

	now := j.now().UTC()
	changed, err := j.repo.DeactivateExpired(ctx, now)

	j.mu.Lock()
	j.running = false
	j.lastRun = now
	j.lastErr = err
	if err == nil {
		j.disabled += changed
	}
	j.mu.Unlock()

	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired promo codes: %w", err)
	}
	if changed > 0 {
		j.logger.Info("Expired promo codes deactivated", map[string]interface{}{"count": changed})
	}
	return changed, nil
}

// Status is a snapshot of the job for the admin dashboard
type Status struct {
	Name        string    `json:"name"`
	Schedule    string    `json:"schedule"`
	Scheduled   bool      `json:"scheduled"`
	Running     bool      `json:"running"`
	NextRun     time.Time `json:"next_run,omitempty"`
	LastRun     time.Time `json:"last_run,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Deactivated int64     `json:"deactivated"`
}

func (j *PromoExpiry) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	status := Status{
		Name:        "promo-expiry",
		Schedule:    j.schedule,
		Scheduled:   j.cron != nil,
		Running:     j.running,
		LastRun:     j.lastRun,
		Deactivated: j.disabled,
	}
	if j.cron != nil {
		status.NextRun = j.cron.Entry(j.entryID).Next
	}
	if j.lastErr != nil {
		status.LastError = j.lastErr.Error()
	}
	return status
}

// cronLogger adapts the service logger to cron's logger interface
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, pairs(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, err, pairs(keysAndValues))
}

func pairs(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
