package alarm

import (
	"context"
	"fmt"
	"time"

	"github.com/hray3182/Nuhyi/internal/metrics"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/rs/zerolog/log"
)

// Store persists pending alarms. Names are unique per user.
// ClaimLease is how long an alarm returned by ListDue stays hidden from other
// runners. An alarm whose handler never finished fires again after it.
const ClaimLease = time.Minute

// Store persists pending alarms. ListDue claims what it returns: the alarms
// keep their original FireAt in the result but are not due again until
// ClaimLease has passed, unless saved anew.
type Store interface {
	Save(ctx context.Context, a models.Alarm) error
	Delete(ctx context.Context, userID int64, id models.AlarmID) error
	ListByUser(ctx context.Context, userID int64) ([]models.Alarm, error)
	ListDue(ctx context.Context, now time.Time) ([]models.Alarm, error)
}

// Handler is invoked once per fired alarm.
type Handler func(ctx context.Context, a models.Alarm) error

// Runner is a persistent named-timer facility. Alarms are created with a
// delay relative to the runner's clock and dispatched sequentially from a
// single goroutine.
type Runner struct {
	store    Store
	handler  Handler
	metrics  *metrics.Metrics
	clock    func() time.Time
	interval time.Duration
	notifyCh chan struct{}
}

type Option func(*Runner)

func WithClock(clock func() time.Time) Option {
	return func(r *Runner) { r.clock = clock }
}

func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func New(store Store, opts ...Option) *Runner {
	r := &Runner{
		store:    store,
		clock:    time.Now,
		interval: 15 * time.Second,
		notifyCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetHandler installs the dispatch function. It must be called before Start.
func (r *Runner) SetHandler(h Handler) {
	r.handler = h
}

// Create installs an alarm, replacing any pending alarm with the same id.
func (r *Runner) Create(ctx context.Context, userID int64, id models.AlarmID, opts models.AlarmOptions) error {
	now := r.clock()
	a := models.Alarm{
		UserID:    userID,
		ID:        id,
		Name:      id.String(),
		FireAt:    now.Add(opts.Delay),
		Period:    opts.Period,
		CreatedAt: now,
	}
	if err := r.store.Save(ctx, a); err != nil {
		return fmt.Errorf("failed to save alarm %s: %w", id, err)
	}
	if opts.Delay < r.interval {
		r.Notify()
	}
	return nil
}

// Clear removes a pending alarm. Clearing an absent alarm is a no-op.
func (r *Runner) Clear(ctx context.Context, userID int64, id models.AlarmID) error {
	if err := r.store.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to clear alarm %s: %w", id, err)
	}
	return nil
}

func (r *Runner) List(ctx context.Context, userID int64) ([]models.Alarm, error) {
	alarms, err := r.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alarms: %w", err)
	}
	for i := range alarms {
		alarms[i].Name = alarms[i].ID.String()
	}
	return alarms, nil
}

// Notify triggers an immediate check. Non-blocking if a check is already pending.
func (r *Runner) Notify() {
	select {
	case r.notifyCh <- struct{}{}:
	default:
	}
}

func (r *Runner) Start(ctx context.Context) {
	log.Info().Dur("interval", r.interval).Msg("Alarm runner started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunDue(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Alarm runner stopped")
			return
		case <-ticker.C:
			r.RunDue(ctx)
		case <-r.notifyCh:
			r.RunDue(ctx)
		}
	}
}

// RunDue fires every alarm whose time has come and returns how many were
// dispatched. One-shot alarms are removed before their handler runs so the
// handler may install a new alarm under the same id. Periodic alarms are
// moved to their next fire time past now.
func (r *Runner) RunDue(ctx context.Context) int {
	now := r.clock()
	due, err := r.store.ListDue(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list due alarms")
		return 0
	}

	fired := 0
	for _, a := range due {
		if ctx.Err() != nil {
			break
		}
		a.Name = a.ID.String()

		if a.IsPeriodic() {
			next := a
			next.FireAt = NextPeriodicFire(a.FireAt, a.Period, now)
			if err := r.store.Save(ctx, next); err != nil {
				log.Error().Err(err).Int64("user", a.UserID).Str("alarm", a.Name).Msg("Failed to advance periodic alarm")
				continue
			}
		} else if err := r.store.Delete(ctx, a.UserID, a.ID); err != nil {
			log.Error().Err(err).Int64("user", a.UserID).Str("alarm", a.Name).Msg("Failed to consume alarm")
			continue
		}

		fired++
		r.metrics.AlarmFired(string(a.ID.Kind))
		if r.handler == nil {
			continue
		}
		if err := r.handler(ctx, a); err != nil {
			r.metrics.AlarmFailed(string(a.ID.Kind))
			log.Warn().Err(err).Int64("user", a.UserID).Str("alarm", a.Name).Msg("Alarm handler failed")
		}
	}
	return fired
}

// NextPeriodicFire returns the first fire time after now on the grid
// fireAt + k*period.
func NextPeriodicFire(fireAt time.Time, period time.Duration, now time.Time) time.Time {
	if period <= 0 {
		return fireAt
	}
	next := fireAt.Add(period)
	if !next.After(now) {
		skipped := now.Sub(next)/period + 1
		next = next.Add(skipped * period)
	}
	return next
}
