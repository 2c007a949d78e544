package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/hray3182/Nuhyi/internal/metrics"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/rs/zerolog/log"
)

// Sink delivers a notification to one channel.
type Sink interface {
	Name() string
	Notify(ctx context.Context, userID int64, n models.Notification) error
}

// Fanout delivers every notification to all sinks. A failing sink does not
// stop delivery to the others.
type Fanout struct {
	sinks   []Sink
	metrics *metrics.Metrics
}

func NewFanout(m *metrics.Metrics, sinks ...Sink) *Fanout {
	var kept []Sink
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Fanout{sinks: kept, metrics: m}
}

func (f *Fanout) Notify(ctx context.Context, userID int64, n models.Notification) error {
	var errs []error
	for _, s := range f.sinks {
		err := s.Notify(ctx, userID, n)
		f.metrics.NotificationSent(s.Name(), err)
		if err != nil {
			log.Warn().Err(err).Str("sink", s.Name()).Int64("user", userID).Msg("Notification delivery failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
