// Package alert watches for stoppages that stay open past a configured
// age and pushes a one-time notification for each.
package alert

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"line-monitor-backend/config"
	"line-monitor-backend/internal/model"
	"line-monitor-backend/internal/notification"
	"line-monitor-backend/internal/store"
)

// Watcher periodically scans open stops and dispatches alerts for
// those exceeding the configured age.
type Watcher struct {
	cfg   config.AlertsConfig
	store store.Store
	pool  *notification.WorkerPool
	now   func() time.Time

	mu      sync.Mutex
	alerted map[int64]struct{}
}

// NewWatcher creates a Watcher backed by the given store and worker
// pool.
func NewWatcher(cfg config.AlertsConfig, s store.Store, pool *notification.WorkerPool) *Watcher {
	return &Watcher{
		cfg:     cfg,
		store:   s,
		pool:    pool,
		now:     time.Now,
		alerted: make(map[int64]struct{}),
	}
}

// Run starts the watch loop. It blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	if !w.cfg.Enabled {
		log.Info().Msg("open-stop alerting is disabled")
		return
	}
	log.Info().
		Dur("interval", w.cfg.Interval).
		Int("after_seconds", w.cfg.OpenStopAfterSeconds).
		Msg("starting open-stop alert watcher")

	w.pool.Start(ctx)
	w.CheckOnce(ctx)

	timer := time.NewTimer(w.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("alert watcher shutting down")
			return
		case <-timer.C:
			w.CheckOnce(ctx)
			timer.Reset(w.cfg.Interval)
		}
	}
}

// CheckOnce performs a single scan over the open stops.
func (w *Watcher) CheckOnce(ctx context.Context) {
	stops, err := w.store.OpenStops(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list open stops")
		return
	}

	now := w.now()
	for i := range stops {
		stop := &stops[i]
		age, ok := w.age(stop, now)
		if !ok || age < time.Duration(w.cfg.OpenStopAfterSeconds)*time.Second {
			continue
		}
		if w.markAlerted(stop.ID) {
			log.Info().Int64("stop", stop.ID).Dur("age", age).Msg("open stop exceeded threshold")
			w.pool.Dispatch(stop.ID)
		}
	}

	w.prune(stops)
}

// age computes how long the stop has been open.
func (w *Watcher) age(stop *model.Stop, now time.Time) (time.Duration, bool) {
	startOfDay, err := time.ParseInLocation("2006-01-02", stop.Day, now.Location())
	if err != nil {
		return 0, false
	}
	start := startOfDay.Add(time.Duration(stop.StartSeconds()) * time.Second)
	if start.After(now) {
		return 0, false
	}
	return now.Sub(start), true
}

// markAlerted records the stop and reports whether it is new.
func (w *Watcher) markAlerted(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, seen := w.alerted[id]; seen {
		return false
	}
	w.alerted[id] = struct{}{}
	return true
}

// prune forgets stops that are no longer open so a reopened record can
// alert again.
func (w *Watcher) prune(open []model.Stop) {
	stillOpen := make(map[int64]struct{}, len(open))
	for _, s := range open {
		stillOpen[s.ID] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for id := range w.alerted {
		if _, ok := stillOpen[id]; !ok {
			delete(w.alerted, id)
		}
	}
}
