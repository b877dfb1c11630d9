package metrics

import (
	"context"
)

// Updater recomputes gauge totals when triggered by API activity.
type Updater struct {
	reporter *PrometheusReporter
	collect  func() Totals
	trigger  chan struct{}
}

// NewUpdater creates an updater over the given collect func.
func NewUpdater(reporter *PrometheusReporter, collect func() Totals) *Updater {
	return &Updater{
		reporter: reporter,
		collect:  collect,
		// buffered channel to avoid blocking and all we need to know is that "something"
		// has happened whilst we were busy
		trigger: make(chan struct{}, 1),
	}
}

// Start runs the update loop until ctx is done.
func (u *Updater) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-u.trigger:
				u.UpdateMetrics()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Trigger requests a recomputation. Never blocks.
func (u *Updater) Trigger() {
	select {
	case u.trigger <- struct{}{}:
	default:
		// channel is full, so we don't need to do anything
	}
}

// UpdateMetrics recomputes and reports the totals immediately.
func (u *Updater) UpdateMetrics() {
	u.reporter.ReportTotals(u.collect())
}
