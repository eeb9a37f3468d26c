package changefeed

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Source reports a value that changes whenever the records of Category change.
type Source struct {
	Category    Category
	Fingerprint func(ctx context.Context) (string, error)
}

// Monitor polls sources and publishes an event when a fingerprint moves. It
// catches writes that bypass this process, e.g. another instance or a SQL console.
type Monitor struct {
	pub      Publisher
	sources  []Source
	interval time.Duration
	log      logrus.FieldLogger
	last     map[Category]string
}

func NewMonitor(pub Publisher, interval time.Duration, log logrus.FieldLogger, sources ...Source) *Monitor {
	return &Monitor{
		pub:      pub,
		sources:  sources,
		interval: interval,
		log:      log,
		last:     make(map[Category]string),
	}
}

// Run polls until ctx is cancelled. The first poll records a baseline and
// publishes nothing.
func (m *Monitor) Run(ctx context.Context) {
	m.poll(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	for _, src := range m.sources {
		fp, err := src.Fingerprint(ctx)
		if err != nil {
			if ctx.Err() == nil {
				m.log.WithError(err).WithField("category", src.Category).Warn("change monitor: fingerprint failed")
			}
			continue
		}
		prev, seen := m.last[src.Category]
		m.last[src.Category] = fp
		if seen && prev != fp {
			m.log.WithField("category", src.Category).Debug("change monitor: change detected")
			m.pub.Publish(Event{Category: src.Category})
		}
	}
}
