package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/magicaleks/freq-server/internal/impls"
)

// Publisher periodically logs pool occupancy.
type Publisher struct {
	source   impls.SnapshotSource
	logger   *slog.Logger
	interval time.Duration
}

func NewPublisher(source impls.SnapshotSource, logger *slog.Logger, interval time.Duration) *Publisher {
	return &Publisher{
		source:   source,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the loop in the background until ctx is done. A non-positive
// interval disables publishing.
func (p *Publisher) Start(ctx context.Context) {
	if p.interval <= 0 {
		return
	}
	go p.loop(ctx)
}

func (p *Publisher) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publish()
		}
	}
}

func (p *Publisher) publish() {
	snap := p.source.Snapshot()
	p.logger.Info("frequency pool stats",
		"state", snap.State,
		"allocated", len(snap.Allocated),
		"available", snap.Available,
		"capacity", snap.Capacity,
		"epoch", snap.Epoch,
	)
}
