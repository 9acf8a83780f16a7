package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magicaleks/freq-server/internal/domain"
	"github.com/magicaleks/freq-server/internal/impls"
)

// Gate owns the service state and the frequency pool. Every transition and
// every pool access happens under mu, so "is running" and the pool mutation
// are observed together.
type Gate struct {
	mu        sync.Mutex
	state     domain.ServiceState
	pool      impls.FrequencyPool
	epoch     uint64
	startedAt time.Time
	logger    *slog.Logger
	now       func() time.Time
}

func NewGate(pool impls.FrequencyPool, logger *slog.Logger) *Gate {
	return &Gate{
		state:  domain.StateStopped,
		pool:   pool,
		logger: logger,
		now:    time.Now,
	}
}

func (g *Gate) Start(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == domain.StateRunning {
		return domain.ErrAlreadyStarted{}
	}
	g.state = domain.StateRunning
	g.epoch++
	g.startedAt = g.now()
	g.logger.Info("frequency server started", "epoch", g.epoch, "capacity", g.pool.Capacity())
	return nil
}

// Stop discards every outstanding allocation; the next start begins empty.
func (g *Gate) Stop(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != domain.StateRunning {
		return domain.ErrNotRunning{}
	}
	dropped := len(g.pool.Allocated())
	g.pool.Reset()
	g.state = domain.StateStopped
	g.startedAt = time.Time{}
	g.logger.Info("frequency server stopped", "epoch", g.epoch, "dropped", dropped)
	return nil
}

func (g *Gate) Allocate(_ context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != domain.StateRunning {
		return 0, domain.ErrNotRunning{}
	}
	f, err := g.pool.Allocate()
	if err != nil {
		return 0, err
	}
	g.logger.Debug("frequency allocated", "frequency", f, "available", g.pool.Available())
	return f, nil
}

func (g *Gate) Deallocate(_ context.Context, frequency int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != domain.StateRunning {
		return domain.ErrNotRunning{}
	}
	if err := g.pool.Release(frequency); err != nil {
		return err
	}
	g.logger.Debug("frequency released", "frequency", frequency, "available", g.pool.Available())
	return nil
}

func (g *Gate) State() domain.ServiceState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) Snapshot() domain.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	return domain.Snapshot{
		State:     g.state,
		Allocated: g.pool.Allocated(),
		Capacity:  g.pool.Capacity(),
		Available: g.pool.Available(),
		Epoch:     g.epoch,
		StartedAt: g.startedAt,
	}
}
