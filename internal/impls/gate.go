package impls

import (
	"context"

	"github.com/magicaleks/freq-server/internal/domain"
)

// LifecycleGate serializes lifecycle transitions and pool access.
type LifecycleGate interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Allocate(ctx context.Context) (int, error)
	Deallocate(ctx context.Context, frequency int) error
	State() domain.ServiceState
	Snapshot() domain.Snapshot
}
