package impls

import "github.com/magicaleks/freq-server/internal/domain"

// SnapshotSource returns the current state of the frequency server.
type SnapshotSource interface {
	Snapshot() domain.Snapshot
}
