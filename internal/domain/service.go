package domain

import (
	"encoding/xml"
	"time"
)

type ServiceState string

const (
	StateStopped ServiceState = "stopped"
	StateRunning ServiceState = "running"
)

// Snapshot is a point-in-time view of the lifecycle gate and its pool.
type Snapshot struct {
	XMLName   xml.Name     `json:"-" xml:"freqServerStatus"`
	State     ServiceState `json:"state" xml:"state"`
	Allocated []int        `json:"allocated" xml:"allocated>frequency"`
	Capacity  int          `json:"capacity" xml:"capacity"`
	Available int          `json:"available" xml:"available"`
	// Epoch counts successful starts since the process came up.
	Epoch     uint64    `json:"epoch" xml:"epoch"`
	StartedAt time.Time `json:"startedAt,omitempty" xml:"startedAt,omitempty"`
}
