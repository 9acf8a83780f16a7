package frequency

import (
	"sort"

	"github.com/magicaleks/freq-server/internal/domain"
)

// Pool hands out frequencies from a fixed band. Released frequencies go to
// the back of the free-list so an id is not reissued right after release.
// Pool is not safe for concurrent use; the lifecycle gate serializes it.
type Pool struct {
	band      []int
	free      []int
	allocated map[int]struct{}
}

func NewPool(band []int) *Pool {
	p := &Pool{band: append([]int(nil), band...)}
	p.Reset()
	return p
}

func (p *Pool) Allocate() (int, error) {
	if len(p.free) == 0 {
		return 0, domain.ErrNoFrequency{Capacity: len(p.band)}
	}
	f := p.free[0]
	p.free = p.free[1:]
	p.allocated[f] = struct{}{}
	return f, nil
}

func (p *Pool) Release(frequency int) error {
	if _, ok := p.allocated[frequency]; !ok {
		return domain.ErrNotAllocated{Frequency: frequency}
	}
	delete(p.allocated, frequency)
	p.free = append(p.free, frequency)
	return nil
}

// Reset drops every allocation and restores the band order.
func (p *Pool) Reset() {
	p.free = append(make([]int, 0, len(p.band)), p.band...)
	p.allocated = make(map[int]struct{}, len(p.band))
}

func (p *Pool) Allocated() []int {
	out := make([]int, 0, len(p.allocated))
	for f := range p.allocated {
		out = append(out, f)
	}
	sort.Ints(out)
	return out
}

func (p *Pool) Capacity() int {
	return len(p.band)
}

func (p *Pool) Available() int {
	return len(p.free)
}
