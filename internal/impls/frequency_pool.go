package impls

// FrequencyPool tracks which frequencies of a band are handed out.
// Implementations are not required to be safe for concurrent use.
type FrequencyPool interface {
	Allocate() (int, error)
	Release(frequency int) error
	Reset()
	Allocated() []int
	Capacity() int
	Available() int
}
