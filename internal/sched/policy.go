package sched

import (
	"sync"

	"priosched/internal/procs"
)

// Algorithm selects the scheduling policy's ordering key.
type Algorithm int

const (
	SJF Algorithm = 0
	CFS Algorithm = 1
)

func (a Algorithm) String() string {
	if a == SJF {
		return "SJF"
	}
	return "CFS"
}

// Policy is the process-wide scheduler singleton: the heap plus the
// knobs that decide its ordering. Grounded on struct sched_policy.
type Policy struct {
	mu sync.Mutex

	heap         []*procs.Process
	algorithm    Algorithm
	isPreemptive bool
	a            int64 // smoothing coefficient, percent, 0..100
}

// NewPolicy builds the boot-time singleton: SJF, non-preemptive, a=50,
// empty heap, matching struct proc_sched's static initializer.
func NewPolicy(capacity int) *Policy {
	return &Policy{
		heap:         make([]*procs.Process, 0, capacity),
		algorithm:    SJF,
		isPreemptive: false,
		a:            50,
	}
}

// Snapshot is a read-only view of the policy's knobs, used by the timer
// routine and the CLI without exposing the heap itself.
type Snapshot struct {
	Algorithm    Algorithm
	IsPreemptive bool
	A            int64
	HeapSize     int
}

func (pol *Policy) snapshot() Snapshot {
	return Snapshot{
		Algorithm:    pol.algorithm,
		IsPreemptive: pol.isPreemptive,
		A:            pol.a,
		HeapSize:     len(pol.heap),
	}
}

// Snapshot returns the current policy knobs and heap size.
func (pol *Policy) Snapshot() Snapshot {
	pol.mu.Lock()
	defer pol.mu.Unlock()
	return pol.snapshot()
}

// Bad argument return codes for ChangeSched, matching chsched's contract.
const (
	StatusOK           = 0
	StatusBadAlgorithm = -2
	StatusBadAlpha     = -3
)

// ChangeSched validates and installs a new policy triple, then
// re-heapifies under the new key. algorithm must be 0 or 1, isPreemptive
// must be non-negative, and when algorithm is SJF, a must be in [0,100].
func (pol *Policy) ChangeSched(algorithm int, isPreemptive int, a int64) int {
	if algorithm < 0 || algorithm > 1 || isPreemptive < 0 {
		return StatusBadAlgorithm
	}
	if algorithm == int(SJF) && (a < 0 || a > 100) {
		return StatusBadAlpha
	}

	pol.mu.Lock()
	defer pol.mu.Unlock()

	pol.algorithm = Algorithm(algorithm)
	pol.isPreemptive = isPreemptive != 0
	pol.a = a
	pol.rearrange(len(pol.heap))

	return StatusOK
}
