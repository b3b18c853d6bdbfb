package sched

import (
	"fmt"

	"github.com/emirpasic/gods/trees/redblacktree"

	"priosched/internal/procs"
)

// rbKey orders the independent oracle the same way the heap's own key
// function does, breaking ties by pid so the oracle has a total order.
type rbKey struct {
	key int64
	pid int
}

func rbCmp(a, b any) int {
	ka, kb := a.(rbKey), b.(rbKey)
	switch {
	case ka.key < kb.key:
		return -1
	case ka.key > kb.key:
		return 1
	case ka.pid < kb.pid:
		return -1
	case ka.pid > kb.pid:
		return 1
	default:
		return 0
	}
}

// VerifyHeapOrder checks the policy heap's min-heap property directly
// (every parent's key <= its children's) and cross-checks it against an
// independently sorted red-black tree built from the same entries, used
// only as an oracle for the array heap's invariants. Intended
// for tests and optional runtime assertions, not the hot dispatch path.
func (pol *Policy) VerifyHeapOrder() error {
	pol.mu.Lock()
	defer pol.mu.Unlock()

	n := len(pol.heap)
	rbt := redblacktree.NewWith(rbCmp)
	for _, p := range pol.heap {
		rbt.Put(rbKey{pol.key(p), p.PID}, p)
	}
	if rbt.Size() != n {
		return fmt.Errorf("sched: heap has duplicate pid entries: %d slots, %d distinct", n, rbt.Size())
	}

	for i := 0; i < n; i++ {
		left, right := 2*i+1, 2*i+2
		if left < n && pol.key(pol.heap[i]) > pol.key(pol.heap[left]) {
			return fmt.Errorf("sched: heap property violated at %d/%d (left)", i, left)
		}
		if right < n && pol.key(pol.heap[i]) > pol.key(pol.heap[right]) {
			return fmt.Errorf("sched: heap property violated at %d/%d (right)", i, right)
		}
	}

	it := rbt.Iterator()
	prev := int64(-1 << 62)
	for it.Next() {
		k := it.Key().(rbKey)
		if k.key < prev {
			return fmt.Errorf("sched: oracle ordering regressed: %d after %d", k.key, prev)
		}
		prev = k.key
	}

	return nil
}

// sortedByKey is a test convenience: the pids in ascending key order,
// read via the same red-black oracle.
func (pol *Policy) sortedByKey() []int {
	pol.mu.Lock()
	defer pol.mu.Unlock()

	rbt := redblacktree.NewWith(rbCmp)
	for _, p := range pol.heap {
		rbt.Put(rbKey{pol.key(p), p.PID}, p)
	}
	out := make([]int, 0, rbt.Size())
	it := rbt.Iterator()
	for it.Next() {
		out = append(out, it.Value().(*procs.Process).PID)
	}
	return out
}
