package sched

import "priosched/internal/procs"

// key returns the ordering value for p under the currently configured
// algorithm: the smoothed burst estimate under SJF, cumulative execution
// time under CFS. Callers must hold pol.mu.
func (pol *Policy) key(p *procs.Process) int64 {
	if pol.algorithm == SJF {
		return p.CPUBurstAprox
	}
	return p.ExeTime
}

// heapifyUp bubbles the element at heap[n-1] toward the root while its
// key is less than its parent's. Caller must hold pol.mu.
//
// The parent of 0-indexed child curr is (curr-1)/2, not curr/2 — the
// latter is a common off-by-one that happens to land on the right
// parent for even curr but misroutes odd curr.
func (pol *Policy) heapifyUp(n int) {
	if n <= 1 {
		return
	}
	curr := n - 1
	for curr > 0 {
		parent := (curr - 1) / 2
		if pol.key(pol.heap[curr]) < pol.key(pol.heap[parent]) {
			pol.heap[curr], pol.heap[parent] = pol.heap[parent], pol.heap[curr]
			pol.setIndex(curr)
			pol.setIndex(parent)
			curr = parent
		} else {
			break
		}
	}
}

// heapifyDownFrom sinks the possibly-violating element at index i toward
// the leaves of a heap of size n, comparing both children against the
// same selected key function (mixing keys between the two children
// would break the heap property whenever the algorithm is CFS). Caller
// must hold pol.mu.
func (pol *Policy) heapifyDownFrom(i, n int) {
	if n <= 1 {
		return
	}
	curr := i
	for {
		left, right := curr*2+1, curr*2+2
		smallest := curr
		if left < n && pol.key(pol.heap[left]) < pol.key(pol.heap[smallest]) {
			smallest = left
		}
		if right < n && pol.key(pol.heap[right]) < pol.key(pol.heap[smallest]) {
			smallest = right
		}
		if smallest == curr {
			return
		}
		pol.heap[curr], pol.heap[smallest] = pol.heap[smallest], pol.heap[curr]
		pol.setIndex(curr)
		pol.setIndex(smallest)
		curr = smallest
	}
}

// rearrange re-heapifies the whole array under whatever key function is
// currently selected, used after a policy change. Caller must hold
// pol.mu.
func (pol *Policy) rearrange(n int) {
	for i := n/2 - 1; i >= 0; i-- {
		pol.heapifyDownFrom(i, n)
	}
}

func (pol *Policy) setIndex(i int) {
	pol.heap[i].SetHeapIndex(i)
}
