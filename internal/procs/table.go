package procs

import (
	"errors"
	"sync"
)

// ErrNoFreeProc mirrors allocproc's "no free PCB" failure: a resource
// exhaustion condition, not an invariant violation, so it is returned
// rather than panicked.
var ErrNoFreeProc = errors.New("procs: no free process slot")

// Table is the fixed-size process table, the pid allocator, and the
// wait_lock-guarded parent/child bookkeeping. Grounded on proc.c's
// proc[NPROC] array, pid_lock/nextpid, and wait_lock/reparent.
type Table struct {
	pidMu   sync.Mutex
	nextPID int

	WaitLock sync.Mutex

	mu    sync.Mutex
	slots []*Process

	Init *Process
}

// NewTable allocates a table of n UNUSED slots, each already wired with
// its channels; AllocProc starts a slot's goroutine when it claims it.
func NewTable(n int, bodies ...Body) *Table {
	t := &Table{nextPID: 1, slots: make([]*Process, n)}
	for i := range t.slots {
		var b Body
		if i < len(bodies) {
			b = bodies[i]
		}
		t.slots[i] = NewProcess(b)
	}
	return t
}

func (t *Table) allocPID() int {
	t.pidMu.Lock()
	defer t.pidMu.Unlock()
	pid := t.nextPID
	t.nextPID++
	return pid
}

// AllocProc scans for an UNUSED slot, stamps it with a fresh pid and
// zeroed scheduling fields, and returns it with its lock held, mirroring
// allocproc's contract. Returns ErrNoFreeProc if the table is full.
func (t *Table) AllocProc(body Body) (*Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range t.slots {
		p.Lock.Lock()
		if p.State == Unused {
			p.PID = t.allocPID()
			p.State = Used
			p.CPUBurst = 0
			p.CPUBurstAprox = 0
			p.ExeTime = 0
			p.PutTimestamp = 0
			p.Timeslice = 0
			p.ChanKey = 0
			p.Killed = false
			p.XState = 0
			p.Parent = nil
			p.body = body
			p.Start()
			return p, nil
		}
		p.Lock.Unlock()
	}
	return nil, ErrNoFreeProc
}

// FreeProc returns p to UNUSED and clears its scheduling fields.
// Caller must hold p.Lock.
func (t *Table) FreeProc(p *Process) {
	p.PID = 0
	p.Parent = nil
	p.ChanKey = 0
	p.Killed = false
	p.XState = 0
	p.State = Unused
	p.CPUBurstAprox = 0
	p.CPUBurst = 0
	p.Timeslice = 0
	p.PutTimestamp = 0
	p.ExeTime = 0
}

// Reparent reassigns any child of p to the init process, under WaitLock.
func (t *Table) Reparent(p *Process, wake func(*Process)) {
	for _, pp := range t.slots {
		if pp.Parent == p {
			pp.Parent = t.Init
			if wake != nil {
				wake(t.Init)
			}
		}
	}
}

// Processes returns the live slice of process handles, for scans that
// need to walk the whole table (wait, wakeup, kill).
func (t *Table) Processes() []*Process { return t.slots }
