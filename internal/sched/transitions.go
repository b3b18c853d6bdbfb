package sched

import (
	"sync"
	"time"

	"priosched/internal/procs"
)

// putLocked performs the enqueue statistics update and heap insertion.
// Caller must already hold p.Lock; putLocked takes Policy.mu itself.
//
// The smoothing predicate is evaluated against p's own state at the
// moment of enqueue; see DESIGN.md for why.
func (s *Scheduler) putLocked(p *procs.Process) {
	s.Policy.mu.Lock()

	if p.State != procs.Running {
		p.CPUBurstAprox = (s.Policy.a*p.CPUBurst + (100-s.Policy.a)*p.CPUBurstAprox) / 100
	}
	if p.State == procs.Running {
		p.ExeTime += p.CPUBurst
	} else {
		p.ExeTime = 0
	}

	p.PutTimestamp = s.Clock.Count()
	p.State = procs.Runnable

	// put/get are the only sanctioned entry points into the heap; a
	// process already present (e.g. the CPU loop's defensive re-put
	// racing yieldCPU's own put) is left in place rather than
	// duplicated, preserving the no-duplicate-entries invariant.
	if !p.InHeap() {
		s.Policy.heap = append(s.Policy.heap, p)
		p.SetHeapIndex(len(s.Policy.heap) - 1)
		p.SetInHeap(true)
		s.Policy.heapifyUp(len(s.Policy.heap))
	}

	key := s.Policy.key(p)
	algo := s.Policy.algorithm
	s.Policy.mu.Unlock()

	s.Events.Emit(Event{Time: time.Now(), Kind: EventEnqueue, PID: p.PID, Algorithm: algo, Key: key})
}

// Put enqueues p as RUNNABLE, acquiring p.Lock itself. Split from
// putLocked per the original's suggested re-architecture: callers that
// already hold p.Lock (yieldCPU, wakeup, kill) call putLocked directly
// instead of probing lock ownership.
func (s *Scheduler) Put(p *procs.Process) {
	p.Lock.Lock()
	s.putLocked(p)
	p.Lock.Unlock()
}

// Get dequeues the minimum-key RUNNABLE process, or reports ok=false if
// the heap is empty.
func (s *Scheduler) Get() (*procs.Process, bool) {
	pol := s.Policy
	pol.mu.Lock()

	if len(pol.heap) == 0 {
		pol.mu.Unlock()
		return nil, false
	}

	ret := pol.heap[0]
	ret.CPUBurst = 0
	last := len(pol.heap) - 1
	pol.heap[0] = pol.heap[last]
	pol.heap = pol.heap[:last]
	ret.SetInHeap(false)
	if len(pol.heap) > 0 {
		pol.heap[0].SetHeapIndex(0)
	}
	pol.heapifyDownFrom(0, len(pol.heap))

	if pol.algorithm == CFS {
		denom := int64(len(pol.heap)) + 1
		ts := (s.Clock.Count() - ret.PutTimestamp) / denom
		if ts < 1 {
			ts = 1
		}
		ret.Timeslice = ts
	} else {
		ret.Timeslice = 0
	}

	key := pol.key(ret)
	algo := pol.algorithm
	pol.mu.Unlock()

	s.Events.Emit(Event{Time: time.Now(), Kind: EventDispatch, PID: ret.PID, Algorithm: algo, Key: key})
	return ret, true
}

// Yield is the voluntary-relinquishment transition: p re-enqueues itself
// (folding in its accumulated burst) and hands control back to whichever
// CPU dispatched it.
func (s *Scheduler) Yield(p *procs.Process) {
	p.Lock.Lock()
	s.putLocked(p)
	p.Lock.Unlock()
	p.ParkSelf()
}

// Sleep atomically releases external and blocks p on chanKey until a
// matching Wakeup. external is typically a collaborator lock the caller
// held before calling Sleep (e.g. Table.WaitLock).
func (s *Scheduler) Sleep(p *procs.Process, chanKey procs.ChanKey, external *sync.Mutex) {
	p.Lock.Lock()
	external.Unlock()
	p.ChanKey = chanKey
	p.State = procs.Sleeping
	p.Lock.Unlock()

	s.Events.Emit(Event{Time: time.Now(), Kind: EventSleep, PID: p.PID})
	p.ParkSelf()

	p.Lock.Lock()
	p.ChanKey = nil
	p.Lock.Unlock()
	external.Lock()
}

// Wakeup awakens every process sleeping on chanKey, excluding caller
// (the process on whose behalf Wakeup is being called, mirroring
// wakeup()'s p != myproc() skip).
func (s *Scheduler) Wakeup(caller *procs.Process, chanKey procs.ChanKey) {
	for _, p := range s.Table.Processes() {
		if p == caller {
			continue
		}
		p.Lock.Lock()
		if p.State == procs.Sleeping && p.ChanKey == chanKey {
			s.putLocked(p)
		}
		p.Lock.Unlock()
	}
	s.Events.Emit(Event{Time: time.Now(), Kind: EventWakeup, PID: pidOf(caller)})
}

// Exit terminates p: its children are reparented to init, its real
// parent is woken if waiting, and p becomes a ZOMBIE. Never returns to
// the caller's Body function in spirit — callers should return
// immediately afterward.
func (s *Scheduler) Exit(p *procs.Process, status int) {
	if p == s.Table.Init {
		abort("sched: init exiting")
		return
	}

	s.Table.WaitLock.Lock()
	s.Table.Reparent(p, func(initp *procs.Process) {
		s.Wakeup(p, initp)
	})
	if p.Parent != nil {
		s.Wakeup(p, p.Parent)
	}

	p.Lock.Lock()
	p.XState = status
	p.State = procs.Zombie
	p.Lock.Unlock()
	s.Table.WaitLock.Unlock()

	s.Events.Emit(Event{Time: time.Now(), Kind: EventExit, PID: p.PID, RanTicks: int64(status)})
	p.ParkForGood()
}

// Wait blocks the calling process p until a child exits, returning its
// pid. Returns ErrNoChildren if p has no children, ErrKilled if p was
// killed while waiting.
func (s *Scheduler) Wait(p *procs.Process) (int, error) {
	s.Table.WaitLock.Lock()
	for {
		haveKids := false
		for _, np := range s.Table.Processes() {
			if np.Parent != p {
				continue
			}
			np.Lock.Lock()
			haveKids = true
			if np.State == procs.Zombie {
				pid := np.PID
				s.Table.FreeProc(np)
				np.Lock.Unlock()
				s.Table.WaitLock.Unlock()
				return pid, nil
			}
			np.Lock.Unlock()
		}

		p.Lock.Lock()
		killed := p.Killed
		p.Lock.Unlock()

		if !haveKids {
			s.Table.WaitLock.Unlock()
			return -1, ErrNoChildren
		}
		if killed {
			s.Table.WaitLock.Unlock()
			return -1, ErrKilled
		}

		s.Sleep(p, p, &s.Table.WaitLock)
	}
}

// Kill marks the process with the given pid as killed and, if it is
// sleeping, forces it RUNNABLE so it reaches the next observation point.
func (s *Scheduler) Kill(pid int) error {
	for _, p := range s.Table.Processes() {
		p.Lock.Lock()
		if p.PID == pid {
			p.Killed = true
			if p.State == procs.Sleeping {
				s.putLocked(p)
			}
			p.Lock.Unlock()
			return nil
		}
		p.Lock.Unlock()
	}
	return ErrNoSuchPID
}

func pidOf(p *procs.Process) int {
	if p == nil {
		return 0
	}
	return p.PID
}
