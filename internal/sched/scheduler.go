// internal/sched/scheduler.go

package sched

import (
	"time"

	"priosched/internal/procs"
)

// Scheduler ties the process table, the policy singleton, the tick
// source, and the event log together. Grounded on proc.c's module-level
// globals (proc[NPROC], proc_sched, ticks), encapsulated per the
// "controlled module-level instance" design note rather than left as
// package globals, so tests can build independent instances.
type Scheduler struct {
	Table  *procs.Table
	Policy *Policy
	Clock  *TickClock
	Events *EventLog

	cpus []*CPU
}

// New builds a scheduler sized for cfg.NPROC processes, with the policy
// and tick source taken from cfg.
func New(cfg Config) *Scheduler {
	clock := NewTickClock(256)
	clock.Start(time.Duration(cfg.TickMS) * time.Millisecond)

	pol := NewPolicy(cfg.NPROC)
	pol.algorithm = Algorithm(cfg.Algorithm)
	pol.isPreemptive = cfg.IsPreemptive
	pol.a = int64(cfg.Alpha)

	return &Scheduler{
		Table:  procs.NewTable(cfg.NPROC),
		Policy: pol,
		Clock:  clock,
		Events: NewEventLog(256),
	}
}

// Tick is the timer routine: called by the running process's own
// goroutine at each point standing in for a timer interrupt. It blocks
// until the next real tick fires on s.Clock, so p's burst counter and
// globalTicks advance off the same clock instead of p.CPUBurst racing
// ahead of it, then accrues the burst counter and preempts when the
// policy demands it.
func (s *Scheduler) Tick(p *procs.Process) {
	s.Clock.WaitTick()

	p.Lock.Lock()
	p.CPUBurst++
	burst, slice := p.CPUBurst, p.Timeslice
	p.Lock.Unlock()

	snap := s.Policy.Snapshot()
	sliceExpired := slice != 0 && burst == slice
	sjfPreempt := snap.Algorithm == SJF && snap.IsPreemptive
	if sliceExpired || sjfPreempt {
		s.Events.Emit(Event{Time: time.Now(), Kind: EventPreempt, PID: p.PID, Algorithm: snap.Algorithm, RanTicks: burst})
		s.Yield(p)
	}
}

// UserInit allocates the first user process and enqueues it via Put,
// matching userinit's "no direct state = RUNNABLE poke" boot invariant.
func (s *Scheduler) UserInit(body procs.Body) (*procs.Process, error) {
	p, err := s.Table.AllocProc(body)
	if err != nil {
		return nil, err
	}
	s.Table.Init = p
	p.Lock.Unlock() // AllocProc returns with the lock held; nothing else to set up here
	s.Put(p)
	return p, nil
}

// Fork allocates a child of parent and enqueues it via Put, mirroring
// fork()'s tail: link under WaitLock, then put(np).
func (s *Scheduler) Fork(parent *procs.Process, body procs.Body) (*procs.Process, error) {
	child, err := s.Table.AllocProc(body)
	if err != nil {
		return nil, err
	}
	child.Lock.Unlock()

	s.Table.WaitLock.Lock()
	child.Parent = parent
	s.Table.WaitLock.Unlock()

	s.Put(child)
	return child, nil
}

// ChangeSched validates and installs a new policy triple. See
// Policy.ChangeSched for the return codes.
func (s *Scheduler) ChangeSched(algorithm, isPreemptive int, a int64) int {
	ret := s.Policy.ChangeSched(algorithm, isPreemptive, a)
	if ret == StatusOK {
		s.Events.Emit(Event{
			Time:      time.Now(),
			Kind:      EventReconfigure,
			Algorithm: Algorithm(algorithm),
			Key:       a,
		})
	}
	return ret
}
