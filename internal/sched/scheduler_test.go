package sched

import (
	"testing"

	"priosched/internal/procs"
)

// dispatchOnce drives exactly one CPU dispatch cycle by hand: pop the
// minimum-key runnable process, hand it control, and wait for it to
// relinquish the CPU (by yielding, sleeping, or exiting). Mirrors the
// body of Scheduler.run's single iteration without the idle-wait branch, so
// scheduling-order assertions don't depend on wall-clock timing.
func dispatchOnce(s *Scheduler) *procs.Process {
	p, ok := s.Get()
	if !ok {
		return nil
	}
	p.Lock.Lock()
	p.State = procs.Running
	p.Lock.Unlock()

	p.Resume() <- struct{}{}
	<-p.Done()
	return p
}

func allocAndUnlock(t *testing.T, s *Scheduler, body procs.Body) *procs.Process {
	t.Helper()
	p, err := s.Table.AllocProc(body)
	if err != nil {
		t.Fatalf("AllocProc: %v", err)
	}
	p.Lock.Unlock()
	return p
}

// A small TickMS keeps the real clock ticking fast enough that
// Scheduler.Tick's wait on it doesn't make these tests slow, while still
// exercising genuine tick-driven pacing rather than freezing the clock.
func newTestScheduler(algo Algorithm, preemptive bool, alpha int64) *Scheduler {
	s := New(Config{TickMS: 2, NPROC: 16, CPUs: 1, Algorithm: int(algo), IsPreemptive: preemptive, Alpha: float64(alpha)})
	return s
}

func TestSleepWakeupWakesSleepingProcess(t *testing.T) {
	s := newTestScheduler(SJF, false, 50)
	defer s.Clock.Stop()

	type step int
	const (
		stepSleeping step = iota
		stepExited
	)
	progress := make(chan step, 2)

	chanKey := "wake-me"
	p := allocAndUnlock(t, s, func(proc *procs.Process) {
		s.Table.WaitLock.Lock()
		s.Sleep(proc, chanKey, &s.Table.WaitLock)
		s.Table.WaitLock.Unlock()
		progress <- stepSleeping
		s.Exit(proc, 7)
	})
	s.Put(p)

	if ran := dispatchOnce(s); ran != p {
		t.Fatalf("expected pid %d to be dispatched, got %v", p.PID, ran)
	}

	p.Lock.Lock()
	state := p.State
	p.Lock.Unlock()
	if state != procs.Sleeping {
		t.Fatalf("expected process to be Sleeping after dispatch, got %s", state)
	}

	s.Wakeup(nil, chanKey)

	p.Lock.Lock()
	state = p.State
	inHeap := p.InHeap()
	p.Lock.Unlock()
	if state != procs.Runnable || !inHeap {
		t.Fatalf("expected process Runnable and enqueued after Wakeup, got state=%s inHeap=%v", state, inHeap)
	}

	if ran := dispatchOnce(s); ran != p {
		t.Fatalf("expected pid %d to be redispatched, got %v", p.PID, ran)
	}
	<-progress

	p.Lock.Lock()
	state, xstate := p.State, p.XState
	p.Lock.Unlock()
	if state != procs.Zombie || xstate != 7 {
		t.Fatalf("expected Zombie with xstate 7, got state=%s xstate=%d", state, xstate)
	}
}

func TestWaitReturnsErrNoChildrenImmediately(t *testing.T) {
	s := newTestScheduler(SJF, false, 50)
	defer s.Clock.Stop()

	p := allocAndUnlock(t, s, nil)
	if _, err := s.Wait(p); err != ErrNoChildren {
		t.Fatalf("expected ErrNoChildren, got %v", err)
	}
}

func TestForkWaitExitReapsChild(t *testing.T) {
	s := newTestScheduler(SJF, false, 50)
	defer s.Clock.Stop()

	parent := allocAndUnlock(t, s, nil)

	var childPID int
	child, err := s.Fork(parent, func(proc *procs.Process) {
		childPID = proc.PID
		s.Exit(proc, 3)
	})
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	if child.Parent != parent {
		t.Fatalf("expected child's parent set")
	}

	if ran := dispatchOnce(s); ran != child {
		t.Fatalf("expected child to be dispatched, got %v", ran)
	}

	pid, err := s.Wait(parent)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if pid != childPID {
		t.Fatalf("expected pid %d reaped, got %d", childPID, pid)
	}
}

// TestPreemptiveSJFDispatchesShorterJobNext drives S3: a running long job
// is preempted by a newly enqueued job with a smaller burst estimate,
// without relying on wall-clock timing to interleave them.
func TestPreemptiveSJFDispatchesShorterJobNext(t *testing.T) {
	s := newTestScheduler(SJF, true, 100)
	defer s.Clock.Stop()

	var order []int
	record := func(p *procs.Process) { order = append(order, p.PID) }

	longTicks, shortTicks := 5, 2
	long := allocAndUnlock(t, s, func(p *procs.Process) {
		for i := 0; i < longTicks; i++ {
			record(p)
			s.Tick(p)
		}
		s.Exit(p, 0)
	})
	s.Put(long)

	if ran := dispatchOnce(s); ran != long {
		t.Fatalf("expected long job dispatched first, got %v", ran)
	}

	var short *procs.Process
	short = allocAndUnlock(t, s, func(p *procs.Process) {
		for i := 0; i < shortTicks; i++ {
			record(p)
			s.Tick(p)
		}
		s.Exit(p, 0)
	})
	s.Put(short)

	if ran := dispatchOnce(s); ran != short {
		t.Fatalf("expected the newly enqueued short job to preempt the long job, got %v", ran)
	}

	for i := 0; i < 20; i++ {
		if dispatchOnce(s) == nil {
			break
		}
	}

	if len(order) < 2 || order[0] != long.PID || order[1] != short.PID {
		t.Fatalf("expected dispatch order to start [long, short], got %v", order)
	}
}

// TestCFSAlternatesEqualJobsFairly drives S2: two CPU-bound jobs of equal
// weight under CFS must be dispatched a near-equal number of times (their
// counts may never differ by more than one), since each dispatch raises
// the dispatched job's exe_time above its sibling's.
func TestCFSAlternatesEqualJobsFairly(t *testing.T) {
	s := newTestScheduler(CFS, false, 50)
	defer s.Clock.Stop()

	counts := map[int]int{}
	rounds := 4

	makeBody := func() procs.Body {
		return func(p *procs.Process) {
			for i := 0; i < rounds; i++ {
				s.Tick(p)
			}
			s.Exit(p, 0)
		}
	}

	a := allocAndUnlock(t, s, makeBody())
	b := allocAndUnlock(t, s, makeBody())
	s.Put(a)
	s.Put(b)

	for i := 0; i < 40; i++ {
		ran := dispatchOnce(s)
		if ran == nil {
			break
		}
		counts[ran.PID]++
	}

	diff := counts[a.PID] - counts[b.PID]
	if diff < -1 || diff > 1 {
		t.Fatalf("expected CFS dispatch counts to differ by at most 1, got a=%d b=%d", counts[a.PID], counts[b.PID])
	}
	// Each job is dispatched once per tick (every tick exhausts its
	// 1-tick timeslice and yields) plus once more to run the Exit call.
	wantEach := rounds + 1
	if counts[a.PID] != wantEach || counts[b.PID] != wantEach {
		t.Fatalf("expected %d dispatches each, got a=%d b=%d", wantEach, counts[a.PID], counts[b.PID])
	}
}

func TestPutRejectsDuplicateInsertion(t *testing.T) {
	s := newTestScheduler(SJF, false, 50)
	defer s.Clock.Stop()

	p := allocAndUnlock(t, s, nil)
	s.Put(p)
	s.Put(p) // already enqueued; must not duplicate the heap slot

	if got := s.Policy.Snapshot().HeapSize; got != 1 {
		t.Fatalf("expected heap size 1 after redundant Put, got %d", got)
	}
}

func TestGetAssignsPositiveCFSTimeslice(t *testing.T) {
	s := newTestScheduler(CFS, false, 50)
	defer s.Clock.Stop()

	p := allocAndUnlock(t, s, nil)
	s.Put(p)

	ret, ok := s.Get()
	if !ok || ret != p {
		t.Fatalf("expected to dequeue the sole process")
	}
	if ret.Timeslice < 1 {
		t.Fatalf("expected a positive CFS timeslice, got %d", ret.Timeslice)
	}
}

// TestTickPacesWithRealClock confirms Tick's burst accounting advances
// in lockstep with the real clock rather than racing ahead of it: N
// back-to-back Tick calls on an idle (never-preempted) process consume
// at least N real ticks.
func TestTickPacesWithRealClock(t *testing.T) {
	s := newTestScheduler(SJF, false, 50)
	defer s.Clock.Stop()

	p := allocAndUnlock(t, s, nil)
	p.Lock.Lock()
	p.State = procs.Running
	p.Lock.Unlock()

	before := s.Clock.Count()
	const n = 5
	for i := 0; i < n; i++ {
		s.Tick(p)
	}
	after := s.Clock.Count()

	p.Lock.Lock()
	burst := p.CPUBurst
	p.Lock.Unlock()

	if burst != n {
		t.Fatalf("expected cpu_burst to have advanced by %d, got %d", n, burst)
	}
	if after-before < n {
		t.Fatalf("expected at least %d real ticks to have elapsed alongside cpu_burst, got %d", n, after-before)
	}
}

// TestCFSTimesliceReflectsElapsedRealTicks drives S2/S4's dynamic
// timeslice math against a clock that has actually advanced between
// enqueue and dispatch, so the computed timeslice doesn't collapse to 1
// regardless of how much real time passed.
func TestCFSTimesliceReflectsElapsedRealTicks(t *testing.T) {
	s := newTestScheduler(CFS, false, 50)
	defer s.Clock.Stop()

	p := allocAndUnlock(t, s, nil)
	s.Put(p)

	// Let several real ticks land before dispatch, so PutTimestamp lags
	// Clock.Count() by more than the single-process denominator of 1.
	for i := 0; i < 3; i++ {
		s.Clock.WaitTick()
	}

	ret, ok := s.Get()
	if !ok || ret != p {
		t.Fatalf("expected to dequeue the sole process")
	}
	if ret.Timeslice < 2 {
		t.Fatalf("expected the timeslice to reflect elapsed real ticks (>=2), got %d", ret.Timeslice)
	}
}

func TestKillWakesSleepingProcessAndSetsKilled(t *testing.T) {
	s := newTestScheduler(SJF, false, 50)
	defer s.Clock.Stop()

	exited := make(chan int, 1)
	p := allocAndUnlock(t, s, func(proc *procs.Process) {
		s.Table.WaitLock.Lock()
		s.Sleep(proc, "parked", &s.Table.WaitLock)
		s.Table.WaitLock.Unlock()
		proc.Lock.Lock()
		killed := proc.Killed
		proc.Lock.Unlock()
		status := 0
		if killed {
			status = -1
		}
		s.Exit(proc, status)
		exited <- status
	})
	s.Put(p)
	dispatchOnce(s)

	if err := s.Kill(p.PID); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	p.Lock.Lock()
	state, killed := p.State, p.Killed
	p.Lock.Unlock()
	if !killed || state != procs.Runnable {
		t.Fatalf("expected Kill to mark Killed and force Runnable, got killed=%v state=%s", killed, state)
	}

	dispatchOnce(s)
	if status := <-exited; status != -1 {
		t.Fatalf("expected exit status -1 after kill, got %d", status)
	}
}
