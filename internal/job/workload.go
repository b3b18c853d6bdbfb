// Package job provides ready-made process bodies for driving the
// scheduler in demos and tests: small generators that return a closure
// matching the callback shape the scheduler expects.
package job

import (
	"sync"

	"priosched/internal/procs"
	"priosched/internal/sched"
)

// Burst returns a body that simulates ticks timer ticks of CPU-bound
// work, calling Scheduler.Tick once per tick (so the scheduler may
// preempt it along the way), then exits with the given status.
func Burst(s *sched.Scheduler, ticks int, status int) procs.Body {
	return func(p *procs.Process) {
		for i := 0; i < ticks; i++ {
			s.Tick(p)
		}
		s.Exit(p, status)
	}
}

// Repeating returns a body that runs rounds bursts of burstTicks each,
// voluntarily yielding between rounds, then exits with status. Useful
// for exercising re-enqueue and burst-estimate smoothing across many
// dispatches.
func Repeating(s *sched.Scheduler, rounds, burstTicks int, status int) procs.Body {
	return func(p *procs.Process) {
		for r := 0; r < rounds; r++ {
			for i := 0; i < burstTicks; i++ {
				s.Tick(p)
			}
			if r < rounds-1 {
				s.Yield(p)
			}
		}
		s.Exit(p, status)
	}
}

// SleepWake returns a body that sleeps on chanKey until woken, then
// exits with status. external is the collaborator lock Sleep expects
// held on entry; the body acquires it before sleeping, mirroring the
// sleep(chan, lk) calling convention (caller holds lk, sleep releases
// it while parked and reacquires it before returning).
func SleepWake(s *sched.Scheduler, chanKey procs.ChanKey, external *sync.Mutex, status int) procs.Body {
	return func(p *procs.Process) {
		external.Lock()
		s.Sleep(p, chanKey, external)
		external.Unlock()
		s.Exit(p, status)
	}
}

// WaitForChildren returns a body that blocks in Wait until no children
// remain, then exits with status. Not for the init process: Exit aborts
// if called on it.
func WaitForChildren(s *sched.Scheduler, status int) procs.Body {
	return func(p *procs.Process) {
		for {
			if _, err := s.Wait(p); err != nil {
				break
			}
		}
		s.Exit(p, status)
	}
}

// InitLoop returns the body for the init process: it reaps reparented
// zombies forever and never exits, mirroring xv6's init, which the
// kernel refuses to let exit.
func InitLoop(s *sched.Scheduler) procs.Body {
	return func(p *procs.Process) {
		for {
			s.Wait(p)
		}
	}
}

// Idle returns a body that never does any work and exits immediately;
// useful as S2's idle third process.
func Idle(s *sched.Scheduler, status int) procs.Body {
	return func(p *procs.Process) {
		s.Exit(p, status)
	}
}
