package sched

import (
	"context"
	"sync"
	"time"

	"priosched/internal/procs"
)

// CPU is one per-CPU scheduler loop's identity: the process it is
// currently running, if any. Grounded on struct cpu's c->proc field.
type CPU struct {
	ID int

	mu      sync.Mutex
	current *procs.Process
}

// Current returns the process this CPU is presently running, or nil.
func (c *CPU) Current() *procs.Process {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// run is one CPU's event loop: pull from the heap, hand control to the
// process, and re-enqueue it on return if it is still RUNNABLE.
//
// There is no real interrupt line to disable here; ticks are delivered
// by the running process calling Scheduler.Tick on itself at each point
// that stands in for a timer trap, and Tick itself blocks on s.Clock so
// cpu_burst only advances in step with the real tick source (see
// DESIGN.md's context-switch abstraction gap note).
func (s *Scheduler) run(ctx context.Context, cpu *CPU) {
	idle := time.NewTicker(time.Millisecond)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p, ok := s.Get()
		if !ok {
			s.Events.Emit(Event{Kind: EventIdle})
			select {
			case <-ctx.Done():
				return
			case <-s.Clock.Ch:
			case <-idle.C:
			}
			continue
		}

		p.Lock.Lock()
		if p.State != procs.Runnable {
			p.Lock.Unlock()
			continue
		}
		p.State = procs.Running
		p.Lock.Unlock()

		cpu.mu.Lock()
		cpu.current = p
		cpu.mu.Unlock()

		p.Resume() <- struct{}{}
		<-p.Done()

		cpu.mu.Lock()
		cur := cpu.current
		cpu.current = nil
		cpu.mu.Unlock()

		if cur != nil {
			cur.Lock.Lock()
			stillRunnable := cur.State == procs.Runnable
			cur.Lock.Unlock()
			if stillRunnable {
				s.Policy.mu.Lock()
				alreadyQueued := cur.InHeap()
				s.Policy.mu.Unlock()
				if !alreadyQueued {
					s.Put(cur)
				}
			}
		}
	}
}

// RunCPUs launches n per-CPU scheduler loops and blocks until ctx is
// cancelled.
func (s *Scheduler) RunCPUs(ctx context.Context, n int) {
	var wg sync.WaitGroup
	s.cpus = make([]*CPU, n)
	for i := 0; i < n; i++ {
		cpu := &CPU{ID: i}
		s.cpus[i] = cpu
		wg.Add(1)
		go func(c *CPU) {
			defer wg.Done()
			s.run(ctx, c)
		}(cpu)
	}
	wg.Wait()
}

// CPUs returns the scheduler's per-CPU loop handles, populated once
// RunCPUs has started them.
func (s *Scheduler) CPUs() []*CPU { return s.cpus }
