package procs

import "sync"

// ChanKey is the opaque wakeup channel a sleeping process is parked on.
// The scheduler never looks inside it; it only tests it for equality,
// exactly like xv6's void* chan. A *Process is itself a valid ChanKey —
// that's how wait/exit implement "sleep on my own identity".
type ChanKey any

// Body is the work a process performs once dispatched. It cooperates with
// the scheduler by calling Scheduler.Tick/Yield/Sleep at the points where
// the original kernel would have taken a timer interrupt or a blocking
// syscall, and returns when the process should exit with XState already
// set to its intended status.
type Body func(p *Process)

// Process is a PCB, trimmed to the fields the scheduler actually touches.
// Page tables, trapframes, and kernel stacks belong to collaborators this
// core does not model.
type Process struct {
	Lock sync.Mutex // protects every field below except PID, which is set once

	PID   int
	State State

	CPUBurst      int64 // ticks consumed in the current RUNNING interval
	CPUBurstAprox int64 // smoothed estimate of the next burst
	ExeTime       int64 // cumulative ticks across the runnable/running lifecycle
	PutTimestamp  int64 // global_ticks at last enqueue
	Timeslice     int64 // ticks until voluntary preemption under CFS; 0 under SJF

	ChanKey ChanKey
	Killed  bool
	XState  int
	Parent  *Process

	inHeap    bool // guarded by the scheduler's policy lock, not Lock
	heapIndex int  // last known slot in the policy heap; advisory, for diagnostics only

	// resume/done are the rendezvous channels that stand in for xv6's
	// swtch: the CPU loop sends on resume to hand control to the
	// process's goroutine, and blocks on done until it is handed back.
	resume chan struct{}
	done   chan struct{}

	body Body
}

// NewProcess wires up the channels a fresh PCB needs before it can be
// dispatched. Callers still owe it a PID and initial state.
func NewProcess(body Body) *Process {
	return &Process{
		resume: make(chan struct{}),
		done:   make(chan struct{}),
		body:   body,
	}
}

// Resume is the CPU loop's half of the handoff: send to wake the
// process's goroutine, receive to learn it has relinquished the CPU.
func (p *Process) Resume() chan<- struct{} { return p.resume }

// Done is the CPU loop's receive side of the handoff.
func (p *Process) Done() <-chan struct{} { return p.done }

// runLoop is the process's persistent goroutine body. It blocks for its
// first dispatch, runs Body exactly once across the process's whole
// lifetime (Body itself loops and calls back into the scheduler at each
// suspension point), and exits for good once Body returns.
func (p *Process) runLoop() {
	<-p.resume
	if p.body != nil {
		p.body(p)
	}
}

// Start launches the process's goroutine. Must be called exactly once,
// before the process is ever made RUNNABLE.
func (p *Process) Start() {
	go p.runLoop()
}

// ParkSelf hands control back to whichever CPU dispatched this process
// and blocks until it is redispatched. Callers must not hold p.Lock.
func (p *Process) ParkSelf() {
	p.done <- struct{}{}
	<-p.resume
}

// ParkForGood hands control back one last time without waiting to be
// redispatched; used by Exit, whose goroutine never runs again.
func (p *Process) ParkForGood() {
	p.done <- struct{}{}
}

// InHeap reports whether the policy heap currently holds this process.
// Guarded by the scheduler's policy lock, not p.Lock.
func (p *Process) InHeap() bool { return p.inHeap }

// SetInHeap records the process's heap membership. Guarded by the
// scheduler's policy lock, not p.Lock.
func (p *Process) SetInHeap(v bool) { p.inHeap = v }

// HeapIndex returns the last slot the policy heap recorded for this
// process. Advisory only; the heap array is the source of truth.
func (p *Process) HeapIndex() int { return p.heapIndex }

// SetHeapIndex records the process's current slot in the policy heap.
func (p *Process) SetHeapIndex(i int) { p.heapIndex = i }
