package sched

import "errors"

// ErrNoChildren and ErrKilled are the two reasons Wait gives up without a
// pid, matching wait()'s combined -1 return.
var (
	ErrNoChildren = errors.New("sched: process has no children")
	ErrKilled     = errors.New("sched: process was killed")
	ErrNoSuchPID  = errors.New("sched: no process with that pid")
)

// abortHook is invoked instead of panicking directly for violated
// invariants; the one checked today is the init process calling Exit.
// A test harness can replace it to intercept fatal assertions instead of
// crashing the test binary.
var abortHook = func(msg string) {
	panic(msg)
}

// SetAbortHook lets a test harness intercept fatal invariant violations
// instead of letting them panic the process.
func SetAbortHook(h func(msg string)) {
	if h == nil {
		h = func(msg string) { panic(msg) }
	}
	abortHook = h
}

func abort(msg string) {
	abortHook(msg)
}
