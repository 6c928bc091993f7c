package leaktest

import (
	"runtime"
	"testing"
	"time"
)

const (
	settleDelay  = 10 * time.Millisecond
	pollInterval = 10 * time.Millisecond
	// DefaultWait bounds how long Check waits for goroutines to exit
	DefaultWait = 2 * time.Second
)

// GoroutineChecker compares the goroutine count against a baseline taken when
// it was created. Workers, hubs and pools stop asynchronously, so Check polls
// instead of sampling once.
type GoroutineChecker struct {
	t      testing.TB
	before int
	wait   time.Duration
}

// NewGoroutineChecker records the current goroutine count
func NewGoroutineChecker(t testing.TB) *GoroutineChecker {
	t.Helper()
	runtime.Gosched()
	time.Sleep(settleDelay)
	return &GoroutineChecker{t: t, before: runtime.NumGoroutine(), wait: DefaultWait}
}

// Check fails the test if more than tolerance goroutines outlive the
// baseline after DefaultWait. The failure includes all goroutine stacks.
func (g *GoroutineChecker) Check(tolerance int) {
	g.t.Helper()

	limit := g.before + tolerance
	if settle(limit, g.wait) {
		return
	}

	buf := make([]byte, 1<<16)
	buf = buf[:runtime.Stack(buf, true)]
	g.t.Errorf("goroutine leak: before=%d after=%d tolerance=%d\n%s",
		g.before, runtime.NumGoroutine(), tolerance, buf)
}

// CheckNoGoroutineLeak runs fn and checks nothing it started is still running
func CheckNoGoroutineLeak(t testing.TB, fn func()) {
	t.Helper()
	checker := NewGoroutineChecker(t)
	fn()
	checker.Check(0)
}

// settle polls until the goroutine count is at most limit or wait expires
func settle(limit int, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	for {
		runtime.Gosched()
		if runtime.NumGoroutine() <= limit {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}
