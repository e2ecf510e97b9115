// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqring

import (
	"runtime"
	"sync"
	"time"

	"code.hybscloud.com/spin"
)

// WaitStrategy decides how a consumer stalls until the sequence it
// needs becomes available.
//
// WaitFor returns an available sequence a >= target-1 such that every
// slot up to a is consumable, or an error: ErrAlert when the barrier has
// been tripped, ErrTimeout when the strategy's deadline elapsed. The
// returned value may be less than target; the caller must re-wait in
// that case.
//
// SignalAllWhenBlocking wakes every waiter parked on a condition
// variable. Strategies that never block implement it as a no-op.
type WaitStrategy interface {
	WaitFor(target int64, cursor *Sequence, dependent sequenceView, barrier *SequenceBarrier) (int64, error)
	SignalAllWhenBlocking()
}

// BusySpinWaitStrategy spins on the dependent view with CPU pause
// instructions. Lowest latency, burns a core; use when consumer threads
// can be pinned.
type BusySpinWaitStrategy struct{}

// NewBusySpinWaitStrategy creates a busy-spin strategy.
func NewBusySpinWaitStrategy() *BusySpinWaitStrategy {
	return &BusySpinWaitStrategy{}
}

// WaitFor spins until dependent reaches target, checking the alert flag
// each iteration.
func (*BusySpinWaitStrategy) WaitFor(target int64, _ *Sequence, dependent sequenceView, barrier *SequenceBarrier) (int64, error) {
	sw := spin.Wait{}
	for {
		if err := barrier.CheckAlert(); err != nil {
			return 0, err
		}
		if available := dependent.Get(); available >= target {
			return available, nil
		}
		sw.Once()
	}
}

// SignalAllWhenBlocking is a no-op; busy-spin waiters never block.
func (*BusySpinWaitStrategy) SignalAllWhenBlocking() {}

// yieldSpinTries is the number of pause iterations before a yielding
// waiter starts handing its time slice back to the scheduler.
const yieldSpinTries = 100

// YieldingWaitStrategy spins for a bounded number of iterations, then
// repeatedly yields the processor. A compromise between latency and CPU
// burn when cores are shared.
type YieldingWaitStrategy struct{}

// NewYieldingWaitStrategy creates a yielding strategy.
func NewYieldingWaitStrategy() *YieldingWaitStrategy {
	return &YieldingWaitStrategy{}
}

// WaitFor spins then yields until dependent reaches target, checking
// the alert flag each iteration.
func (*YieldingWaitStrategy) WaitFor(target int64, _ *Sequence, dependent sequenceView, barrier *SequenceBarrier) (int64, error) {
	sw := spin.Wait{}
	counter := yieldSpinTries
	for {
		if err := barrier.CheckAlert(); err != nil {
			return 0, err
		}
		if available := dependent.Get(); available >= target {
			return available, nil
		}
		if counter > 0 {
			counter--
			sw.Once()
		} else {
			runtime.Gosched()
		}
	}
}

// SignalAllWhenBlocking is a no-op; yielding waiters never block.
func (*YieldingWaitStrategy) SignalAllWhenBlocking() {}

// BlockingWaitStrategy parks waiters on a condition variable until the
// producer publishes. Lowest CPU usage, highest wake-up latency; the
// right default when throughput spikes are rare.
//
// The mutex is held only around the condition wait, never across a
// handler invocation.
type BlockingWaitStrategy struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// NewBlockingWaitStrategy creates a blocking strategy.
func NewBlockingWaitStrategy() *BlockingWaitStrategy {
	ws := &BlockingWaitStrategy{}
	ws.cond = sync.NewCond(&ws.mu)
	return ws
}

// WaitFor parks until the producer cursor reaches target, then spins on
// the dependent view for upstream consumers to catch up.
func (ws *BlockingWaitStrategy) WaitFor(target int64, cursor *Sequence, dependent sequenceView, barrier *SequenceBarrier) (int64, error) {
	if cursor.Get() < target {
		ws.mu.Lock()
		for cursor.Get() < target {
			if err := barrier.CheckAlert(); err != nil {
				ws.mu.Unlock()
				return 0, err
			}
			ws.cond.Wait()
		}
		ws.mu.Unlock()
	}

	sw := spin.Wait{}
	for {
		if err := barrier.CheckAlert(); err != nil {
			return 0, err
		}
		if available := dependent.Get(); available >= target {
			return available, nil
		}
		sw.Once()
	}
}

// SignalAllWhenBlocking wakes every parked waiter.
func (ws *BlockingWaitStrategy) SignalAllWhenBlocking() {
	ws.mu.Lock()
	ws.cond.Broadcast()
	ws.mu.Unlock()
}

// TimeoutBlockingWaitStrategy is BlockingWaitStrategy with a deadline:
// WaitFor returns ErrTimeout when the cursor has not reached the target
// within the configured timeout. Processors surface the timeout to their
// OnTimeout hook and keep running.
type TimeoutBlockingWaitStrategy struct {
	mu      sync.Mutex
	cond    *sync.Cond
	timeout time.Duration
}

// NewTimeoutBlockingWaitStrategy creates a blocking strategy that gives
// up after timeout.
func NewTimeoutBlockingWaitStrategy(timeout time.Duration) *TimeoutBlockingWaitStrategy {
	ws := &TimeoutBlockingWaitStrategy{timeout: timeout}
	ws.cond = sync.NewCond(&ws.mu)
	return ws
}

// WaitFor parks until the producer cursor reaches target or the
// deadline elapses, then spins on the dependent view.
func (ws *TimeoutBlockingWaitStrategy) WaitFor(target int64, cursor *Sequence, dependent sequenceView, barrier *SequenceBarrier) (int64, error) {
	if cursor.Get() < target {
		deadline := time.Now().Add(ws.timeout)
		ws.mu.Lock()
		for cursor.Get() < target {
			if err := barrier.CheckAlert(); err != nil {
				ws.mu.Unlock()
				return 0, err
			}
			if !ws.waitUntil(deadline) {
				ws.mu.Unlock()
				return 0, ErrTimeout
			}
		}
		ws.mu.Unlock()
	}

	sw := spin.Wait{}
	for {
		if err := barrier.CheckAlert(); err != nil {
			return 0, err
		}
		if available := dependent.Get(); available >= target {
			return available, nil
		}
		sw.Once()
	}
}

// waitUntil waits on the condition variable at most until deadline.
// Returns false when the deadline has passed. Caller holds ws.mu.
//
// sync.Cond has no timed wait, so a timer goroutine broadcasts at the
// deadline to bound the park.
func (ws *TimeoutBlockingWaitStrategy) waitUntil(deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	timer := time.AfterFunc(remaining, ws.SignalAllWhenBlocking)
	ws.cond.Wait()
	timer.Stop()
	return time.Now().Before(deadline)
}

// SignalAllWhenBlocking wakes every parked waiter.
func (ws *TimeoutBlockingWaitStrategy) SignalAllWhenBlocking() {
	ws.mu.Lock()
	ws.cond.Broadcast()
	ws.mu.Unlock()
}
