// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqring

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"code.hybscloud.com/atomix"
)

// ResultCell lifecycle states. Transitions form a DAG:
// ready → running → ran, ready → cancelled, running → cancelled,
// running → ran, and running → ready only via RunAndReset.
const (
	cellReady int32 = iota
	cellRunning
	cellRan
	cellCancelled
)

// ResultCell is a synchronized holder for the outcome of a computation
// executed at most once. Multiple goroutines may wait for the outcome
// with Get; Cancel cooperatively interrupts a running worker through
// its context.
//
// The terminal gate is a channel closed exactly once: the close is the
// release edge that publishes the value or failure to every waiter.
type ResultCell[V any] struct {
	// OnDone, when non-nil, is invoked exactly once when the cell
	// reaches a terminal state, whether by completion, failure or
	// cancellation. Set it before arranging execution.
	OnDone func()

	state   atomix.Int32
	task    func(ctx context.Context) (V, error)
	value   V
	failure error
	worker  atomic.Pointer[context.CancelFunc]
	release sync.Once
	done    chan struct{}
}

// NewResultCell creates a cell that, upon Run, executes task. The
// task's context is cancelled by Cancel(true); a task that never
// observes its context runs to completion and its result is discarded.
//
// Panics if task is nil.
func NewResultCell[V any](task func(ctx context.Context) (V, error)) *ResultCell[V] {
	if task == nil {
		panic("seqring: nil task")
	}
	return &ResultCell[V]{
		task: task,
		done: make(chan struct{}),
	}
}

// NewActionResultCell creates a cell that, upon Run, executes action
// and arranges that Get returns result on successful completion.
//
// Panics if action is nil.
func NewActionResultCell[V any](action func(ctx context.Context) error, result V) *ResultCell[V] {
	if action == nil {
		panic("seqring: nil action")
	}
	return NewResultCell(func(ctx context.Context) (V, error) {
		if err := action(ctx); err != nil {
			var zero V
			return zero, err
		}
		return result, nil
	})
}

// Run executes the computation unless the cell has already been run or
// cancelled. It blocks the calling goroutine for the duration of the
// task.
func (c *ResultCell[V]) Run() {
	if !c.state.CompareAndSwapAcqRel(cellReady, cellRunning) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.worker.Store(&cancel)

	// A cancel racing with the CAS above may have already moved the
	// state on; release any waiters and leave the outcome alone.
	if c.state.LoadAcquire() != cellRunning {
		c.releaseWaiters()
		return
	}

	v, err := c.task(ctx)
	if err != nil {
		c.SetError(err)
		return
	}
	c.Set(v)
}

// RunAndReset executes the computation without making its result
// retrievable, then returns the cell to the ready state so it can run
// again. Reports whether a full successful cycle occurred: it returns
// false when the cell was cancelled, already run, or the task failed
// (the failure then becomes the terminal outcome, as with Run).
//
// Intended for periodically executed tasks.
func (c *ResultCell[V]) RunAndReset() bool {
	if !c.state.CompareAndSwapAcqRel(cellReady, cellRunning) {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.worker.Store(&cancel)

	if c.state.LoadAcquire() != cellRunning {
		c.releaseWaiters()
		return false
	}

	if _, err := c.task(ctx); err != nil {
		c.SetError(err)
		return false
	}

	c.worker.Store(nil)
	return c.state.CompareAndSwapAcqRel(cellRunning, cellReady)
}

// Cancel moves the cell to the cancelled state unless it is already
// terminal. When interruptIfRunning is true and a worker is executing
// the task, the worker's context is cancelled; the interrupt is
// advisory and takes effect at the task's own polling points.
//
// Returns whether this call cancelled the cell.
func (c *ResultCell[V]) Cancel(interruptIfRunning bool) bool {
	for {
		s := c.state.LoadAcquire()
		if s == cellRan || s == cellCancelled {
			return false
		}
		if c.state.CompareAndSwapAcqRel(s, cellCancelled) {
			break
		}
	}

	if interruptIfRunning {
		if cancel := c.worker.Load(); cancel != nil {
			(*cancel)()
		}
	}

	c.releaseWaiters()
	return true
}

// Set completes the cell with value unless it is already terminal.
// Invoked internally on successful completion; exposed for computations
// finished outside Run. A no-op after any terminal transition.
func (c *ResultCell[V]) Set(value V) {
	c.complete(value, nil)
}

// SetError completes the cell with a failure unless it is already
// terminal. Get re-raises it wrapped in ExecutionError. A no-op after
// any terminal transition.
func (c *ResultCell[V]) SetError(err error) {
	var zero V
	c.complete(zero, err)
}

func (c *ResultCell[V]) complete(value V, failure error) {
	for {
		s := c.state.LoadAcquire()
		switch s {
		case cellRan:
			return
		case cellCancelled:
			// The cancelling goroutine owns the outcome; just make
			// sure waiters are not left parked.
			c.releaseWaiters()
			return
		}
		if c.state.CompareAndSwapAcqRel(s, cellRan) {
			c.value = value
			c.failure = failure
			c.releaseWaiters()
			return
		}
	}
}

// releaseWaiters publishes the terminal transition: the worker
// reference is cleared, the gate is closed and the completion hook
// fires, exactly once per cell.
func (c *ResultCell[V]) releaseWaiters() {
	c.release.Do(func() {
		c.worker.Store(nil)
		close(c.done)
		if c.OnDone != nil {
			c.OnDone()
		}
	})
}

// Get waits for the terminal gate and returns the outcome: the value
// passed to Set, an ExecutionError wrapping the task failure, or
// ErrCancelled. Waiting is interruptible through ctx.
func (c *ResultCell[V]) Get(ctx context.Context) (V, error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
	return c.report()
}

// GetTimeout is Get with a deadline. Returns ErrTimeout when the gate
// is not passed within timeout.
func (c *ResultCell[V]) GetTimeout(timeout time.Duration) (V, error) {
	select {
	case <-c.done:
		return c.report()
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-c.done:
		return c.report()
	case <-timer.C:
		var zero V
		return zero, ErrTimeout
	}
}

func (c *ResultCell[V]) report() (V, error) {
	if c.state.LoadAcquire() == cellCancelled {
		var zero V
		return zero, ErrCancelled
	}
	if c.failure != nil {
		var zero V
		return zero, &ExecutionError{Cause: c.failure}
	}
	return c.value, nil
}

// IsDone reports whether the cell has reached a terminal state and the
// terminal publish is visible.
func (c *ResultCell[V]) IsDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// IsCancelled reports whether the cell was cancelled before the
// computation completed.
func (c *ResultCell[V]) IsCancelled() bool {
	return c.state.LoadAcquire() == cellCancelled
}
