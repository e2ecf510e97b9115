// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqring

import "time"

// Options configures ring creation and wait strategy selection.
type Options struct {
	bufferSize int
	strategy   WaitStrategy
}

// Builder creates rings with fluent configuration.
//
// Example:
//
//	// Blocking ring (default strategy)
//	ring := seqring.Build[Event](seqring.New(1024))
//
//	// Busy-spin ring for pinned consumer threads
//	ring := seqring.Build[Event](seqring.New(4096).BusySpin())
//
//	// Bounded wake-up latency with timeout notification
//	ring := seqring.Build[Event](seqring.New(1024).TimeoutBlocking(10 * time.Millisecond))
type Builder struct {
	opts Options
}

// New creates a ring builder with the given buffer size.
//
// Panics unless bufferSize is a positive power of two.
func New(bufferSize int) *Builder {
	if bufferSize < 1 || bufferSize&(bufferSize-1) != 0 {
		panic("seqring: buffer size must be a positive power of two")
	}
	return &Builder{opts: Options{bufferSize: bufferSize}}
}

// BusySpin selects BusySpinWaitStrategy: lowest latency, burns a core
// per waiting consumer.
func (b *Builder) BusySpin() *Builder {
	b.opts.strategy = NewBusySpinWaitStrategy()
	return b
}

// Yielding selects YieldingWaitStrategy: bounded spin, then yields the
// processor.
func (b *Builder) Yielding() *Builder {
	b.opts.strategy = NewYieldingWaitStrategy()
	return b
}

// Blocking selects BlockingWaitStrategy: waiters park on a condition
// variable until publish. This is the default.
func (b *Builder) Blocking() *Builder {
	b.opts.strategy = NewBlockingWaitStrategy()
	return b
}

// TimeoutBlocking selects TimeoutBlockingWaitStrategy: as Blocking, but
// WaitFor gives up after timeout so processors can run their OnTimeout
// hook.
func (b *Builder) TimeoutBlocking(timeout time.Duration) *Builder {
	b.opts.strategy = NewTimeoutBlockingWaitStrategy(timeout)
	return b
}

// WaitStrategy sets a caller-supplied strategy.
func (b *Builder) WaitStrategy(ws WaitStrategy) *Builder {
	b.opts.strategy = ws
	return b
}

// Build creates a RingBuffer of T slots from the builder
// configuration.
func Build[T any](b *Builder) *RingBuffer[T] {
	ws := b.opts.strategy
	if ws == nil {
		ws = NewBlockingWaitStrategy()
	}
	return NewRingBuffer[T](b.opts.bufferSize, ws)
}
