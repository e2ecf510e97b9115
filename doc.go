// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package seqring provides a sequenced ring buffer for inter-goroutine
// event passing, together with a cancellable single-shot result cell.
//
// A RingBuffer is a fixed-capacity circular slot array published into
// by exactly one producer and consumed by one or more processor
// pipelines. Progress on both sides is expressed as monotonically
// increasing sequences; a SequenceBarrier gates each processor on the
// producer cursor and on the sequences of upstream processors, using a
// configurable WaitStrategy. Slots are preallocated and mutated in
// place, so the hot path allocates nothing.
//
// # Quick Start
//
// Direct constructor:
//
//	ring := seqring.NewRingBuffer[Event](1024, seqring.NewBlockingWaitStrategy())
//
// Builder API selects the wait strategy fluently:
//
//	ring := seqring.Build[Event](seqring.New(1024))                  // → blocking
//	ring := seqring.Build[Event](seqring.New(4096).BusySpin())       // → busy-spin
//	ring := seqring.Build[Event](seqring.New(1024).Yielding())       // → yielding
//	ring := seqring.Build[Event](seqring.New(1024).TimeoutBlocking(time.Millisecond))
//
// # Basic Usage
//
// Attach a processor, gate the producer on it, publish:
//
//	proc := seqring.NewBatchEventProcessor(ring, ring.NewBarrier(), seqring.Handler[Event]{
//	    OnEvent: func(ev *Event, seq int64, endOfBatch bool) error {
//	        handle(ev)
//	        return nil
//	    },
//	})
//	ring.AddGatingSequences(proc.GetSequence())
//	go proc.Run()
//
//	// Producer side: claim, write the slot in place, publish.
//	seq := ring.Next()
//	ring.Get(seq).Payload = 42
//	ring.Publish(seq)
//
//	// Or in one call:
//	ring.PublishEvent(func(ev *Event, seq int64) { ev.Payload = 42 })
//
// Non-blocking claims report a full ring as backpressure:
//
//	seq, err := ring.TryNext()
//	if seqring.IsInsufficientCapacity(err) {
//	    // Ring is full - handle backpressure
//	}
//
// # Pipelines
//
// Downstream processors gate on upstream sequences through barrier
// dependents. A diamond Producer → A → {B, C} → D:
//
//	a := seqring.NewBatchEventProcessor(ring, ring.NewBarrier(), ha)
//	b := seqring.NewBatchEventProcessor(ring, ring.NewBarrier(a.GetSequence()), hb)
//	c := seqring.NewBatchEventProcessor(ring, ring.NewBarrier(a.GetSequence()), hc)
//	d := seqring.NewBatchEventProcessor(ring, ring.NewBarrier(b.GetSequence(), c.GetSequence()), hd)
//	ring.AddGatingSequences(d.GetSequence())
//
// Only the sequences of the final consumers gate the producer; the
// barrier chain keeps every intermediate stage behind its upstreams.
//
// # Memory Ordering
//
// The producer cursor write in Publish is a release store; the
// consumer's read of the cursor through the barrier is an acquire load.
// Every slot write that happened before Publish(s) is therefore visible
// to a handler reading slot s. Each processor's own-sequence write is
// likewise a release observed by downstream processors gating on it.
//
// # Result Cell
//
// ResultCell is independent of the ring: a one-shot holder for the
// outcome of a computation executed at most once, with blocking and
// timed retrieval by multiple waiters and cooperative cancellation
// through the task's context:
//
//	cell := seqring.NewResultCell(func(ctx context.Context) (int, error) {
//	    return compute(ctx)
//	})
//	go cell.Run()
//	v, err := cell.Get(ctx)
//
// Cancel(true) cancels the running task's context; a task that never
// observes its context runs to completion and its result is discarded.
package seqring
