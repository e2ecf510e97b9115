// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqring_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/seqring"
)

// =============================================================================
// Test Helpers
// =============================================================================

// mustPanic fails the test unless f panics.
func mustPanic(t *testing.T, msg string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", msg)
		}
	}()
	f()
}

// =============================================================================
// Sequence
// =============================================================================

func TestSequenceBasic(t *testing.T) {
	s := seqring.NewSequence(seqring.InitialSequenceValue)

	if got := s.Get(); got != -1 {
		t.Fatalf("initial Get: got %d, want -1", got)
	}

	s.Set(7)
	if got := s.Get(); got != 7 {
		t.Fatalf("Get after Set(7): got %d, want 7", got)
	}

	s.SetVolatile(9)
	if got := s.Get(); got != 9 {
		t.Fatalf("Get after SetVolatile(9): got %d, want 9", got)
	}

	if s.CompareAndSet(8, 10) {
		t.Fatal("CompareAndSet(8, 10): succeeded with wrong expected value")
	}
	if !s.CompareAndSet(9, 10) {
		t.Fatal("CompareAndSet(9, 10): failed with correct expected value")
	}

	if got := s.IncrementAndGet(); got != 11 {
		t.Fatalf("IncrementAndGet: got %d, want 11", got)
	}
	if got := s.AddAndGet(4); got != 15 {
		t.Fatalf("AddAndGet(4): got %d, want 15", got)
	}
}

// =============================================================================
// Sequencer - Claiming and Publishing
// =============================================================================

func TestSequencerClaimPublish(t *testing.T) {
	sq := seqring.NewSequencer(8, seqring.NewBusySpinWaitStrategy())

	if got := sq.BufferSize(); got != 8 {
		t.Fatalf("BufferSize: got %d, want 8", got)
	}
	if got := sq.GetCursor(); got != -1 {
		t.Fatalf("initial cursor: got %d, want -1", got)
	}

	// No gating sequences: the producer only gates on itself.
	for i := range 8 {
		seq := sq.Next()
		if seq != int64(i) {
			t.Fatalf("Next(%d): got %d, want %d", i, seq, i)
		}
		sq.Publish(seq)
		if got := sq.GetCursor(); got != seq {
			t.Fatalf("cursor after Publish(%d): got %d", seq, got)
		}
		if !sq.IsAvailable(seq) {
			t.Fatalf("IsAvailable(%d): got false", seq)
		}
	}

	if sq.IsAvailable(8) {
		t.Fatal("IsAvailable(8): got true before publish")
	}
}

func TestSequencerNextN(t *testing.T) {
	sq := seqring.NewSequencer(16, seqring.NewBusySpinWaitStrategy())

	hi := sq.NextN(4)
	if hi != 3 {
		t.Fatalf("NextN(4): got %d, want 3", hi)
	}
	sq.PublishRange(0, hi)
	if got := sq.GetCursor(); got != 3 {
		t.Fatalf("cursor after PublishRange(0, 3): got %d, want 3", got)
	}

	if got := sq.GetHighestPublishedSequence(0, 3); got != 3 {
		t.Fatalf("GetHighestPublishedSequence(0, 3): got %d, want 3", got)
	}
}

func TestSequencerIdempotentPublish(t *testing.T) {
	sq := seqring.NewSequencer(8, seqring.NewBusySpinWaitStrategy())

	hi := sq.NextN(6)
	sq.Publish(hi)
	sq.Publish(hi)
	if got := sq.GetCursor(); got != hi {
		t.Fatalf("cursor after double Publish(%d): got %d", hi, got)
	}
}

func TestSequencerTryNextCapacity(t *testing.T) {
	sq := seqring.NewSequencer(4, seqring.NewBusySpinWaitStrategy())
	gate := seqring.NewSequence(seqring.InitialSequenceValue)
	sq.AddGatingSequences(gate)

	if got := sq.RemainingCapacity(); got != 4 {
		t.Fatalf("RemainingCapacity: got %d, want 4", got)
	}

	// Claim the whole ring while the consumer sits at -1.
	for i := range 4 {
		if !sq.HasAvailableCapacity(1) {
			t.Fatalf("HasAvailableCapacity before claim %d: got false", i)
		}
		seq, err := sq.TryNext()
		if err != nil {
			t.Fatalf("TryNext(%d): %v", i, err)
		}
		sq.Publish(seq)
	}

	// Full ring reports backpressure.
	if sq.HasAvailableCapacity(1) {
		t.Fatal("HasAvailableCapacity on full ring: got true")
	}
	if _, err := sq.TryNext(); !errors.Is(err, seqring.ErrInsufficientCapacity) {
		t.Fatalf("TryNext on full ring: got %v, want ErrInsufficientCapacity", err)
	}
	if _, err := sq.TryNext(); !seqring.IsInsufficientCapacity(err) {
		t.Fatalf("IsInsufficientCapacity: got false for %v", err)
	}
	if got := sq.RemainingCapacity(); got != 0 {
		t.Fatalf("RemainingCapacity on full ring: got %d, want 0", got)
	}

	// Consumer progress frees slots again.
	gate.Set(1)
	if got := sq.RemainingCapacity(); got != 2 {
		t.Fatalf("RemainingCapacity after gate.Set(1): got %d, want 2", got)
	}
	if !sq.HasAvailableCapacity(2) {
		t.Fatal("HasAvailableCapacity(2) after gate.Set(1): got false")
	}
	if seq, err := sq.TryNextN(2); err != nil || seq != 5 {
		t.Fatalf("TryNextN(2): got (%d, %v), want (5, nil)", seq, err)
	}
}

func TestSequencerClaimForInitialization(t *testing.T) {
	sq := seqring.NewSequencer(8, seqring.NewBusySpinWaitStrategy())

	sq.Claim(41)
	sq.Publish(41)
	if got := sq.Next(); got != 42 {
		t.Fatalf("Next after Claim(41): got %d, want 42", got)
	}
}

func TestSequencerRemoveGatingSequence(t *testing.T) {
	sq := seqring.NewSequencer(4, seqring.NewBusySpinWaitStrategy())
	gate := seqring.NewSequence(seqring.InitialSequenceValue)
	sq.AddGatingSequences(gate)

	// Fill against the gate, then remove it: capacity comes back.
	for range 4 {
		seq, err := sq.TryNext()
		if err != nil {
			t.Fatalf("TryNext: %v", err)
		}
		sq.Publish(seq)
	}
	if _, err := sq.TryNext(); !errors.Is(err, seqring.ErrInsufficientCapacity) {
		t.Fatalf("TryNext on full ring: got %v, want ErrInsufficientCapacity", err)
	}

	if !sq.RemoveGatingSequence(gate) {
		t.Fatal("RemoveGatingSequence: got false for member")
	}
	if sq.RemoveGatingSequence(gate) {
		t.Fatal("RemoveGatingSequence: got true for non-member")
	}
	if _, err := sq.TryNext(); err != nil {
		t.Fatalf("TryNext after gate removal: %v", err)
	}
}

func TestSequencerArgumentPanics(t *testing.T) {
	mustPanic(t, "NewSequencer(6)", func() {
		seqring.NewSequencer(6, seqring.NewBusySpinWaitStrategy())
	})
	mustPanic(t, "NewSequencer(0)", func() {
		seqring.NewSequencer(0, seqring.NewBusySpinWaitStrategy())
	})
	mustPanic(t, "NewSequencer(-8)", func() {
		seqring.NewSequencer(-8, seqring.NewBusySpinWaitStrategy())
	})

	sq := seqring.NewSequencer(8, seqring.NewBusySpinWaitStrategy())
	mustPanic(t, "NextN(0)", func() { sq.NextN(0) })
	mustPanic(t, "TryNextN(0)", func() { _, _ = sq.TryNextN(0) })
}

// =============================================================================
// SequenceBarrier
// =============================================================================

func TestBarrierAlertLifecycle(t *testing.T) {
	sq := seqring.NewSequencer(8, seqring.NewBlockingWaitStrategy())
	barrier := sq.NewBarrier()

	if barrier.IsAlerted() {
		t.Fatal("new barrier: IsAlerted true")
	}
	if err := barrier.CheckAlert(); err != nil {
		t.Fatalf("CheckAlert on clear barrier: %v", err)
	}

	barrier.Alert()
	if !barrier.IsAlerted() {
		t.Fatal("IsAlerted after Alert: got false")
	}
	if err := barrier.CheckAlert(); !errors.Is(err, seqring.ErrAlert) {
		t.Fatalf("CheckAlert after Alert: got %v, want ErrAlert", err)
	}
	if _, err := barrier.WaitFor(0); !errors.Is(err, seqring.ErrAlert) {
		t.Fatalf("WaitFor after Alert: got %v, want ErrAlert", err)
	}

	barrier.ClearAlert()
	if barrier.IsAlerted() {
		t.Fatal("IsAlerted after ClearAlert: got true")
	}
}

func TestBarrierWaitForPublished(t *testing.T) {
	sq := seqring.NewSequencer(8, seqring.NewBusySpinWaitStrategy())
	barrier := sq.NewBarrier()

	hi := sq.NextN(3)
	sq.Publish(hi)

	available, err := barrier.WaitFor(0)
	if err != nil {
		t.Fatalf("WaitFor(0): %v", err)
	}
	if available != 2 {
		t.Fatalf("WaitFor(0): got %d, want 2", available)
	}
	if got := barrier.GetCursor(); got != 2 {
		t.Fatalf("GetCursor: got %d, want 2", got)
	}
}

func TestBarrierDependentView(t *testing.T) {
	sq := seqring.NewSequencer(8, seqring.NewBusySpinWaitStrategy())
	upstream := seqring.NewSequence(seqring.InitialSequenceValue)
	barrier := sq.NewBarrier(upstream)

	hi := sq.NextN(4)
	sq.Publish(hi)

	// The dependent view tracks the upstream sequence, not the cursor.
	if got := barrier.GetCursor(); got != -1 {
		t.Fatalf("GetCursor before upstream progress: got %d, want -1", got)
	}
	upstream.Set(1)
	available, err := barrier.WaitFor(0)
	if err != nil {
		t.Fatalf("WaitFor(0): %v", err)
	}
	if available != 1 {
		t.Fatalf("WaitFor(0): got %d, want 1", available)
	}
}

// =============================================================================
// Wait Strategies
// =============================================================================

func TestTimeoutBlockingWaitStrategyTimesOut(t *testing.T) {
	sq := seqring.NewSequencer(8, seqring.NewTimeoutBlockingWaitStrategy(5*time.Millisecond))
	barrier := sq.NewBarrier()

	start := time.Now()
	if _, err := barrier.WaitFor(0); !errors.Is(err, seqring.ErrTimeout) {
		t.Fatalf("WaitFor on empty ring: got %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout took %v", elapsed)
	}
}

func TestWaitStrategiesReturnPublished(t *testing.T) {
	strategies := map[string]seqring.WaitStrategy{
		"busy-spin":        seqring.NewBusySpinWaitStrategy(),
		"yielding":         seqring.NewYieldingWaitStrategy(),
		"blocking":         seqring.NewBlockingWaitStrategy(),
		"timeout-blocking": seqring.NewTimeoutBlockingWaitStrategy(time.Second),
	}
	for name, ws := range strategies {
		t.Run(name, func(t *testing.T) {
			sq := seqring.NewSequencer(8, ws)
			barrier := sq.NewBarrier()
			sq.Publish(sq.NextN(5))

			available, err := barrier.WaitFor(3)
			if err != nil {
				t.Fatalf("WaitFor(3): %v", err)
			}
			if available != 4 {
				t.Fatalf("WaitFor(3): got %d, want 4", available)
			}
		})
	}
}

// =============================================================================
// RingBuffer and Builder
// =============================================================================

func TestRingBufferSlotReuse(t *testing.T) {
	ring := seqring.NewRingBuffer[int](4, seqring.NewBusySpinWaitStrategy())

	if ring.BufferSize() != 4 {
		t.Fatalf("BufferSize: got %d, want 4", ring.BufferSize())
	}
	// Logical sequences a buffer apart share the same physical slot.
	if ring.Get(0) != ring.Get(4) {
		t.Fatal("Get(0) and Get(4): want same slot")
	}
	if ring.Get(1) == ring.Get(2) {
		t.Fatal("Get(1) and Get(2): want distinct slots")
	}
}

func TestRingBufferPublishEvent(t *testing.T) {
	ring := seqring.Build[int](seqring.New(8).BusySpin())

	ring.PublishEvent(func(slot *int, sequence int64) {
		*slot = int(sequence) + 100
	})
	if got := ring.GetCursor(); got != 0 {
		t.Fatalf("cursor after PublishEvent: got %d, want 0", got)
	}
	if got := *ring.Get(0); got != 100 {
		t.Fatalf("slot 0: got %d, want 100", got)
	}

	if err := ring.TryPublishEvent(func(slot *int, sequence int64) {
		*slot = int(sequence) + 100
	}); err != nil {
		t.Fatalf("TryPublishEvent: %v", err)
	}
	if got := *ring.Get(1); got != 101 {
		t.Fatalf("slot 1: got %d, want 101", got)
	}
}

func TestTryPublishEventBackpressure(t *testing.T) {
	ring := seqring.Build[int](seqring.New(2).BusySpin())
	gate := seqring.NewSequence(seqring.InitialSequenceValue)
	ring.AddGatingSequences(gate)

	fill := func(slot *int, sequence int64) { *slot = int(sequence) }
	if err := ring.TryPublishEvent(fill); err != nil {
		t.Fatalf("TryPublishEvent(0): %v", err)
	}
	if err := ring.TryPublishEvent(fill); err != nil {
		t.Fatalf("TryPublishEvent(1): %v", err)
	}
	if err := ring.TryPublishEvent(fill); !errors.Is(err, seqring.ErrInsufficientCapacity) {
		t.Fatalf("TryPublishEvent on full ring: got %v, want ErrInsufficientCapacity", err)
	}
}

func TestBuilderPanics(t *testing.T) {
	mustPanic(t, "New(3)", func() { seqring.New(3) })
	mustPanic(t, "New(0)", func() { seqring.New(0) })
	mustPanic(t, "NewRingBuffer(12)", func() {
		seqring.NewRingBuffer[int](12, seqring.NewBusySpinWaitStrategy())
	})
}
