// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqring

import (
	"sync/atomic"
	"time"
)

// Sequencer coordinates claiming and publishing of slots for a single
// producer. It owns the producer cursor, the buffer size and the set of
// gating sequences of the slowest consumers.
//
// Claiming (Next, NextN, TryNext, TryNextN, Claim) is single-threaded:
// at most one goroutine may claim at a time. The cursor is the sole
// cross-thread handshake; its release store on Publish pairs with
// consumer acquire loads through the barrier.
type Sequencer struct {
	bufferSize   int64
	waitStrategy WaitStrategy
	cursor       *Sequence
	gating       atomic.Pointer[[]*Sequence]

	// nextValue and cachedValue are producer-private. Padded so the
	// producer's hot fields never share a cache line with the gating
	// snapshot pointer or neighbouring allocations.
	_           pad
	nextValue   int64
	cachedValue int64
	_           padShort
}

// NewSequencer creates a single-producer sequencer over bufferSize
// slots using the given wait strategy.
//
// Panics unless bufferSize is a positive power of two.
func NewSequencer(bufferSize int, waitStrategy WaitStrategy) *Sequencer {
	if bufferSize < 1 || bufferSize&(bufferSize-1) != 0 {
		panic("seqring: buffer size must be a positive power of two")
	}
	s := &Sequencer{
		bufferSize:   int64(bufferSize),
		waitStrategy: waitStrategy,
		cursor:       NewSequence(InitialSequenceValue),
		nextValue:    InitialSequenceValue,
		cachedValue:  InitialSequenceValue,
	}
	s.gating.Store(&[]*Sequence{})
	return s
}

// BufferSize returns the number of slots the sequencer coordinates.
func (s *Sequencer) BufferSize() int64 {
	return s.bufferSize
}

// GetCursor returns the highest published sequence.
func (s *Sequencer) GetCursor() int64 {
	return s.cursor.Get()
}

// HasAvailableCapacity reports whether n more slots could be claimed
// without waiting on a gating sequence.
func (s *Sequencer) HasAvailableCapacity(n int) bool {
	nextValue := s.nextValue
	wrapPoint := (nextValue + int64(n)) - s.bufferSize
	cachedGatingSequence := s.cachedValue

	if wrapPoint > cachedGatingSequence || cachedGatingSequence > nextValue {
		minSequence := minimumSequence(*s.gating.Load(), nextValue)
		s.cachedValue = minSequence

		if wrapPoint > minSequence {
			return false
		}
	}
	return true
}

// Next claims the next sequence number, waiting for slow consumers if
// the ring would wrap. Returns the claimed sequence.
func (s *Sequencer) Next() int64 {
	return s.NextN(1)
}

// NextN claims the next n contiguous sequence numbers and returns the
// highest. Blocks while the wrap point is ahead of the slowest gating
// sequence.
//
// Panics if n < 1.
func (s *Sequencer) NextN(n int) int64 {
	if n < 1 {
		panic("seqring: n must be > 0")
	}

	nextValue := s.nextValue
	nextSequence := nextValue + int64(n)
	wrapPoint := nextSequence - s.bufferSize
	cachedGatingSequence := s.cachedValue

	// The second guard fires when Claim has moved nextValue behind the
	// cached gate; it forces a refresh rather than trusting the stale
	// cache.
	if wrapPoint > cachedGatingSequence || cachedGatingSequence > nextValue {
		var minSequence int64
		for {
			minSequence = minimumSequence(*s.gating.Load(), nextValue)
			if wrapPoint <= minSequence {
				break
			}
			time.Sleep(time.Nanosecond)
		}
		s.cachedValue = minSequence
	}

	s.nextValue = nextSequence
	return nextSequence
}

// TryNext claims the next sequence number without waiting.
// Returns ErrInsufficientCapacity when the ring is full.
func (s *Sequencer) TryNext() (int64, error) {
	return s.TryNextN(1)
}

// TryNextN claims n contiguous sequence numbers without waiting and
// returns the highest. Returns ErrInsufficientCapacity when a full
// recomputation of the gating minimum still cannot satisfy the wrap
// condition.
//
// Panics if n < 1.
func (s *Sequencer) TryNextN(n int) (int64, error) {
	if n < 1 {
		panic("seqring: n must be > 0")
	}

	if !s.HasAvailableCapacity(n) {
		return 0, ErrInsufficientCapacity
	}

	s.nextValue += int64(n)
	return s.nextValue, nil
}

// RemainingCapacity returns the number of slots the producer could
// claim before waiting on a consumer.
func (s *Sequencer) RemainingCapacity() int64 {
	nextValue := s.nextValue
	consumed := minimumSequence(*s.gating.Load(), nextValue)
	return s.bufferSize - (nextValue - consumed)
}

// Claim sets the producer position directly. Initialization only; must
// not race with Next or Publish.
func (s *Sequencer) Claim(sequence int64) {
	s.nextValue = sequence
}

// Publish makes sequence, and every sequence before it, visible to
// consumers and wakes blocked waiters. Republishing the same sequence
// leaves the cursor unchanged.
func (s *Sequencer) Publish(sequence int64) {
	s.cursor.Set(sequence)
	s.waitStrategy.SignalAllWhenBlocking()
}

// PublishRange publishes the range [lo, hi]. The single-producer
// invariant makes the range contiguous, so it degenerates to
// Publish(hi).
func (s *Sequencer) PublishRange(_, hi int64) {
	s.Publish(hi)
}

// IsAvailable reports whether sequence has been published.
func (s *Sequencer) IsAvailable(sequence int64) bool {
	return sequence <= s.cursor.Get()
}

// GetHighestPublishedSequence returns the highest contiguously
// published sequence in [lowerBound, available]. A single producer
// publishes contiguously, so this is available unchanged.
func (s *Sequencer) GetHighestPublishedSequence(_, available int64) int64 {
	return available
}

// AddGatingSequences adds consumer sequences that gate the producer.
// The new members are brought up to the current cursor before the
// atomic snapshot swap, so the gating minimum never observes a stale
// initial value.
func (s *Sequencer) AddGatingSequences(sequences ...*Sequence) {
	for {
		current := s.gating.Load()
		updated := make([]*Sequence, len(*current), len(*current)+len(sequences))
		copy(updated, *current)
		cursorValue := s.cursor.Get()
		for _, seq := range sequences {
			seq.Set(cursorValue)
			updated = append(updated, seq)
		}
		if s.gating.CompareAndSwap(current, &updated) {
			return
		}
	}
}

// RemoveGatingSequence removes a gating sequence. Returns whether the
// sequence was a member.
func (s *Sequencer) RemoveGatingSequence(sequence *Sequence) bool {
	for {
		current := s.gating.Load()
		updated := make([]*Sequence, 0, len(*current))
		found := false
		for _, seq := range *current {
			if seq == sequence {
				found = true
				continue
			}
			updated = append(updated, seq)
		}
		if !found {
			return false
		}
		if s.gating.CompareAndSwap(current, &updated) {
			return true
		}
	}
}

// NewBarrier creates a barrier gating on the producer cursor and the
// given upstream sequences.
func (s *Sequencer) NewBarrier(dependents ...*Sequence) *SequenceBarrier {
	return newSequenceBarrier(s, s.waitStrategy, s.cursor, dependents)
}
