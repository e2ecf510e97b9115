// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqring

// DataProvider maps a logical sequence to the slot that holds its
// event. Processors read slots through it after the barrier has
// reported the sequence available.
type DataProvider[T any] interface {
	// Get returns the slot for the given sequence. The pointer is only
	// valid for sequences the caller currently owns: claimed but not
	// yet published on the producer side, or reported available and not
	// yet released on the consumer side.
	Get(sequence int64) *T
}

// RingBuffer is a fixed-capacity circular slot array coordinated by a
// single-producer Sequencer. Slots are preallocated and mutated in
// place; the hot path allocates nothing.
//
// The producer claims a sequence, writes the slot returned by Get, then
// publishes. Consumers attach via NewBarrier and BatchEventProcessor.
type RingBuffer[T any] struct {
	_         pad
	entries   []T
	mask      int64
	sequencer *Sequencer
	_         pad
}

// NewRingBuffer creates a ring of bufferSize preallocated slots with a
// single-producer sequencer using the given wait strategy.
//
// Panics unless bufferSize is a positive power of two.
func NewRingBuffer[T any](bufferSize int, waitStrategy WaitStrategy) *RingBuffer[T] {
	sequencer := NewSequencer(bufferSize, waitStrategy)
	return &RingBuffer[T]{
		entries:   make([]T, bufferSize),
		mask:      int64(bufferSize) - 1,
		sequencer: sequencer,
	}
}

// Get returns the slot at the given sequence.
func (r *RingBuffer[T]) Get(sequence int64) *T {
	return &r.entries[sequence&r.mask]
}

// Sequencer returns the producer-side coordinator.
func (r *RingBuffer[T]) Sequencer() *Sequencer {
	return r.sequencer
}

// BufferSize returns the number of slots.
func (r *RingBuffer[T]) BufferSize() int64 {
	return r.sequencer.BufferSize()
}

// GetCursor returns the highest published sequence.
func (r *RingBuffer[T]) GetCursor() int64 {
	return r.sequencer.GetCursor()
}

// Next claims the next sequence, waiting for capacity. Producer only.
func (r *RingBuffer[T]) Next() int64 {
	return r.sequencer.Next()
}

// NextN claims n contiguous sequences and returns the highest,
// waiting for capacity. Producer only.
func (r *RingBuffer[T]) NextN(n int) int64 {
	return r.sequencer.NextN(n)
}

// TryNext claims the next sequence without waiting.
// Returns ErrInsufficientCapacity when the ring is full.
func (r *RingBuffer[T]) TryNext() (int64, error) {
	return r.sequencer.TryNext()
}

// TryNextN claims n contiguous sequences without waiting.
// Returns ErrInsufficientCapacity when the ring is full.
func (r *RingBuffer[T]) TryNextN(n int) (int64, error) {
	return r.sequencer.TryNextN(n)
}

// Publish makes the slot at sequence visible to consumers.
func (r *RingBuffer[T]) Publish(sequence int64) {
	r.sequencer.Publish(sequence)
}

// PublishRange publishes the claimed range [lo, hi].
func (r *RingBuffer[T]) PublishRange(lo, hi int64) {
	r.sequencer.PublishRange(lo, hi)
}

// PublishEvent claims the next slot, fills it with translator and
// publishes it, waiting for capacity if the ring is full.
func (r *RingBuffer[T]) PublishEvent(translator func(slot *T, sequence int64)) {
	sequence := r.sequencer.Next()
	translator(r.Get(sequence), sequence)
	r.sequencer.Publish(sequence)
}

// TryPublishEvent is PublishEvent without waiting.
// Returns ErrInsufficientCapacity when the ring is full.
func (r *RingBuffer[T]) TryPublishEvent(translator func(slot *T, sequence int64)) error {
	sequence, err := r.sequencer.TryNext()
	if err != nil {
		return err
	}
	translator(r.Get(sequence), sequence)
	r.sequencer.Publish(sequence)
	return nil
}

// RemainingCapacity returns the free slot count as seen by the
// producer.
func (r *RingBuffer[T]) RemainingCapacity() int64 {
	return r.sequencer.RemainingCapacity()
}

// AddGatingSequences registers consumer sequences that gate the
// producer against overwriting unread slots.
func (r *RingBuffer[T]) AddGatingSequences(sequences ...*Sequence) {
	r.sequencer.AddGatingSequences(sequences...)
}

// RemoveGatingSequence deregisters a gating sequence.
func (r *RingBuffer[T]) RemoveGatingSequence(sequence *Sequence) bool {
	return r.sequencer.RemoveGatingSequence(sequence)
}

// NewBarrier creates a barrier over this ring gating on the producer
// cursor and the given upstream sequences.
func (r *RingBuffer[T]) NewBarrier(dependents ...*Sequence) *SequenceBarrier {
	return r.sequencer.NewBarrier(dependents...)
}
