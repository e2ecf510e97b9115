// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqring

import "code.hybscloud.com/atomix"

// InitialSequenceValue is the starting point of every sequence: one
// before the first claimable slot.
const InitialSequenceValue int64 = -1

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte

// Sequence is a monotonic 64-bit counter identifying a logical position
// in the stream. The counter is padded on both sides so neighbouring
// allocations never share its cache line.
//
// Reads used to gate slot access carry acquire semantics; Set is a
// release store, pairing a publisher's slot writes with a consumer's
// subsequent reads.
type Sequence struct {
	_     pad
	value atomix.Int64
	_     padShort
}

// NewSequence creates a sequence with the given starting value,
// typically InitialSequenceValue.
func NewSequence(initial int64) *Sequence {
	s := &Sequence{}
	s.value.StoreRelaxed(initial)
	return s
}

// Get returns the current value with acquire semantics.
func (s *Sequence) Get() int64 {
	return s.value.LoadAcquire()
}

// Set writes the value with release semantics.
func (s *Sequence) Set(value int64) {
	s.value.StoreRelease(value)
}

// SetVolatile writes the value with sequentially consistent semantics,
// for callers that need a stronger store than the release store of Set.
func (s *Sequence) SetVolatile(value int64) {
	s.value.Store(value)
}

// CompareAndSet atomically replaces the value if it equals expected.
func (s *Sequence) CompareAndSet(expected, value int64) bool {
	return s.value.CompareAndSwapAcqRel(expected, value)
}

// IncrementAndGet atomically adds one and returns the new value.
func (s *Sequence) IncrementAndGet() int64 {
	return s.value.AddAcqRel(1)
}

// AddAndGet atomically adds n and returns the new value.
func (s *Sequence) AddAndGet(n int64) int64 {
	return s.value.AddAcqRel(n)
}

// sequenceView is the read-side contract shared by a single Sequence
// and a fixed group of sequences. Wait strategies observe the dependent
// progress through it.
type sequenceView interface {
	Get() int64
}

// fixedSequenceGroup presents the minimum of a fixed set of sequences.
// Membership never changes after construction; barriers use it as the
// dependent view when a processor gates on upstream processors.
type fixedSequenceGroup struct {
	sequences []*Sequence
}

func newFixedSequenceGroup(sequences []*Sequence) *fixedSequenceGroup {
	group := make([]*Sequence, len(sequences))
	copy(group, sequences)
	return &fixedSequenceGroup{sequences: group}
}

// Get returns the minimum value among the group members.
func (g *fixedSequenceGroup) Get() int64 {
	return minimumSequence(g.sequences, int64(^uint64(0)>>1))
}

// minimumSequence returns the smallest value among sequences, or
// fallback when the slice is empty.
func minimumSequence(sequences []*Sequence, fallback int64) int64 {
	minimum := fallback
	for _, seq := range sequences {
		if v := seq.Get(); v < minimum {
			minimum = v
		}
	}
	return minimum
}
