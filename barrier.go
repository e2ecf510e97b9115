// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqring

import "code.hybscloud.com/atomix"

// SequenceBarrier gates a processor on the producer cursor and on the
// sequences of zero or more upstream processors, using the sequencer's
// wait strategy. It also carries the alert flag used for cooperative
// shutdown.
//
// Create barriers with Sequencer.NewBarrier; one barrier per processor.
type SequenceBarrier struct {
	sequencer    *Sequencer
	waitStrategy WaitStrategy
	cursor       *Sequence
	dependent    sequenceView
	alerted      atomix.Bool
}

func newSequenceBarrier(sequencer *Sequencer, waitStrategy WaitStrategy, cursor *Sequence, dependents []*Sequence) *SequenceBarrier {
	b := &SequenceBarrier{
		sequencer:    sequencer,
		waitStrategy: waitStrategy,
		cursor:       cursor,
	}
	// A processor with no upstream dependencies gates directly on the
	// producer cursor.
	if len(dependents) == 0 {
		b.dependent = cursor
	} else {
		b.dependent = newFixedSequenceGroup(dependents)
	}
	return b
}

// WaitFor blocks until sequence is consumable and returns the highest
// contiguously published sequence, which may be greater than the one
// requested. It may also return a value less than the requested
// sequence, in which case the caller must wait again.
//
// Returns ErrAlert when the barrier has been alerted and ErrTimeout when
// the wait strategy's deadline elapsed.
func (b *SequenceBarrier) WaitFor(sequence int64) (int64, error) {
	if err := b.CheckAlert(); err != nil {
		return 0, err
	}

	available, err := b.waitStrategy.WaitFor(sequence, b.cursor, b.dependent, b)
	if err != nil {
		return 0, err
	}
	if available < sequence {
		return available, nil
	}

	return b.sequencer.GetHighestPublishedSequence(sequence, available), nil
}

// GetCursor returns the value of the dependent view: the producer
// cursor when the barrier has no upstream dependencies, otherwise the
// minimum of the upstream sequences.
func (b *SequenceBarrier) GetCursor() int64 {
	return b.dependent.Get()
}

// IsAlerted reports whether the barrier is in alert state.
func (b *SequenceBarrier) IsAlerted() bool {
	return b.alerted.Load()
}

// Alert puts the barrier into alert state and wakes any blocked
// waiters. Waiters observe it as ErrAlert from WaitFor.
func (b *SequenceBarrier) Alert() {
	b.alerted.Store(true)
	b.waitStrategy.SignalAllWhenBlocking()
}

// ClearAlert clears the alert state.
func (b *SequenceBarrier) ClearAlert() {
	b.alerted.Store(false)
}

// CheckAlert returns ErrAlert if the barrier is in alert state.
func (b *SequenceBarrier) CheckAlert() error {
	if b.alerted.Load() {
		return ErrAlert
	}
	return nil
}
