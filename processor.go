// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqring

import (
	"errors"
	"fmt"

	"code.hybscloud.com/atomix"
)

// Handler is the event callback record for a BatchEventProcessor.
// OnEvent is required; the remaining fields are optional capabilities.
// Leaving a field nil disables that capability — no runtime type tests
// are involved.
type Handler[T any] struct {
	// OnEvent is invoked once per available slot, in sequence order.
	// endOfBatch is true for the last slot of the drained batch; use it
	// to defer expensive flushes until the batch boundary. A non-nil
	// error is routed to the exception handler and processing
	// continues with the next sequence.
	OnEvent func(event *T, sequence int64, endOfBatch bool) error

	// OnStart runs in the processor goroutine before the first wait.
	OnStart func()

	// OnShutdown runs in the processor goroutine after the loop exits.
	OnShutdown func()

	// OnTimeout is notified with the current sequence whenever the wait
	// strategy times out. The processor keeps running.
	OnTimeout func(sequence int64)

	// Sequence receives the processor's own sequence at construction.
	// A handler that processes slots asynchronously can use it to
	// advance the sequence mid-batch and release ring capacity early.
	Sequence func(*Sequence)
}

// ExceptionHandler is notified when OnEvent returns an error. The
// offending sequence is skipped so downstream consumers are never
// blocked; event may be nil when the failure did not originate from a
// slot.
type ExceptionHandler[T any] func(err error, sequence int64, event *T)

// BatchEventProcessor is a long-running worker that waits on a barrier
// and drains each contiguous range of newly available slots through a
// Handler, then advances its own sequence.
//
// Run occupies the calling goroutine until Halt. A halted processor can
// be restarted.
type BatchEventProcessor[T any] struct {
	running          atomix.Int32
	provider         DataProvider[T]
	barrier          *SequenceBarrier
	handler          Handler[T]
	sequence         *Sequence
	exceptionHandler ExceptionHandler[T]
}

// NewBatchEventProcessor creates a processor reading slots from
// provider as barrier reports them available.
//
// Panics if handler.OnEvent is nil.
func NewBatchEventProcessor[T any](provider DataProvider[T], barrier *SequenceBarrier, handler Handler[T]) *BatchEventProcessor[T] {
	if handler.OnEvent == nil {
		panic("seqring: handler.OnEvent must not be nil")
	}
	p := &BatchEventProcessor[T]{
		provider: provider,
		barrier:  barrier,
		handler:  handler,
		sequence: NewSequence(InitialSequenceValue),
	}
	if handler.Sequence != nil {
		handler.Sequence(p.sequence)
	}
	return p
}

// GetSequence returns the processor's own sequence: the last sequence
// it has finished handling. Register it as a gating sequence on the
// producer and as a dependent on downstream barriers.
func (p *BatchEventProcessor[T]) GetSequence() *Sequence {
	return p.sequence
}

// IsRunning reports whether Run is active.
func (p *BatchEventProcessor[T]) IsRunning() bool {
	return p.running.LoadAcquire() != 0
}

// Halt stops the processor after the in-flight batch and wakes it via
// the barrier alert.
func (p *BatchEventProcessor[T]) Halt() {
	p.running.StoreRelease(0)
	p.barrier.Alert()
}

// SetExceptionHandler replaces the default exception handler, which
// panics. Call before Run.
//
// Panics if handler is nil.
func (p *BatchEventProcessor[T]) SetExceptionHandler(handler ExceptionHandler[T]) {
	if handler == nil {
		panic("seqring: nil exception handler")
	}
	p.exceptionHandler = handler
}

// Run processes events until Halt. It occupies the calling goroutine;
// start it with `go`.
//
// Returns ErrRunning if the processor is already running in another
// goroutine. Returns nil after a halt.
func (p *BatchEventProcessor[T]) Run() error {
	if !p.running.CompareAndSwapAcqRel(0, 1) {
		return ErrRunning
	}
	defer func() {
		p.notifyShutdown()
		p.running.StoreRelease(0)
	}()

	p.barrier.ClearAlert()
	p.notifyStart()

	nextSequence := p.sequence.Get() + 1
loop:
	for {
		availableSequence, err := p.barrier.WaitFor(nextSequence)
		switch {
		case err == nil:
			for nextSequence <= availableSequence {
				event := p.provider.Get(nextSequence)
				if herr := p.handler.OnEvent(event, nextSequence, nextSequence == availableSequence); herr != nil {
					p.handleEventError(herr, nextSequence, event)
					// Skip the offending sequence so downstream
					// consumers are not blocked behind it.
					p.sequence.Set(nextSequence)
					nextSequence++
					continue loop
				}
				nextSequence++
			}
			p.sequence.Set(availableSequence)

		case errors.Is(err, ErrTimeout):
			p.notifyTimeout(p.sequence.Get())

		case errors.Is(err, ErrAlert):
			if p.running.LoadAcquire() == 0 {
				return nil
			}

		default:
			p.handleEventError(err, nextSequence, nil)
			p.sequence.Set(nextSequence)
			nextSequence++
		}
	}
}

func (p *BatchEventProcessor[T]) handleEventError(err error, sequence int64, event *T) {
	if p.exceptionHandler == nil {
		panic(fmt.Sprintf("seqring: unhandled event error at sequence %d: %v", sequence, err))
	}
	p.exceptionHandler(err, sequence, event)
}

func (p *BatchEventProcessor[T]) notifyTimeout(sequence int64) {
	if p.handler.OnTimeout != nil {
		p.handler.OnTimeout(sequence)
	}
}

func (p *BatchEventProcessor[T]) notifyStart() {
	if p.handler.OnStart != nil {
		p.handler.OnStart()
	}
}

func (p *BatchEventProcessor[T]) notifyShutdown() {
	if p.handler.OnShutdown != nil {
		p.handler.OnShutdown()
	}
}
