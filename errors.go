// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqring

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrInsufficientCapacity indicates a claim cannot proceed because the
// ring has no free slots: the slowest gating consumer has not yet moved
// past the wrap point.
//
// ErrInsufficientCapacity is a control flow signal, not a failure. The
// producer should retry later (with backoff) or fall back to the
// blocking Next.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrInsufficientCapacity = iox.ErrWouldBlock

// ErrAlert indicates the barrier has been alerted, usually because a
// processor is being halted. Propagated out of SequenceBarrier.WaitFor.
var ErrAlert = errors.New("seqring: barrier alerted")

// ErrTimeout indicates a deadline elapsed before the awaited sequence
// became available. Surfaced by TimeoutBlockingWaitStrategy and by
// ResultCell.GetTimeout.
var ErrTimeout = errors.New("seqring: timed out")

// ErrRunning indicates Run was called on a processor that is already
// running in another goroutine.
var ErrRunning = errors.New("seqring: processor already running")

// ErrCancelled indicates a ResultCell was cancelled before its
// computation completed. Returned by Get.
var ErrCancelled = errors.New("seqring: computation cancelled")

// ExecutionError wraps the failure of a ResultCell computation.
// Get returns it when the task returned a non-nil error; Unwrap exposes
// the cause.
type ExecutionError struct {
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("seqring: computation failed: %v", e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// IsInsufficientCapacity reports whether err indicates a full ring.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsInsufficientCapacity(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
