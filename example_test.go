// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// This file contains examples that drive processors concurrently.
// Sequence gating appears as regular memory accesses to Go's race
// detector, so the examples are excluded from race testing.

package seqring_test

import (
	"context"
	"fmt"
	"time"

	"code.hybscloud.com/seqring"
)

// ExampleRingBuffer demonstrates a single producer feeding one
// processor through a small ring.
func ExampleRingBuffer() {
	ring := seqring.Build[int](seqring.New(8))

	done := make(chan struct{})
	proc := seqring.NewBatchEventProcessor[int](ring, ring.NewBarrier(), seqring.Handler[int]{
		OnEvent: func(event *int, sequence int64, endOfBatch bool) error {
			fmt.Println(*event)
			if sequence == 4 {
				close(done)
			}
			return nil
		},
	})
	ring.AddGatingSequences(proc.GetSequence())
	go proc.Run()

	// Claim a slot, write it in place, publish.
	for i := 1; i <= 5; i++ {
		seq := ring.Next()
		*ring.Get(seq) = i * 10
		ring.Publish(seq)
	}

	<-done
	proc.Halt()

	// Output:
	// 10
	// 20
	// 30
	// 40
	// 50
}

// ExampleRingBuffer_TryPublishEvent demonstrates non-blocking publish
// with backpressure handling.
func ExampleRingBuffer_TryPublishEvent() {
	// No consumer attached: a gating sequence parked at the start
	// makes the ring fill up.
	ring := seqring.Build[int](seqring.New(2).BusySpin())
	ring.AddGatingSequences(seqring.NewSequence(seqring.InitialSequenceValue))

	for i := range 3 {
		err := ring.TryPublishEvent(func(slot *int, sequence int64) {
			*slot = i
		})
		if seqring.IsInsufficientCapacity(err) {
			fmt.Println("ring full - handle backpressure")
			continue
		}
		fmt.Println("published", i)
	}

	// Output:
	// published 0
	// published 1
	// ring full - handle backpressure
}

// ExampleResultCell demonstrates a one-shot computation retrieved by a
// waiter, with cooperative cancellation left unused.
func ExampleResultCell() {
	cell := seqring.NewResultCell(func(ctx context.Context) (string, error) {
		time.Sleep(time.Millisecond)
		return "ready", nil
	})
	go cell.Run()

	v, err := cell.Get(context.Background())
	fmt.Println(v, err)

	// Output:
	// ready <nil>
}
