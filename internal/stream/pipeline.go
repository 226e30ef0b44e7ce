// Package stream implements the stage-to-stage backpressured streaming
// fabric described in §4.F/§5: each stage runs over a channel of inputs
// with a bounded number of in-flight operations, forwarding outputs
// downstream through an unbuffered channel (so a slow consumer naturally
// throttles upstream production) and stopping newly scheduled work as soon
// as the caller's context is canceled.
package stream

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultFanout is the default number of in-flight async operations a
// single stage is allowed, per §4.F.
const DefaultFanout = 500

// Stage transforms one input item into zero or more output items,
// possibly performing async I/O in the process (offset/column-index and
// page fetches all happen inside a Stage call).
type Stage[T any] func(ctx context.Context, item T) ([]T, error)

// Run applies stage to every item received on in, with at most fanout
// items being processed concurrently. The returned channel is closed once
// in has been closed and every item taken from it has finished; after an
// error or a cancellation, items still arriving on in are drained without
// being processed. The returned error function blocks until the stage has
// finished and reports the first error encountered, if any. Output already
// sent downstream before an error stays sent (§7: "partial output already
// emitted is kept"); an item still in flight when the context is canceled
// stops sending, and its remaining results are dropped.
func Run[T any](ctx context.Context, in <-chan T, stage Stage[T], fanout int) (out <-chan T, wait func() error) {
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	outCh := make(chan T)
	sem := semaphore.NewWeighted(int64(fanout))
	cctx, cancel := context.WithCancel(ctx)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	reportErr := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(outCh)
		for item := range in {
			if cctx.Err() != nil {
				// Draining: stop scheduling new fetches, per §5
				// cancellation semantics, but let in-flight work (tracked
				// by wg below) finish.
				continue
			}
			if err := sem.Acquire(cctx, 1); err != nil {
				continue
			}
			wg.Add(1)
			go func(item T) {
				defer wg.Done()
				defer sem.Release(1)
				results, err := stage(cctx, item)
				if err != nil {
					reportErr(err)
					return
				}
				for _, r := range results {
					select {
					case outCh <- r:
					case <-cctx.Done():
						return
					}
				}
			}(item)
		}
		wg.Wait()
	}()

	return outCh, func() error {
		<-done
		cancel()
		return firstErr
	}
}

// Chain composes stages left to right, feeding the output of each into the
// next, which is how Query wires successive filter phases together (§2
// "Data flow").
func Chain[T any](ctx context.Context, in <-chan T, stages []Stage[T], fanout int) (out <-chan T, wait func() error) {
	waits := make([]func() error, 0, len(stages))
	cur := in
	for _, st := range stages {
		var w func() error
		cur, w = Run(ctx, cur, st, fanout)
		waits = append(waits, w)
	}
	return cur, func() error {
		var first error
		for _, w := range waits {
			if err := w(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
}
