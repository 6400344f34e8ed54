package cart

import (
	"context"
	"errors"
	"sync"
)

var ErrStoreClosed = errors.New("cart store closed")

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// mutationQueue runs jobs one at a time in arrival order. The jobs channel is
// unbuffered so a job is either taken by the worker or never accepted.
type mutationQueue struct {
	jobs chan job
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func newMutationQueue() *mutationQueue {
	q := &mutationQueue{
		jobs: make(chan job),
		stop: make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *mutationQueue) run() {
	defer q.wg.Done()
	for {
		select {
		case j := <-q.jobs:
			j.done <- j.fn(j.ctx)
		case <-q.stop:
			return
		}
	}
}

// do blocks until fn has run. Once accepted a job always runs to completion;
// ctx only bounds the wait for a turn.
func (q *mutationQueue) do(ctx context.Context, fn func(ctx context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	select {
	case q.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stop:
		return ErrStoreClosed
	}
	return <-j.done
}

func (q *mutationQueue) close() {
	q.once.Do(func() { close(q.stop) })
	q.wg.Wait()
}
