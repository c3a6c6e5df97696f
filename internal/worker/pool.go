package worker

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"auth-backend/internal/apperr"
)

// Pool bounds how many CPU-bound tasks run at once across all requests.
type Pool struct {
	sem  *semaphore.Weighted
	size int64
}

// NewPool returns a pool running at most size tasks at once. Sizes below one
// are raised to one.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

func (p *Pool) Size() int { return int(p.size) }

// Do runs fn once a slot is free. Failing to get a slot before ctx ends, or
// a panic inside fn, is reported as a BlockingTask error. Errors returned
// by fn are passed through untouched.
func (p *Pool) Do(ctx context.Context, fn func() error) (err error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return apperr.BlockingTask(fmt.Errorf("acquire worker: %w", err))
	}
	defer p.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			err = apperr.BlockingTask(fmt.Errorf("task panicked: %v\n%s", r, debug.Stack()))
		}
	}()
	return fn()
}

// Group runs tasks concurrently, each through the pool, and returns the
// first error.
type Group struct {
	pool *Pool
	g    *errgroup.Group
	ctx  context.Context
}

// Group starts a task group bound to ctx. The group context is cancelled
// when the first task fails.
func (p *Pool) Group(ctx context.Context) *Group {
	g, gctx := errgroup.WithContext(ctx)
	return &Group{pool: p, g: g, ctx: gctx}
}

func (g *Group) Go(fn func() error) {
	g.g.Go(func() error {
		return g.pool.Do(g.ctx, fn)
	})
}

func (g *Group) Wait() error {
	return g.g.Wait()
}
