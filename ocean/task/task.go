// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package task schedules the data parallel parts of a simulation step.
package task

import (
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"
	"golang.org/x/sync/errgroup"
)

// Pool is a bounded set of workers. Tasks submitted through a Group share it.
type Pool struct {
	pool    pond.Pool
	workers int
}

// NewPool creates a pool with the given number of workers (GOMAXPROCS if < 1).
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{pool: pond.NewPool(workers), workers: workers}
}

var (
	defaultPool *Pool
	defaultOnce sync.Once
)

// Default returns the process wide pool, creating it on first use.
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool = NewPool(0)
	})
	return defaultPool
}

// Workers returns the maximum number of tasks running at once.
func (p *Pool) Workers() int {
	return p.workers
}

// StopAndWait waits for queued tasks and releases the workers.
// The pool can't be used afterwards.
func (p *Pool) StopAndWait() {
	p.pool.StopAndWait()
}

// Group is a set of tasks joined by a single barrier.
type Group struct {
	group pond.TaskGroup
}

// NewGroup starts an empty group on the pool.
func (p *Pool) NewGroup() *Group {
	return &Group{group: p.pool.NewGroup()}
}

// Submit queues fn. Tasks in a group have no ordering between them.
func (g *Group) Submit(fn func()) {
	g.group.Submit(fn)
}

// SubmitErr queues fn. The first error returned by any task is reported by Wait.
func (g *Group) SubmitErr(fn func() error) {
	g.group.SubmitErr(fn)
}

// Wait blocks until every submitted task has returned.
func (g *Group) Wait() error {
	return g.group.Wait()
}

// ParallelFor calls fn for each index in [0, n). The range is split into one
// contiguous chunk per CPU, unless n <= threshold in which case it runs inline.
func ParallelFor(n, threshold int, fn func(i int)) {
	if n <= 0 {
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if n <= threshold || workers < 2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		start := start
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
