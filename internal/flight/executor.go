package flight

import (
	"github.com/sourcegraph/conc/pool"
)

// Executor runs computation tasks submitted by a Cache. Submit is always
// called outside the cache lock.
type Executor interface {
	Submit(task func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(task func())

// Submit makes ExecutorFunc satisfy Executor.
func (f ExecutorFunc) Submit(task func()) {
	f(task)
}

type inlineExecutor struct{}

func (inlineExecutor) Submit(task func()) {
	task()
}

// Inline returns an Executor that runs each task on the submitting goroutine
// before Submit returns.
func Inline() Executor {
	return inlineExecutor{}
}

// Pool runs tasks on at most n goroutines. Submit blocks while all workers are
// busy.
type Pool struct {
	p *pool.Pool
}

// NewPool creates a Pool with the given number of workers (minimum 1).
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{p: pool.New().WithMaxGoroutines(workers)}
}

func (p *Pool) Submit(task func()) {
	p.p.Go(task)
}

// Close waits for running tasks. The pool must not be used afterwards.
func (p *Pool) Close() {
	p.p.Wait()
}
