package utils

import (
	"context"
	"sync"

	goutils "go.viam.com/utils"
)

// StoppableWorkers is a set of goroutines sharing one context that is cancelled by Stop.
type StoppableWorkers interface {
	AddWorkers(...func(context.Context))
	Stop()
	Context() context.Context
}

// stoppableWorkersImpl is only handed out behind the interface since it holds a WaitGroup.
type stoppableWorkersImpl struct {
	mu         sync.Mutex
	ctx        context.Context
	cancel     func()
	activeWork sync.WaitGroup
}

// NewStoppableWorkers runs each function in its own goroutine until Stop is called.
func NewStoppableWorkers(funcs ...func(context.Context)) StoppableWorkers {
	return NewStoppableWorkersWithContext(context.Background(), funcs...)
}

// NewStoppableWorkersWithContext is NewStoppableWorkers with workers that also stop when parent is
// done.
func NewStoppableWorkersWithContext(parent context.Context, funcs ...func(context.Context)) StoppableWorkers {
	ctx, cancel := context.WithCancel(parent)
	workers := &stoppableWorkersImpl{ctx: ctx, cancel: cancel}
	workers.AddWorkers(funcs...)
	return workers
}

// AddWorkers starts a goroutine per function. After Stop it does nothing. A panicking worker is
// logged and counted as finished.
func (sw *stoppableWorkersImpl) AddWorkers(funcs ...func(context.Context)) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.ctx.Err() != nil {
		return
	}

	sw.activeWork.Add(len(funcs))
	for _, f := range funcs {
		f := f
		goutils.PanicCapturingGo(func() {
			defer sw.activeWork.Done()
			f(sw.ctx)
		})
	}
}

// Stop cancels the workers' context and waits for all of them to return.
func (sw *stoppableWorkersImpl) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.cancel()
	sw.activeWork.Wait()
}

// Context is the context handed to every worker.
func (sw *stoppableWorkersImpl) Context() context.Context {
	return sw.ctx
}
