package util

import (
	"context"
	"sync"
)

// ContextDaemon runs the callback in its own goroutine until the callback
// returns or Stop cancels its context.
type ContextDaemon struct {
	callback func(context.Context) error
	cancel   func()
	done     chan struct{}
	sync.RWMutex
}

func NewContextDaemon(startfunc func(context.Context) error) *ContextDaemon {
	return &ContextDaemon{callback: startfunc}
}

func (dm *ContextDaemon) IsStarted() bool {
	dm.RLock()
	defer dm.RUnlock()

	return dm.cancel != nil
}

func (dm *ContextDaemon) Start(ctx context.Context) error {
	dm.Lock()
	defer dm.Unlock()

	if dm.cancel != nil {
		return ErrDaemonAlreadyStarted.Call()
	}

	dm.run(ctx)

	return nil
}

func (dm *ContextDaemon) Stop() error {
	dm.Lock()

	if dm.cancel == nil {
		dm.Unlock()

		return ErrDaemonAlreadyStopped.Call()
	}

	cancel, done := dm.cancel, dm.done
	dm.cancel = nil
	dm.Unlock()

	cancel()
	<-done

	return nil
}

func (dm *ContextDaemon) run(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	dm.cancel = cancel
	dm.done = done

	go func() {
		_ = dm.callback(cctx)

		dm.Lock()
		if dm.done == done {
			dm.cancel = nil
		}
		dm.Unlock()

		cancel()
		close(done)
	}()
}
