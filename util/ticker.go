package util

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spikeekips/recordtimer/util/logging"
)

// Ticker calls the handler once per interval in its own goroutine. Handler
// calls never overlap, even across Suspend and Resume; a late tick is queued
// and fired right after the previous call returns, so missed intervals are
// caught up instead of dropped.
type Ticker struct {
	*logging.Logging
	handler  func(context.Context)
	cancel   func()
	wg       sync.WaitGroup
	interval time.Duration
	closed   bool
	hlock    sync.Mutex
	sync.RWMutex
}

func NewTicker(name string) *Ticker {
	return &Ticker{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "ticker").Str("ticker", name)
		}),
	}
}

// Configure sets the interval and the handler. It fails while the ticker is
// running.
func (t *Ticker) Configure(interval time.Duration, handler func(context.Context)) error {
	t.Lock()
	defer t.Unlock()

	switch {
	case t.cancel != nil:
		return ErrTickerRunning.Call()
	case interval < time.Nanosecond:
		return ErrInvalid.Errorf("too narrow interval, %v", interval)
	case handler == nil:
		return ErrInvalid.Errorf("empty handler")
	}

	t.interval = interval
	t.handler = handler

	return nil
}

func (t *Ticker) IsConfigured() bool {
	t.RLock()
	defer t.RUnlock()

	return t.handler != nil
}

func (t *Ticker) IsRunning() bool {
	t.RLock()
	defer t.RUnlock()

	return t.cancel != nil
}

// Resume starts firing; the first call happens one interval later. Resuming
// a running ticker does nothing. A closed ticker can not be resumed.
func (t *Ticker) Resume() error {
	t.Lock()
	defer t.Unlock()

	switch {
	case t.closed:
		return ErrDaemonAlreadyStopped.Errorf("ticker closed")
	case t.cancel != nil:
		return nil
	case t.handler == nil:
		return ErrInvalid.Errorf("ticker not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.wg.Add(1)

	go t.loop(ctx, t.interval, t.handler)

	t.Log().Trace().Dur("interval", t.interval).Msg("resumed")

	return nil
}

// Suspend stops future calls without waiting for the call in flight. The
// context of the call in flight is canceled before Suspend returns.
func (t *Ticker) Suspend() {
	t.Lock()
	defer t.Unlock()

	if t.cancel == nil {
		return
	}

	t.cancel()
	t.cancel = nil

	t.Log().Trace().Msg("suspended")
}

// Close suspends the ticker and waits until every ticker goroutine exits. Do
// not call it while holding a lock which the handler acquires.
func (t *Ticker) Close() error {
	t.Lock()
	t.closed = true
	t.Unlock()

	t.Suspend()
	t.wg.Wait()

	return nil
}

func (t *Ticker) loop(ctx context.Context, interval time.Duration, handler func(context.Context)) {
	defer t.wg.Done()

	next := time.Now().Add(interval)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		t.fire(ctx, handler)

		next = next.Add(interval)

		d := time.Until(next)
		if d < 0 {
			d = 0
		}

		timer.Reset(d)
	}
}

func (t *Ticker) fire(ctx context.Context, handler func(context.Context)) {
	t.hlock.Lock()
	defer t.hlock.Unlock()

	if ctx.Err() != nil {
		return
	}

	handler(ctx)
}
