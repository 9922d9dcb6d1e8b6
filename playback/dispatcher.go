package playback

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spikeekips/recordtimer/util"
	"github.com/spikeekips/recordtimer/util/logging"
)

var _ util.Daemon = (*Dispatcher)(nil)

type subscription struct {
	f  Observer
	id uint64
}

// Dispatcher delivers events to observers from its own goroutine. Emit only
// appends to an unbounded queue and never blocks, so it can be called while
// holding the scheduler lock.
type Dispatcher struct {
	*logging.Logging
	*util.ContextDaemon
	executor  Executor
	notifych  chan struct{}
	queue     []Event
	observers []subscription
	lastid    uint64
	qlock     sync.Mutex
	olock     sync.RWMutex
}

func NewDispatcher(executor Executor) *Dispatcher {
	if executor == nil {
		executor = func(f func()) { f() } //revive:disable-line:modifies-parameter
	}

	d := &Dispatcher{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "event-dispatcher")
		}),
		executor: executor,
		notifych: make(chan struct{}, 1),
	}

	d.ContextDaemon = util.NewContextDaemon(d.start)

	return d
}

// Subscribe adds the observer and returns the function to remove it.
func (d *Dispatcher) Subscribe(f Observer) func() {
	d.olock.Lock()
	defer d.olock.Unlock()

	d.lastid++
	id := d.lastid

	d.observers = append(d.observers, subscription{id: id, f: f})

	var once sync.Once

	return func() {
		once.Do(func() {
			d.unsubscribe(id)
		})
	}
}

func (d *Dispatcher) unsubscribe(id uint64) {
	d.olock.Lock()
	defer d.olock.Unlock()

	for i := range d.observers {
		if d.observers[i].id == id {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)

			return
		}
	}
}

func (d *Dispatcher) Emit(events ...Event) {
	if len(events) < 1 {
		return
	}

	d.qlock.Lock()
	d.queue = append(d.queue, events...)
	d.qlock.Unlock()

	select {
	case d.notifych <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if n := d.pending(); n > 0 {
				d.Log().Debug().Int("events", n).Msg("stopped with undelivered events")
			}

			return nil
		case <-d.notifych:
			for _, e := range d.dequeue() {
				if ctx.Err() != nil {
					break
				}

				d.deliver(e)
			}
		}
	}
}

func (d *Dispatcher) dequeue() []Event {
	d.qlock.Lock()
	defer d.qlock.Unlock()

	events := d.queue
	d.queue = nil

	return events
}

func (d *Dispatcher) pending() int {
	d.qlock.Lock()
	defer d.qlock.Unlock()

	return len(d.queue)
}

func (d *Dispatcher) deliver(e Event) {
	d.olock.RLock()
	observers := make([]Observer, len(d.observers))

	for i := range d.observers {
		observers[i] = d.observers[i].f
	}
	d.olock.RUnlock()

	if len(observers) < 1 {
		return
	}

	d.executor(func() {
		for i := range observers {
			observers[i](e)
		}
	})
}
