package playback

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/recordtimer/util"
	"github.com/spikeekips/recordtimer/util/logging"
)

var (
	DefaultRecords  = 100
	DefaultDuration = time.Second * 100
	DefaultInterval = time.Second
)

type SchedulerParams struct {
	Executor Executor
	Records  int
	Duration time.Duration
	Interval time.Duration
}

func DefaultSchedulerParams() SchedulerParams {
	return SchedulerParams{
		Records:  DefaultRecords,
		Duration: DefaultDuration,
		Interval: DefaultInterval,
	}
}

func (p SchedulerParams) IsValid([]byte) error {
	e := util.ErrInvalid.Errorf("invalid SchedulerParams")

	switch {
	case p.Records < 1:
		return e.Errorf("records under 1, %d", p.Records)
	case p.Duration < time.Second:
		return e.Errorf("duration under 1s, %v", p.Duration)
	case p.Duration%time.Second != 0:
		return e.Errorf("duration not in whole seconds, %v", p.Duration)
	case p.Interval < time.Nanosecond:
		return e.Errorf("too narrow interval, %v", p.Interval)
	default:
		return nil
	}
}

// Scheduler counts down at most one of its records at a time. One ticker
// drives the active record; every state change is emitted as Event through
// the dispatcher.
type Scheduler struct {
	*logging.Logging
	ticker     *util.Ticker
	dispatcher *Dispatcher
	active     *Record
	records    []*Record
	interval   time.Duration
	seq        uint64
	playing    bool
	closed     bool
	sync.Mutex
}

func NewScheduler(params SchedulerParams) (*Scheduler, error) {
	if err := params.IsValid(nil); err != nil {
		return nil, err
	}

	duration := uint64(params.Duration / time.Second)

	records := make([]*Record, params.Records)
	for i := range records {
		records[i] = newRecord(i, duration)
	}

	s := &Scheduler{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "playback-scheduler")
		}),
		records:    records,
		interval:   params.Interval,
		ticker:     util.NewTicker("playback"),
		dispatcher: NewDispatcher(params.Executor),
	}

	if err := s.dispatcher.Start(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to start dispatcher")
	}

	return s, nil
}

func (s *Scheduler) SetLogging(l *logging.Logging) *logging.Logging {
	_ = s.ticker.SetLogging(l)
	_ = s.dispatcher.SetLogging(l)

	return s.Logging.SetLogging(l)
}

// Subscribe registers the observer. The scheduler does not own observers;
// call the returned function to remove it.
func (s *Scheduler) Subscribe(f Observer) func() {
	return s.dispatcher.Subscribe(f)
}

func (s *Scheduler) Len() int {
	return len(s.records)
}

// Start starts or resumes the record. Any other active record is reset
// first. A finished active record starts again from its duration.
func (s *Scheduler) Start(id int) error {
	s.Lock()
	defer s.Unlock()

	if s.closed {
		return util.ErrDaemonAlreadyStopped.Errorf("scheduler closed")
	}

	r, err := s.record(id)
	if err != nil {
		return err
	}

	if !s.ticker.IsConfigured() {
		if err := s.ticker.Configure(s.interval, s.tick); err != nil {
			return errors.Wrap(err, "failed to install tick handler")
		}
	}

	switch {
	case s.active != nil && s.active != r:
		s.stopActive()
	case s.active == r && r.remaining < 1:
		s.stopActive()
	}

	if err := s.ticker.Resume(); err != nil {
		return errors.Wrap(err, "failed to resume ticker")
	}

	s.active = r
	s.playing = true

	s.emit(EventActiveChanged, r)

	s.Log().Debug().Int("record", r.id).Uint64("remaining", r.remaining).Msg("started")

	return nil
}

// Pause suspends the countdown and keeps the record active, so Start with the
// same id resumes from where it paused.
func (s *Scheduler) Pause() {
	s.Lock()
	defer s.Unlock()

	if s.closed || s.active == nil || !s.playing {
		return
	}

	s.ticker.Suspend()
	s.playing = false

	s.emit(EventPaused, s.active)

	s.Log().Debug().Int("record", s.active.id).Uint64("remaining", s.active.remaining).Msg("paused")
}

// StopActive resets the active record to its duration and clears it.
func (s *Scheduler) StopActive() {
	s.Lock()
	defer s.Unlock()

	s.stopActive()
}

// Record returns the state of the record; the presentation layer reads it to
// synchronize a row when it is shown again.
func (s *Scheduler) Record(id int) (RecordState, error) {
	s.Lock()
	defer s.Unlock()

	r, err := s.record(id)
	if err != nil {
		return RecordState{}, err
	}

	return s.state(r), nil
}

func (s *Scheduler) Records() []RecordState {
	s.Lock()
	defer s.Unlock()

	states := make([]RecordState, len(s.records))
	for i := range s.records {
		states[i] = s.state(s.records[i])
	}

	return states
}

func (s *Scheduler) Active() (RecordState, bool) {
	s.Lock()
	defer s.Unlock()

	if s.active == nil {
		return RecordState{}, false
	}

	return s.state(s.active), true
}

// Close suspends the ticker, waits for its goroutines and stops delivering
// events. The active record keeps its remaining. After Close, Start fails
// and the other commands do nothing.
func (s *Scheduler) Close() error {
	s.Lock()

	if s.closed {
		s.Unlock()

		return nil
	}

	s.closed = true
	s.ticker.Suspend()
	s.playing = false
	s.Unlock()

	if err := s.ticker.Close(); err != nil {
		return errors.Wrap(err, "failed to close ticker")
	}

	if err := s.dispatcher.Stop(); err != nil && !errors.Is(err, util.ErrDaemonAlreadyStopped) {
		return errors.Wrap(err, "failed to stop dispatcher")
	}

	return nil
}

func (s *Scheduler) stopActive() {
	if s.closed || s.active == nil {
		return
	}

	r := s.active

	r.reset()
	s.ticker.Suspend()
	s.active = nil
	s.playing = false

	s.emit(EventReset, r)

	s.Log().Debug().Int("record", r.id).Msg("reset")
}

// tick is the handler of ticker. The canceled context means the ticker was
// suspended while this call waited for the lock.
func (s *Scheduler) tick(ctx context.Context) {
	s.Lock()
	defer s.Unlock()

	if ctx.Err() != nil || s.closed || s.active == nil || !s.playing {
		return
	}

	_ = s.active.countDown()

	s.emit(EventUpdated, s.active)
}

func (s *Scheduler) record(id int) (*Record, error) {
	if id < 0 || id >= len(s.records) {
		return nil, util.ErrNotFound.Errorf("record, %d", id)
	}

	return s.records[id], nil
}

func (s *Scheduler) state(r *Record) RecordState {
	return RecordState{
		ID:        r.id,
		Seq:       s.seq,
		Duration:  r.duration,
		Remaining: r.remaining,
		Active:    r == s.active,
		Playing:   r == s.active && s.playing,
	}
}

func (s *Scheduler) emit(kind EventKind, r *Record) {
	s.seq++

	s.dispatcher.Emit(Event{
		Kind:      kind,
		Seq:       s.seq,
		RecordID:  r.id,
		Remaining: r.remaining,
	})
}
