package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spikeekips/recordtimer/util"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"golang.org/x/sync/semaphore"
)

type testScheduler struct {
	suite.Suite
	s       *Scheduler
	eventch chan Event
}

func (t *testScheduler) SetupTest() {
	t.s = t.newScheduler(1, time.Hour)
}

func (t *testScheduler) TearDownTest() {
	t.NoError(t.s.Close())
}

func (t *testScheduler) newScheduler(records int, interval time.Duration) *Scheduler {
	params := DefaultSchedulerParams()
	params.Records = records
	params.Interval = interval

	s, err := NewScheduler(params)
	t.Require().NoError(err)

	t.eventch = make(chan Event, 1000)
	_ = s.Subscribe(func(e Event) {
		t.eventch <- e
	})

	return s
}

// replace swaps the scheduler of SetupTest.
func (t *testScheduler) replace(records int, interval time.Duration) {
	t.NoError(t.s.Close())

	t.s = t.newScheduler(records, interval)
}

func (t *testScheduler) ticks(n int) {
	for i := 0; i < n; i++ {
		t.s.tick(context.Background())
	}
}

func (t *testScheduler) expect(kind EventKind, id int, remaining uint64) Event {
	select {
	case <-time.After(time.Second):
		t.Fail("timeout to wait event", "%v(%d, %d)", kind, id, remaining)

		return Event{}
	case e := <-t.eventch:
		t.Equal(kind, e.Kind, "%+v", e)
		t.Equal(id, e.RecordID, "%+v", e)
		t.Equal(remaining, e.Remaining, "%+v", e)

		return e
	}
}

func (t *testScheduler) noMoreEvents() {
	select {
	case <-time.After(time.Millisecond * 100):
	case e := <-t.eventch:
		t.Fail("unexpected event", "%+v", e)
	}
}

func (t *testScheduler) checkInvariants() {
	var active int

	for _, r := range t.s.Records() {
		t.True(r.Remaining <= r.Duration, "%+v", r)

		if r.Active {
			active++
		}
	}

	t.True(active <= 1, "active=%d", active)
}

func (t *testScheduler) TestCommandsAfterClose() {
	t.replace(2, time.Millisecond*10)

	t.NoError(t.s.Start(0))
	t.expect(EventActiveChanged, 0, 100)

	t.NoError(t.s.Close())
	t.False(t.s.ticker.IsRunning())

	st, err := t.s.Record(0)
	t.NoError(err)

	err = t.s.Start(0)
	t.Error(err)
	t.True(errors.Is(err, util.ErrDaemonAlreadyStopped))

	err = t.s.Start(1)
	t.True(errors.Is(err, util.ErrDaemonAlreadyStopped))

	t.s.Pause()
	t.s.StopActive()
	t.s.tick(context.Background())

	<-time.After(time.Millisecond * 100)

	t.False(t.s.ticker.IsRunning())
	t.Equal(0, t.s.dispatcher.pending())

	nst, err := t.s.Record(0)
	t.NoError(err)
	t.Equal(st, nst)

	t.True(errors.Is(t.s.ticker.Resume(), util.ErrDaemonAlreadyStopped))

	t.NoError(t.s.Close())
}

func (t *testScheduler) TestInvalidParams() {
	cases := []struct {
		name   string
		params func(SchedulerParams) SchedulerParams
		err    string
	}{
		{name: "records", params: func(p SchedulerParams) SchedulerParams { p.Records = 0; return p }, err: "records under 1"},
		{name: "duration", params: func(p SchedulerParams) SchedulerParams { p.Duration = 0; return p }, err: "duration under 1s"},
		{name: "whole seconds", params: func(p SchedulerParams) SchedulerParams { p.Duration = time.Millisecond * 1500; return p }, err: "whole seconds"},
		{name: "interval", params: func(p SchedulerParams) SchedulerParams { p.Interval = 0; return p }, err: "too narrow interval"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func() {
			_, err := NewScheduler(c.params(DefaultSchedulerParams()))
			t.Error(err)
			t.True(errors.Is(err, util.ErrInvalid))
			t.ErrorContains(err, c.err)
		})
	}
}

func (t *testScheduler) TestNew() {
	t.replace(100, time.Hour)

	t.Equal(100, t.s.Len())

	for i, r := range t.s.Records() {
		t.Equal(i, r.ID)
		t.Equal(uint64(100), r.Duration)
		t.Equal(uint64(100), r.Remaining)
		t.False(r.Active)
		t.False(r.Playing)
	}

	_, found := t.s.Active()
	t.False(found)
}

func (t *testScheduler) TestStartNotFound() {
	t.replace(2, time.Hour)

	for _, id := range []int{-1, 2, 100} {
		err := t.s.Start(id)
		t.Error(err)
		t.True(errors.Is(err, util.ErrNotFound), "id=%d", id)
	}

	_, found := t.s.Active()
	t.False(found)
	t.False(t.s.ticker.IsRunning())

	_, err := t.s.Record(2)
	t.True(errors.Is(err, util.ErrNotFound))

	t.noMoreEvents()
}

func (t *testScheduler) TestScenarioSingleRecord() {
	t.NoError(t.s.Start(0))
	t.expect(EventActiveChanged, 0, 100)
	t.True(t.s.ticker.IsRunning())

	t.ticks(5)

	for i := uint64(99); i >= 95; i-- {
		t.expect(EventUpdated, 0, i)
	}

	r, err := t.s.Record(0)
	t.NoError(err)
	t.Equal(uint64(95), r.Remaining)
	t.True(r.Active)
	t.True(r.Playing)

	t.s.Pause()
	t.expect(EventPaused, 0, 95)
	t.False(t.s.ticker.IsRunning())

	r, _ = t.s.Record(0)
	t.True(r.Active)
	t.False(r.Playing)

	t.NoError(t.s.Start(0))
	t.expect(EventActiveChanged, 0, 95)

	t.ticks(2)
	t.expect(EventUpdated, 0, 94)
	t.expect(EventUpdated, 0, 93)

	t.s.StopActive()
	t.expect(EventReset, 0, 100)
	t.False(t.s.ticker.IsRunning())

	r, _ = t.s.Record(0)
	t.Equal(uint64(100), r.Remaining)
	t.False(r.Active)

	t.checkInvariants()
	t.noMoreEvents()
}

func (t *testScheduler) TestScenarioSwitch() {
	t.replace(2, time.Hour)

	t.NoError(t.s.Start(0))
	t.expect(EventActiveChanged, 0, 100)

	t.ticks(2)
	t.expect(EventUpdated, 0, 99)
	t.expect(EventUpdated, 0, 98)

	t.NoError(t.s.Start(1))
	t.expect(EventReset, 0, 100)
	t.expect(EventActiveChanged, 1, 100)

	r0, _ := t.s.Record(0)
	t.Equal(uint64(100), r0.Remaining)
	t.False(r0.Active)

	r1, _ := t.s.Record(1)
	t.Equal(uint64(100), r1.Remaining)
	t.True(r1.Active)

	t.ticks(3)
	t.expect(EventUpdated, 1, 99)
	t.expect(EventUpdated, 1, 98)
	t.expect(EventUpdated, 1, 97)

	r0, _ = t.s.Record(0)
	t.Equal(uint64(100), r0.Remaining)

	t.checkInvariants()
}

func (t *testScheduler) TestSwitchFromPaused() {
	t.replace(2, time.Hour)

	t.NoError(t.s.Start(0))
	t.ticks(4)
	t.s.Pause()

	t.NoError(t.s.Start(1))

	r0, _ := t.s.Record(0)
	t.Equal(uint64(100), r0.Remaining, "paused record is reset by switching")
	t.False(r0.Active)

	active, found := t.s.Active()
	t.True(found)
	t.Equal(1, active.ID)
	t.True(active.Playing)
}

func (t *testScheduler) TestPauseIdempotent() {
	t.NoError(t.s.Start(0))
	t.expect(EventActiveChanged, 0, 100)

	t.ticks(1)
	t.expect(EventUpdated, 0, 99)

	t.s.Pause()
	t.s.Pause()
	t.expect(EventPaused, 0, 99)
	t.noMoreEvents()

	t.ticks(3)
	t.noMoreEvents()

	r, _ := t.s.Record(0)
	t.Equal(uint64(99), r.Remaining)
}

func (t *testScheduler) TestNoActive() {
	t.s.Pause()
	t.s.StopActive()
	t.ticks(3)

	t.noMoreEvents()

	r, _ := t.s.Record(0)
	t.Equal(uint64(100), r.Remaining)
}

func (t *testScheduler) TestFloorAtZero() {
	t.NoError(t.s.Start(0))
	t.ticks(100)

	r, _ := t.s.Record(0)
	t.Equal(uint64(0), r.Remaining)

	t.ticks(3)

	r, _ = t.s.Record(0)
	t.Equal(uint64(0), r.Remaining)
	t.True(r.Active)

	t.expect(EventActiveChanged, 0, 100)

	for i := 0; i < 100; i++ {
		<-t.eventch
	}

	for i := 0; i < 3; i++ {
		t.expect(EventUpdated, 0, 0)
	}
}

func (t *testScheduler) TestRestartFinished() {
	t.NoError(t.s.Start(0))
	t.ticks(100)
	t.s.Pause()

	t.expect(EventActiveChanged, 0, 100)

	for i := 0; i < 100; i++ {
		<-t.eventch
	}

	t.expect(EventPaused, 0, 0)

	t.NoError(t.s.Start(0))
	t.expect(EventReset, 0, 100)
	t.expect(EventActiveChanged, 0, 100)

	r, _ := t.s.Record(0)
	t.Equal(uint64(100), r.Remaining)
	t.True(r.Playing)
}

func (t *testScheduler) TestStaleTick() {
	t.NoError(t.s.Start(0))
	t.expect(EventActiveChanged, 0, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	t.s.tick(ctx)
	t.noMoreEvents()

	r, _ := t.s.Record(0)
	t.Equal(uint64(100), r.Remaining)
}

func (t *testScheduler) TestEventSequence() {
	t.NoError(t.s.Start(0))
	t.ticks(2)
	t.s.Pause()
	t.s.StopActive()

	var last uint64

	for i := 0; i < 5; i++ {
		e := <-t.eventch
		t.Equal(last+1, e.Seq)
		last = e.Seq
	}
}

func (t *testScheduler) TestUnsubscribe() {
	var n int
	var lock sync.Mutex

	unsubscribe := t.s.Subscribe(func(Event) {
		lock.Lock()
		n++
		lock.Unlock()
	})

	t.NoError(t.s.Start(0))
	t.expect(EventActiveChanged, 0, 100)

	unsubscribe()
	unsubscribe()

	t.ticks(1)
	t.expect(EventUpdated, 0, 99)

	lock.Lock()
	defer lock.Unlock()

	t.Equal(1, n)
}

func (t *testScheduler) TestObserverReadsScheduler() {
	readch := make(chan RecordState, 10)

	_ = t.s.Subscribe(func(e Event) {
		r, err := t.s.Record(e.RecordID)
		if err == nil {
			readch <- r
		}
	})

	t.NoError(t.s.Start(0))

	select {
	case <-time.After(time.Second):
		t.Fail("timeout to read in observer")
	case r := <-readch:
		t.True(r.Active)
	}
}

func (t *testScheduler) TestExecutor() {
	t.NoError(t.s.Close())

	var executed int
	var lock sync.Mutex

	params := DefaultSchedulerParams()
	params.Records = 1
	params.Interval = time.Hour
	params.Executor = func(f func()) {
		lock.Lock()
		executed++
		lock.Unlock()

		f()
	}

	s, err := NewScheduler(params)
	t.Require().NoError(err)
	t.s = s

	t.eventch = make(chan Event, 10)
	_ = s.Subscribe(func(e Event) { t.eventch <- e })

	t.NoError(s.Start(0))
	t.expect(EventActiveChanged, 0, 100)

	lock.Lock()
	defer lock.Unlock()

	t.Equal(1, executed)
}

func (t *testScheduler) TestTicker() {
	t.replace(1, time.Millisecond*20)

	t.NoError(t.s.Start(0))
	t.expect(EventActiveChanged, 0, 100)
	t.expect(EventUpdated, 0, 99)
	t.expect(EventUpdated, 0, 98)

	t.s.Pause()

	for {
		e := <-t.eventch
		if e.Kind == EventPaused {
			break
		}
	}

	r, _ := t.s.Record(0)
	paused := r.Remaining

	<-time.After(time.Millisecond * 100)

	r, _ = t.s.Record(0)
	t.Equal(paused, r.Remaining)
	t.noMoreEvents()

	t.NoError(t.s.Start(0))
	t.expect(EventActiveChanged, 0, paused)
	t.expect(EventUpdated, 0, paused-1)
}

func (t *testScheduler) TestConcurrentCommands() {
	t.replace(10, time.Millisecond)

	ctx := context.Background()
	sem := semaphore.NewWeighted(20)

	for i := 0; i < 300; i++ {
		t.NoError(sem.Acquire(ctx, 1))

		i := i
		go func() {
			defer sem.Release(1)

			switch i % 4 {
			case 0, 1:
				_ = t.s.Start(i % t.s.Len())
			case 2:
				t.s.Pause()
			default:
				t.s.StopActive()
			}

			t.checkInvariants()
		}()
	}

	t.NoError(sem.Acquire(ctx, 20))

	t.checkInvariants()

	active, found := t.s.Active()
	t.Equal(found && active.Playing, t.s.ticker.IsRunning())
}

func TestScheduler(t *testing.T) {
	defer goleak.VerifyNone(t)

	suite.Run(t, new(testScheduler))
}
