package launch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/bluele/gcache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/recordtimer/playback"
	"github.com/spikeekips/recordtimer/util"
	"github.com/spikeekips/recordtimer/util/logging"
)

var ErrConsoleQuit = util.NewError("quit")

const (
	glyphStopped = "▶"
	glyphPlaying = "⏸"
)

type row struct {
	id        int
	seq       uint64
	remaining uint64
	playing   bool
}

// Console is the line based presentation of Scheduler. Only the rows inside
// the viewport are materialized; events of the other rows are ignored and the
// rows are read again from the Scheduler when they are scrolled in. Events
// queued before a row was read are older than the row and skipped.
type Console struct {
	*logging.Logging
	out      io.Writer
	s        *playback.Scheduler
	rows     gcache.Cache
	uich     chan func()
	closed   chan struct{}
	output   string
	viewport int
	offset   int
	once     sync.Once
	sync.Mutex
}

func NewConsole(out io.Writer, output string, viewport int) *Console {
	c := &Console{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "console")
		}),
		out:      out,
		output:   output,
		viewport: viewport,
		uich:     make(chan func()),
		closed:   make(chan struct{}),
	}

	c.rows = gcache.New(viewport).LRU().
		EvictedFunc(func(k, _ interface{}) {
			c.Log().Trace().Interface("record", k).Msg("row released")
		}).
		Build()

	return c
}

// Executor runs the event delivery inside the Run loop, so rendering and
// commands never overlap. After Run returns, deliveries are dropped.
func (c *Console) Executor() playback.Executor {
	return func(f func()) {
		select {
		case c.uich <- f:
		case <-c.closed:
		}
	}
}

// Attach subscribes to the scheduler and materializes the first rows.
func (c *Console) Attach(s *playback.Scheduler) func() {
	c.s = s

	unsubscribe := s.Subscribe(c.observe)

	c.materialize(0)

	return unsubscribe
}

func (c *Console) Run(ctx context.Context, in io.Reader) error {
	defer c.close()

	linech := make(chan string)
	errch := make(chan error, 1)

	go func() {
		defer close(linech)

		scanner := bufio.NewScanner(in)

		for scanner.Scan() {
			select {
			case linech <- scanner.Text():
			case <-c.closed:
				return
			}
		}

		errch <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-c.uich:
			f()
		case line, ok := <-linech:
			if !ok {
				select {
				case err := <-errch:
					return errors.WithStack(err)
				default:
					return nil
				}
			}

			switch err := c.Exec(line); {
			case err == nil:
			case errors.Is(err, ErrConsoleQuit):
				return nil
			default:
				c.Log().Debug().Err(err).Str("line", line).Msg("failed to execute")

				c.printf("error: %v\n", err)
			}
		}
	}
}

func (c *Console) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 1 {
		return nil
	}

	argID := func() (int, error) {
		if len(fields) < 2 { //nolint:gomnd //...
			return 0, util.ErrInvalid.Errorf("%s needs record id", fields[0])
		}

		i, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, util.ErrInvalid.Wrapf(err, "wrong record id, %q", fields[1])
		}

		return i, nil
	}

	switch fields[0] {
	case "start":
		id, err := argID()
		if err != nil {
			return err
		}

		return c.s.Start(id)
	case "pause":
		c.s.Pause()
	case "stop":
		c.s.StopActive()
	case "scroll":
		offset, err := argID()
		if err != nil {
			return err
		}

		c.materialize(offset)
	case "show":
		id, err := argID()
		if err != nil {
			return err
		}

		st, err := c.s.Record(id)
		if err != nil {
			return err
		}

		c.printState(st, "")
	case "list":
		c.Lock()
		offset := c.offset
		c.Unlock()

		c.materialize(offset)
	case "quit", "exit":
		return ErrConsoleQuit.Call()
	default:
		return util.ErrInvalid.Errorf("unknown command, %q", fields[0])
	}

	return nil
}

func (c *Console) observe(e playback.Event) {
	if c.output == OutputJSON {
		c.printJSON(e)

		return
	}

	i, err := c.rows.GetIFPresent(e.RecordID)
	if err != nil {
		c.Log().Trace().Object("event", e).Msg("row not materialized; ignored")

		return
	}

	r := i.(row) //nolint:forcetypeassert //...
	if e.Seq <= r.seq {
		c.Log().Trace().Object("event", e).Uint64("row_seq", r.seq).Msg("event older than row; ignored")

		return
	}

	r.seq = e.Seq
	r.remaining = e.Remaining

	switch e.Kind {
	case playback.EventActiveChanged, playback.EventUpdated:
		r.playing = true
	default:
		r.playing = false
	}

	_ = c.rows.Set(r.id, r)

	c.printRow(r, e.Kind.String())
}

func (c *Console) materialize(offset int) {
	c.Lock()

	if n := c.s.Len(); offset > n-c.viewport {
		offset = n - c.viewport //revive:disable-line:modifies-parameter
	}

	if offset < 0 {
		offset = 0 //revive:disable-line:modifies-parameter
	}

	c.offset = offset
	c.Unlock()

	end := offset + c.viewport
	if n := c.s.Len(); end > n {
		end = n
	}

	for id := offset; id < end; id++ {
		st, err := c.s.Record(id)
		if err != nil {
			continue
		}

		_ = c.rows.Set(id, row{id: id, seq: st.Seq, remaining: st.Remaining, playing: st.Playing})

		c.printState(st, "")
	}
}

func (c *Console) printState(st playback.RecordState, note string) {
	if c.output == OutputJSON {
		c.printJSON(st)

		return
	}

	c.printRow(row{id: st.ID, remaining: st.Remaining, playing: st.Playing}, note)
}

func (c *Console) printRow(r row, note string) {
	glyph := glyphStopped
	if r.playing {
		glyph = glyphPlaying
	}

	s := fmt.Sprintf("%s %03d %s", glyph, r.id, FormatRemaining(r.remaining))
	if len(note) > 0 {
		s += " " + note
	}

	c.printf("%s\n", s)
}

func (c *Console) printJSON(i interface{}) {
	b, err := util.MarshalJSON(i)
	if err != nil {
		c.Log().Error().Err(err).Interface("value", i).Msg("failed to marshal")

		return
	}

	c.printf("%s\n", b)
}

func (c *Console) printf(f string, a ...interface{}) {
	c.Lock()
	defer c.Unlock()

	_, _ = fmt.Fprintf(c.out, f, a...)
}

func (c *Console) close() {
	c.once.Do(func() {
		close(c.closed)
	})
}
