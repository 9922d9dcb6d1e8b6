package launchcmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/recordtimer/launch"
	"github.com/spikeekips/recordtimer/playback"
	"github.com/spikeekips/recordtimer/util"
	"github.com/spikeekips/recordtimer/util/logging"
	"golang.org/x/sync/errgroup"
)

type RunCommand struct { //nolint:govet //...
	//revive:disable:line-length-limit
	Design   string        `name:"design" help:"design file" placeholder:"FILE"`
	Records  int           `name:"records" help:"number of records" placeholder:"N"`
	Duration time.Duration `name:"duration" help:"duration of each record, in whole seconds" placeholder:"DURATION"`
	Interval time.Duration `name:"interval" help:"tick interval" placeholder:"DURATION"`
	Viewport int           `name:"viewport" help:"number of rows shown at once" placeholder:"N"`
	Output   string        `name:"output" help:"output format: {terminal, json}" placeholder:"FORMAT"`
	in       io.Reader
	out      io.Writer
	log      *logging.Logging
	//revive:enable:line-length-limit
}

func (cmd *RunCommand) Run(pctx context.Context) error {
	var version util.Version

	if err := util.LoadsFromContextOK(pctx,
		launch.LoggingContextKey, &cmd.log,
		launch.VersionContextKey, &version,
	); err != nil {
		return err
	}

	session := util.ULID()

	cmd.log = logging.NewLogging(func(lctx zerolog.Context) zerolog.Context {
		return lctx.Stringer("session", session).Stringer("version", version)
	}).SetLogging(cmd.log)

	design, err := cmd.design()
	if err != nil {
		return err
	}

	cmd.log.Log().Debug().Interface("design", design).Msg("design loaded")

	if cmd.in == nil {
		cmd.in = os.Stdin
	}

	if cmd.out == nil {
		cmd.out = os.Stdout
	}

	ctx, stop := signal.NotifyContext(pctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cmd.run(ctx, design)
}

func (cmd *RunCommand) design() (launch.Design, error) {
	e := util.StringErrorFunc("failed to prepare design")

	d := launch.DefaultDesign()

	if len(cmd.Design) > 0 {
		i, _, err := launch.DesignFromFile(cmd.Design)
		if err != nil {
			return d, e(err, "")
		}

		d = i
	}

	if cmd.Records > 0 {
		d.Records = cmd.Records
	}

	if cmd.Duration > 0 {
		d.Duration = cmd.Duration
	}

	if cmd.Interval > 0 {
		d.Interval = cmd.Interval
	}

	if cmd.Viewport > 0 {
		d.Viewport = cmd.Viewport
	}

	if len(cmd.Output) > 0 {
		d.Output = cmd.Output
	}

	if err := d.IsValid(nil); err != nil {
		return d, e(err, "")
	}

	return d, nil
}

func (cmd *RunCommand) run(pctx context.Context, design launch.Design) error {
	console := launch.NewConsole(cmd.out, design.Output, design.Viewport)
	_ = console.SetLogging(cmd.log)

	params := design.SchedulerParams()
	params.Executor = console.Executor()

	s, err := playback.NewScheduler(params)
	if err != nil {
		return errors.Wrap(err, "failed to create scheduler")
	}

	_ = s.SetLogging(cmd.log)

	unsubscribe := console.Attach(s)
	defer unsubscribe()

	cmd.log.Log().Info().
		Int("records", design.Records).
		Stringer("duration", design.Duration).
		Msg("started")

	ctx, cancel := context.WithCancel(pctx)
	defer cancel()

	eg, ectx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer cancel()

		return console.Run(ectx, cmd.in)
	})

	eg.Go(func() error {
		<-ectx.Done()

		if active, found := s.Active(); found {
			cmd.log.Log().Debug().Interface("active", active).Msg("active record when stopped")
		}

		return s.Close()
	})

	if err := eg.Wait(); err != nil {
		return err
	}

	cmd.log.Log().Info().Msg("stopped")

	return nil
}
