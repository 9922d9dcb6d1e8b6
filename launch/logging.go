package launch

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/recordtimer/util"
	"github.com/spikeekips/recordtimer/util/logging"
)

func init() { //nolint:gochecknoinits //...
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = util.ZerologMarshalStack //nolint:reassign //...
}

// LoggingVars are the defaults of LoggingFlags; pass them to kong.
var LoggingVars = kong.Vars{
	"log_format":      "terminal",
	"log_out":         "stderr",
	"log_level":       "info",
	"log_force_color": "false",
}

// LoggingFlags goes to stderr by default, so the console keeps stdout.
type LoggingFlags struct {
	//revive:disable:line-length-limit
	//revive:disable:struct-tag
	Format     string       `enum:"json, terminal" default:"${log_format}" help:"log format: {${enum}}" group:"logging"`
	Out        []LogOutFlag `name:"out" default:"${log_out}" help:"log outputs, repeatable: {stdout, stderr, <file>}" group:"logging"`
	Level      LogLevelFlag `name:"level" default:"${log_level}" help:"log level: {trace, debug, info, warn, error, disabled}" group:"logging"`
	ForceColor bool         `name:"force-color" default:"${log_force_color}" negatable:"" help:"colored terminal log even without tty" group:"logging"`
	//revive:enable:struct-tag
	//revive:enable:line-length-limit
}

// outputs opens the outputs once each, in the given order.
func (f LoggingFlags) outputs() (io.Writer, error) {
	found := map[LogOutFlag]struct{}{}

	var ws []io.Writer

	for i := range f.Out {
		if _, ok := found[f.Out[i]]; ok {
			continue
		}

		found[f.Out[i]] = struct{}{}

		w, err := f.Out[i].Writer()
		if err != nil {
			return nil, err
		}

		ws = append(ws, w)
	}

	switch len(ws) {
	case 0:
		return os.Stderr, nil
	case 1:
		return ws[0], nil
	default:
		return zerolog.MultiLevelWriter(ws...), nil
	}
}

type LogLevelFlag struct {
	level zerolog.Level
}

func (f *LogLevelFlag) UnmarshalText(b []byte) error {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(string(b))))
	if err != nil {
		return errors.WithStack(err)
	}

	if l == zerolog.NoLevel {
		return util.ErrInvalid.Errorf("empty log level")
	}

	f.level = l

	return nil
}

func (f LogLevelFlag) Level() zerolog.Level {
	return f.level
}

func (f LogLevelFlag) String() string {
	return f.level.String()
}

// LogOutFlag is stdout, stderr or a file path.
type LogOutFlag string

func (f *LogOutFlag) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if len(s) < 1 {
		return util.ErrInvalid.Errorf("empty log output")
	}

	*f = LogOutFlag(s)

	return nil
}

func (f LogOutFlag) Writer() (io.Writer, error) {
	switch f {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return logging.Output(string(f))
	}
}

func SetupLoggingFromFlags(flag LoggingFlags) (*logging.Logging, error) {
	out, err := flag.outputs()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to open log output")
	}

	return logging.Setup(out, flag.Level.Level(), flag.Format, flag.ForceColor), nil
}
