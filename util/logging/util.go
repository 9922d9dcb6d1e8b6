package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

func Setup(
	output io.Writer,
	level zerolog.Level,
	format string,
	forceColor bool,
) *Logging {
	o := output
	if o == nil {
		o = os.Stderr
	}

	if format == "terminal" {
		useColor := forceColor

		if f, ok := o.(*os.File); ok && !useColor {
			useColor = isatty.IsTerminal(f.Fd())
		}

		o = zerolog.ConsoleWriter{
			Out:        o,
			TimeFormat: time.RFC3339Nano,
			NoColor:    !useColor,
		}
	}

	z := zerolog.New(o).With().Timestamp()

	if level <= zerolog.DebugLevel {
		z = z.Caller().Stack()
	}

	return NewLogging(nil).SetLogger(z.Logger().Level(level))
}

// Output opens f for appending; writes go through a non-blocking diode.
func Output(f string) (io.Writer, error) {
	out, err := os.OpenFile(filepath.Clean(f), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file, %q", f)
	}

	return diode.NewWriter(out, 1000, 0, nil), nil //nolint:gomnd //...
}
