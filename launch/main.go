package launch

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spikeekips/recordtimer/util"
	"github.com/spikeekips/recordtimer/util/logging"
)

var (
	VersionContextKey = util.ContextKey("version")
	LoggingContextKey = util.ContextKey("logging")
)

type BaseFlags struct {
	LoggingFlags `embed:"" prefix:"log."`
}

// MainContext checks the version and sets up the logging from flags. The
// returned context carries both under VersionContextKey and
// LoggingContextKey.
func MainContext(ctx context.Context, version string, flags BaseFlags) (context.Context, error) {
	e := util.StringErrorFunc("failed to prepare main")

	v, err := util.ParseVersion(version)
	if err != nil {
		return ctx, e(err, "")
	}

	log, err := SetupLoggingFromFlags(flags.LoggingFlags)
	if err != nil {
		return ctx, e(err, "")
	}

	l := logging.NewLogging(func(lctx zerolog.Context) zerolog.Context {
		return lctx.Str("module", "main")
	}).SetLogging(log)

	l.Log().Debug().Stringer("version", v).Interface("flags", flags).Msg("logging ready")

	nctx := context.WithValue(ctx, VersionContextKey, v)

	return context.WithValue(nctx, LoggingContextKey, log), nil
}
