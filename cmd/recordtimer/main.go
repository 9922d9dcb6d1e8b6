package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/spikeekips/recordtimer/launch"
	launchcmd "github.com/spikeekips/recordtimer/launch/cmd"
	"github.com/spikeekips/recordtimer/util"
	"github.com/spikeekips/recordtimer/util/logging"
)

var version = "v0.0.0-dev"

//revive:disable:nested-structs
var CLI struct { //nolint:govet //...
	launch.BaseFlags
	Run     launchcmd.RunCommand     `cmd:"" help:"run timers"`
	Version launchcmd.VersionCommand `cmd:"" help:"version"`
}

//revive:enable:nested-structs

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("recordtimer"),
		kong.Description("single active timer player"),
		kong.UsageOnError(),
		launch.LoggingVars,
	)

	pctx, err := launch.MainContext(context.Background(), version, CLI.BaseFlags)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %+v\n", err)

		os.Exit(1)
	}

	var log *logging.Logging
	if err := util.LoadFromContextOK(pctx, launch.LoggingContextKey, &log); err != nil {
		kctx.FatalIfErrorf(err)
	}

	log.Log().Debug().Str("command", kctx.Command()).Msg("start command")

	kctx.BindTo(pctx, (*context.Context)(nil))

	if err := kctx.Run(); err != nil {
		log.Log().Error().Err(err).Msg("stopped by error")

		kctx.FatalIfErrorf(err)
	}

	log.Log().Debug().Msg("stopped")
}
