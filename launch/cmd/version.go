package launchcmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spikeekips/recordtimer/launch"
	"github.com/spikeekips/recordtimer/util"
)

type VersionCommand struct {
	out io.Writer
}

func (cmd *VersionCommand) Run(pctx context.Context) error {
	var v util.Version
	if err := util.LoadFromContextOK(pctx, launch.VersionContextKey, &v); err != nil {
		return err
	}

	if cmd.out == nil {
		cmd.out = os.Stdout
	}

	s := fmt.Sprintf("%s (%s %s/%s)", v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if len(v.Prerelease()) > 0 {
		s += " prerelease"
	}

	_, _ = fmt.Fprintln(cmd.out, s)

	return nil
}
