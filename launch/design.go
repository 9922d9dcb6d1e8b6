package launch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spikeekips/recordtimer/playback"
	"github.com/spikeekips/recordtimer/util"
	"gopkg.in/yaml.v3"
)

var (
	DefaultViewport = 10
	DefaultOutput   = OutputTerminal
)

const (
	OutputTerminal = "terminal"
	OutputJSON     = "json"
)

// Design is the yaml configuration of the run command.
type Design struct {
	Output   string        `yaml:"output"`
	Records  int           `yaml:"records"`
	Viewport int           `yaml:"viewport"`
	Duration time.Duration `yaml:"duration"`
	Interval time.Duration `yaml:"interval"`
}

func DefaultDesign() Design {
	return Design{
		Records:  playback.DefaultRecords,
		Duration: playback.DefaultDuration,
		Interval: playback.DefaultInterval,
		Viewport: DefaultViewport,
		Output:   DefaultOutput,
	}
}

// DesignFromFile reads the yaml file; the missing fields keep the default.
func DesignFromFile(f string) (d Design, _ []byte, _ error) {
	e := util.StringErrorFunc("failed to load Design from file")

	b, err := os.ReadFile(filepath.Clean(f))
	if err != nil {
		return d, nil, e(err, "")
	}

	if err := d.DecodeYAML(b); err != nil {
		return d, b, e(err, "")
	}

	if err := d.IsValid(nil); err != nil {
		return d, b, e(err, "")
	}

	return d, b, nil
}

func (d *Design) DecodeYAML(b []byte) error {
	u := DefaultDesign()

	if err := yaml.Unmarshal(b, &u); err != nil {
		return errors.WithStack(err)
	}

	*d = u

	return nil
}

func (d Design) IsValid([]byte) error {
	e := util.ErrInvalid.Errorf("invalid Design")

	if err := d.SchedulerParams().IsValid(nil); err != nil {
		return e.Wrap(err)
	}

	switch {
	case d.Viewport < 1:
		return e.Errorf("viewport under 1, %d", d.Viewport)
	case d.Output != OutputTerminal && d.Output != OutputJSON:
		return e.Errorf("unknown output, %q", d.Output)
	default:
		return nil
	}
}

func (d Design) SchedulerParams() playback.SchedulerParams {
	return playback.SchedulerParams{
		Records:  d.Records,
		Duration: d.Duration,
		Interval: d.Interval,
	}
}
