package logging

import (
	"sync"

	"github.com/rs/zerolog"
)

// Logging holds a zerolog.Logger which can be replaced after construction;
// the context function is re-applied on every SetLogging.
type Logging struct {
	l *zerolog.Logger
	f func(zerolog.Context) zerolog.Context
	sync.RWMutex
}

func NewLogging(f func(zerolog.Context) zerolog.Context) *Logging {
	if f == nil {
		f = func(c zerolog.Context) zerolog.Context { return c } //revive:disable-line:modifies-parameter
	}

	l := f(zerolog.Nop().With()).Logger()

	return &Logging{l: &l, f: f}
}

func (l *Logging) Log() *zerolog.Logger {
	l.RLock()
	defer l.RUnlock()

	return l.l
}

func (l *Logging) SetLogger(zl zerolog.Logger) *Logging {
	l.Lock()
	defer l.Unlock()

	nl := l.f(zl.With()).Logger()
	l.l = &nl

	return l
}

// SetLogging applies the logger of i with the context of l.
func (l *Logging) SetLogging(i *Logging) *Logging {
	if i == nil {
		return l
	}

	return l.SetLogger(*i.Log())
}
