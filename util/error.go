package util

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/pkgerrors"
)

// Error is comparable by the place where it was declared; errors.Is matches
// any Error derived from the same NewError call, with or without stack.
type Error struct {
	wrapped error
	id      string
	msg     string
	extra   string
	stack
}

func NewError(s string, a ...interface{}) Error {
	var pcs [1]uintptr
	_ = runtime.Callers(2, pcs[:])
	f := errors.Frame(pcs[0])

	return Error{
		id:  fmt.Sprintf("%n:%d", f, f),
		msg: strings.TrimSpace(fmt.Sprintf(s, a...)),
	}
}

func (er Error) Unwrap() error {
	return er.wrapped
}

func (er Error) Is(err error) bool {
	if e, ok := err.(Error); ok { //nolint:errorlint //...
		return e.id == er.id
	}

	if er.wrapped == nil {
		return false
	}

	return errors.Is(er.wrapped, err)
}

func (er Error) Call() Error {
	er.stack = callers(3)

	return er
}

func (er Error) Wrap(err error) Error {
	er.stack = callers(3)
	er.wrapped = err

	return er
}

func (er Error) Wrapf(err error, s string, a ...interface{}) Error {
	er.stack = callers(3)
	er.extra = fmt.Sprintf(s, a...)
	er.wrapped = err

	return er
}

// Errorf sets the extra message. `%w` is not supported.
func (er Error) Errorf(s string, a ...interface{}) Error {
	er.stack = callers(3)
	er.extra = fmt.Sprintf(s, a...)

	return er
}

func (er Error) Error() string {
	s := er.message()

	if er.wrapped != nil {
		if e := er.wrapped.Error(); len(e) > 0 {
			s += "; " + e
		}
	}

	return s
}

func (er Error) Format(st fmt.State, verb rune) {
	switch verb {
	case 'v':
		if st.Flag('+') {
			_, _ = io.WriteString(st, er.message())

			er.stack.Format(st, verb)

			if er.wrapped != nil {
				_, _ = fmt.Fprintf(st, "\n%+v", er.wrapped)
			}

			return
		}

		fallthrough
	case 's':
		_, _ = io.WriteString(st, er.Error())
	case 'q':
		_, _ = fmt.Fprintf(st, "%q", er.Error())
	}
}

func (er Error) StackTrace() errors.StackTrace {
	if er.stack != nil {
		return er.stack.StackTrace()
	}

	if i, ok := er.wrapped.(stackTracer); ok { //nolint:errorlint //...
		return i.StackTrace()
	}

	return nil
}

func (er Error) message() string {
	if len(er.extra) < 1 {
		return er.msg
	}

	return er.msg + " - " + er.extra
}

// StringErrorFunc returns a helper which wraps error with the prefix message.
func StringErrorFunc(m string, a ...interface{}) func(error, string, ...interface{}) error {
	f := fmt.Sprintf(m, a...)

	return func(err error, s string, a ...interface{}) error {
		if len(s) > 0 {
			s = fmt.Sprintf(s, a...) //revive:disable-line:modifies-parameter
		}

		switch {
		case err == nil && len(s) < 1:
			return errors.Errorf(f)
		case err == nil:
			return errors.Errorf("%s; %s", f, s)
		case len(s) < 1:
			return errors.Wrap(err, f)
		default:
			return errors.Wrapf(err, "%s; %s", f, s)
		}
	}
}

func ZerologMarshalStack(err error) interface{} {
	if _, ok := err.(stackTracer); !ok { //nolint:errorlint //...
		return nil
	}

	return pkgerrors.MarshalStack(err)
}

func callers(skip int) stack {
	const depth = 32

	var pcs [depth]uintptr
	n := runtime.Callers(skip, pcs[:])

	return stack(pcs[0:n])
}

type stack []uintptr

func (s stack) Format(st fmt.State, verb rune) {
	if verb == 'v' && st.Flag('+') {
		for _, pc := range s {
			_, _ = fmt.Fprintf(st, "\n%+v", errors.Frame(pc))
		}
	}
}

func (s stack) StackTrace() errors.StackTrace {
	f := make([]errors.Frame, len(s))
	for i := range f {
		f[i] = errors.Frame(s[i])
	}

	return f
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}
