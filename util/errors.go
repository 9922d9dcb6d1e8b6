package util

var (
	ErrNotFound             = NewError("not found")
	ErrInvalid              = NewError("invalid")
	ErrTickerRunning        = NewError("ticker is running")
	ErrDaemonAlreadyStarted = NewError("daemon already started")
	ErrDaemonAlreadyStopped = NewError("daemon already stopped")
)
