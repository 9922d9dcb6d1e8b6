package util

import "context"

type Daemon interface {
	Start(context.Context) error
	Stop() error
}
