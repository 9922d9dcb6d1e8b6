//go:build !(darwin || linux || windows) || !amd64
// +build !darwin,!linux,!windows !amd64

package util

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var jsoniterconfiged = jsoniter.Config{
	EscapeHTML: false,
}.Froze()

func marshalJSON(v interface{}) ([]byte, error) {
	b, err := jsoniterconfiged.Marshal(v)

	return b, errors.WithStack(err)
}

func unmarshalJSON(b []byte, v interface{}) error {
	return errors.WithStack(jsoniterconfiged.Unmarshal(b, v))
}
