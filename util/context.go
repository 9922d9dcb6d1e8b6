package util

import (
	"context"
	"reflect"

	"github.com/pkg/errors"
)

type ContextKey string

func LoadFromContextOK(ctx context.Context, key ContextKey, v interface{}) error {
	if ctx.Value(key) == nil {
		return ErrNotFound.Errorf("key not found, %q", key)
	}

	return LoadFromContext(ctx, key, v)
}

// LoadFromContext sets the value of key to v, which should be a pointer of
// the stored type. Missing key is ignored.
func LoadFromContext(ctx context.Context, key ContextKey, v interface{}) error {
	i := ctx.Value(key)
	if i == nil {
		return nil
	}

	if err := interfaceSetValue(i, v); err != nil {
		return errors.WithMessagef(err, "failed to load value from context, %q", key)
	}

	return nil
}

// LoadsFromContextOK loads the [key, value] pairs.
func LoadsFromContextOK(ctx context.Context, a ...interface{}) error {
	switch {
	case len(a) < 1:
		return nil
	case len(a)%2 != 0:
		return errors.Errorf("should be, [key value] pairs")
	}

	for i := 0; i < len(a)/2; i++ {
		k, ok := a[i*2].(ContextKey)
		if !ok {
			return errors.Errorf("expected ContextKey, not %T", a[i*2])
		}

		if err := LoadFromContextOK(ctx, k, a[i*2+1]); err != nil {
			return err
		}
	}

	return nil
}

func interfaceSetValue(v, target interface{}) error {
	tv := reflect.ValueOf(target)
	if tv.Kind() != reflect.Ptr || tv.IsNil() {
		return errors.Errorf("target should be not nil pointer, %T", target)
	}

	vv := reflect.ValueOf(v)

	switch elem := tv.Elem(); {
	case vv.Type().AssignableTo(elem.Type()):
		elem.Set(vv)
	default:
		return errors.Errorf("expected %T, but %T", elem.Interface(), v)
	}

	return nil
}
