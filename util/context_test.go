package util

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type testContext struct {
	suite.Suite
}

func (t *testContext) TestLoad() {
	ctx := context.WithValue(context.Background(), ContextKey("a"), 33)
	ctx = context.WithValue(ctx, ContextKey("b"), MustNewVersion("v0.1.2"))

	t.Run("found", func() {
		var a int
		var b Version

		t.NoError(LoadsFromContextOK(ctx, ContextKey("a"), &a, ContextKey("b"), &b))
		t.Equal(33, a)
		t.Equal("v0.1.2", b.String())
	})

	t.Run("not found", func() {
		var a int

		t.NoError(LoadFromContext(ctx, ContextKey("c"), &a))
		t.Equal(0, a)

		err := LoadFromContextOK(ctx, ContextKey("c"), &a)
		t.Error(err)
		t.True(errors.Is(err, ErrNotFound))
	})

	t.Run("wrong type", func() {
		var a string

		err := LoadFromContextOK(ctx, ContextKey("a"), &a)
		t.Error(err)
		t.ErrorContains(err, "expected string, but int")
	})

	t.Run("not pointer", func() {
		var a int

		t.Error(LoadFromContextOK(ctx, ContextKey("a"), a))
	})

	t.Run("odd pairs", func() {
		var a int

		t.Error(LoadsFromContextOK(ctx, ContextKey("a"), &a, ContextKey("b")))
	})
}

func TestContext(t *testing.T) {
	suite.Run(t, new(testContext))
}
