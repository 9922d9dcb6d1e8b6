package util

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type testULID struct {
	suite.Suite
}

func (t *testULID) TestMonotonic() {
	a := ULID()
	b := ULID()

	t.Equal(26, len(a.String()))
	t.True(a.Compare(b) < 0)
}

func (t *testULID) TestJSON() {
	var d struct {
		ID string `json:"id"`
		N  int    `json:"n"`
	}

	b, err := MarshalJSON(struct {
		ID string `json:"id"`
		N  int    `json:"n"`
	}{ID: ULID().String(), N: 3})
	t.NoError(err)

	t.NoError(UnmarshalJSON(b, &d))
	t.Equal(26, len(d.ID))
	t.Equal(3, d.N)

	t.NoError(UnmarshalJSON([]byte("null"), &d))
	t.Equal(3, d.N)
}

func TestULID(t *testing.T) {
	suite.Run(t, new(testULID))
}
