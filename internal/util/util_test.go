package util

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
)

func TestNewULID(t *testing.T) {
	a, b := NewULID(), NewULID()
	assert.Len(t, a, ulid.EncodedSize)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)

	_, err := ulid.Parse(a)
	assert.NoError(t, err)
}

func TestStringToNullString(t *testing.T) {
	assert.False(t, StringToNullString("").Valid)
	ns := StringToNullString("forum")
	assert.True(t, ns.Valid)
	assert.Equal(t, "forum", ns.String)
}
