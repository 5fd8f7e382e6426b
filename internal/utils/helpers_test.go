package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil, "ignored"))
	assert.NoError(t, WrapErrorf(nil, "ignored %s", "too"))

	base := errors.New("disk full")
	err := WrapErrorf(base, "failed to write key %s", "k")
	assert.EqualError(t, err, "failed to write key k: disk full")
	assert.ErrorIs(t, err, base)
}

func TestUnixMilliTime(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	assert.NoError(t, err)

	got := UnixMilliTime(1710320400000, paris)
	assert.Equal(t, paris, got.Location())
	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, int64(1710320400000), got.UnixMilli())
}
