package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUint64ToInt64(t *testing.T) {
	t.Parallel()

	got, ok := Uint64ToInt64(1 << 20)
	assert.True(t, ok)
	assert.Equal(t, int64(1<<20), got)

	got, ok = Uint64ToInt64(math.MaxInt64)
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), got)

	_, ok = Uint64ToInt64(math.MaxInt64 + 1)
	assert.False(t, ok)
}

func TestClampToUint64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), ClampToUint64(-5))
	assert.Equal(t, uint64(0), ClampToUint64(0))
	assert.Equal(t, uint64(2048), ClampToUint64(2048))
}
