package bitmap_test

import (
	"testing"

	"github.com/rmilewski4/diskfs/bitmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew__StartsAllClear(t *testing.T) {
	bm := bitmap.New(100)
	assert.Equal(t, 100, bm.CapacityBits())
	assert.Equal(t, 0, bm.Popcount())
	assert.Equal(t, -1, bm.FindFirstSet())
	for i := 0; i < 100; i++ {
		require.Falsef(t, bm.Test(i), "bit %d should be clear on a fresh bitmap", i)
	}
}

func TestSetAndClear(t *testing.T) {
	bm := bitmap.New(64)
	bm.Set(0)
	bm.Set(63)
	bm.Set(17)

	assert.True(t, bm.Test(0))
	assert.True(t, bm.Test(63))
	assert.True(t, bm.Test(17))
	assert.False(t, bm.Test(1))
	assert.Equal(t, 3, bm.Popcount())

	bm.Clear(17)
	assert.False(t, bm.Test(17))
	assert.Equal(t, 2, bm.Popcount())
}

func TestFindFirstZero(t *testing.T) {
	bm := bitmap.New(16)
	for i := 0; i < 5; i++ {
		bm.Set(i)
	}
	assert.Equal(t, 5, bm.FindFirstZero())

	for i := 5; i < 16; i++ {
		bm.Set(i)
	}
	assert.Equal(t, -1, bm.FindFirstZero())
}

func TestFindFirstSet__NoneSet(t *testing.T) {
	bm := bitmap.New(32)
	assert.Equal(t, -1, bm.FindFirstSet())
}

func TestNewOverlay__SharesStorageWithCaller(t *testing.T) {
	raw := make([]byte, 4)
	bm := bitmap.NewOverlay(raw, 32)

	bm.Set(0)
	bm.Set(9)
	assert.Equal(t, byte(1), raw[0])
	assert.Equal(t, byte(2), raw[1])

	raw[2] = 0xFF
	assert.True(t, bm.Test(16))
	assert.True(t, bm.Test(23))
	assert.Equal(t, 10, bm.Popcount())
}

func TestFindFirstZeroBefore__IgnoresBitsAtOrPastLimit(t *testing.T) {
	bm := bitmap.New(16)
	for i := 8; i < 16; i++ {
		bm.Set(i)
	}
	assert.Equal(t, 0, bm.FindFirstZeroBefore(8))

	for i := 0; i < 8; i++ {
		bm.Set(i)
	}
	assert.Equal(t, -1, bm.FindFirstZeroBefore(8))
	assert.Equal(t, -1, bm.FindFirstZero())
}

func TestPopcountBefore__IgnoresBitsAtOrPastLimit(t *testing.T) {
	bm := bitmap.New(16)
	bm.Set(2)
	bm.Set(10)
	bm.Set(15)
	assert.Equal(t, 1, bm.PopcountBefore(8))
	assert.Equal(t, 3, bm.Popcount())
}

func TestCapacityBytes(t *testing.T) {
	assert.Equal(t, 1, bitmap.New(1).CapacityBytes())
	assert.Equal(t, 1, bitmap.New(8).CapacityBytes())
	assert.Equal(t, 2, bitmap.New(9).CapacityBytes())
	assert.Equal(t, 32, bitmap.New(256).CapacityBytes())
}
