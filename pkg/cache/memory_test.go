package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.SetBytes("k", []byte("v"), time.Minute))

	v, ok, err := mc.GetBytes("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	_, ok, err := mc.GetBytes("absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.SetBytes("k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := mc.GetBytes("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.SetBytes("k", []byte("v"), 0))
	_, ok, err := mc.GetBytes("k")
	require.NoError(t, err)
	assert.True(t, ok)
}
