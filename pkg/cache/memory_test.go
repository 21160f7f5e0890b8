package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, zap.NewNop())
	defer c.Close()

	t.Run("set-and-get", func(t *testing.T) {
		require.True(t, c.Set("rates", map[string]float64{"USD": 1}, time.Hour))

		v, found := c.Get("rates")
		require.True(t, found)
		assert.Equal(t, map[string]float64{"USD": 1}, v)
	})

	t.Run("expired-entry-not-served", func(t *testing.T) {
		c.Set("short", 1, 50*time.Millisecond)
		time.Sleep(100 * time.Millisecond)

		_, found := c.Get("short")
		assert.False(t, found)
	})

	t.Run("zero-ttl-never-expires", func(t *testing.T) {
		c.Set("forever", 1, 0)

		_, found := c.Get("forever")
		assert.True(t, found)
	})

	t.Run("delete-and-clear", func(t *testing.T) {
		c.Set("a", 1, time.Hour)
		c.Set("b", 2, time.Hour)

		c.Delete("a")
		_, found := c.Get("a")
		assert.False(t, found)

		c.Clear()
		assert.Equal(t, 0, c.ItemCount())
	})
}

func TestNew_Memory(t *testing.T) {
	c, err := New(BackendMemory, 100, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
}
