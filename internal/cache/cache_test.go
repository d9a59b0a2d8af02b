package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	c := New()
	require.Nil(t, c.Get("missing"))

	c.SetSlow("mirrors", []string{"origin"})
	require.Equal(t, []string{"origin"}, c.Get("mirrors"))

	c.Delete("mirrors")
	require.Nil(t, c.Get("mirrors"))
}

func TestExpiry(t *testing.T) {
	c := New()
	c.Set("stale", "value", -time.Second)
	require.Nil(t, c.Get("stale"))
}

func TestClear(t *testing.T) {
	c := New()
	c.SetStatic("a", 1)
	c.SetFast("b", 2)
	c.Clear()
	require.Nil(t, c.Get("a"))
	require.Nil(t, c.Get("b"))
}

func TestGlobalSingleton(t *testing.T) {
	require.Same(t, Global(), Global())
}
