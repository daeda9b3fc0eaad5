package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCache_HitsAndEviction(t *testing.T) {
	cache, err := NewQueryCache(2)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Capacity())

	steps, hit, err := cache.Parse(`v().count()`)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, steps, 2)

	again, hit, err := cache.Parse(`v().count()`)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, steps, again)
	assert.Equal(t, 1, cache.Len())

	_, _, err = cache.Parse(`v().out()`)
	require.NoError(t, err)
	_, _, err = cache.Parse(`e()`)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	_, hit, err = cache.Parse(`v().count()`)
	require.NoError(t, err)
	assert.False(t, hit)

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestQueryCache_ErrorsAreNotCached(t *testing.T) {
	cache, err := NewQueryCache(4)
	require.NoError(t, err)

	_, hit, err := cache.Parse(`v(`)
	assert.ErrorIs(t, err, ErrParse)
	assert.False(t, hit)
	assert.Equal(t, 0, cache.Len())
}

func TestQueryCache_Disabled(t *testing.T) {
	cache, err := NewQueryCache(0)
	require.NoError(t, err)
	assert.Nil(t, cache)

	steps, hit, err := cache.Parse(`v().out()`)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, steps, 2)
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, 0, cache.Capacity())
	assert.NotPanics(t, cache.Purge)
}
