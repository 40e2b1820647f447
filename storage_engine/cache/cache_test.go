package cache

import (
	"fmt"
	"testing"

	"ValuePool/values"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeySeparatesTypes(t *testing.T) {
	assert.NotEqual(t, Key(values.NewURI("x")), Key(values.NewLiteral("x")))
	assert.NotEqual(t, Key(values.NewLiteral("x")), Key(values.NewString("x")))
	assert.Equal(t, Key(values.NewString("x")), Key(values.NewString("x")))
}

func TestValueCache(t *testing.T) {
	vc, err := NewValueCache(100)
	require.NoError(t, err)
	defer vc.Close()

	alpha := values.NewLiteral("alpha")
	vc.Set(alpha, 11)
	vc.Wait()

	node, ok := vc.Get(alpha)
	require.True(t, ok)
	assert.Equal(t, int64(11), node)

	vc.Delete(alpha)
	_, ok = vc.Get(alpha)
	assert.False(t, ok)

	// a set still in ristretto's buffer must not outlive the delete
	bravo := values.NewLiteral("bravo")
	vc.Set(bravo, 12)
	vc.Delete(bravo)
	_, ok = vc.Get(bravo)
	assert.False(t, ok)

	vc.Set(alpha, 11)
	vc.Wait()
	vc.Clear()
	_, ok = vc.Get(alpha)
	assert.False(t, ok)

	_, err = NewValueCache(0)
	assert.Error(t, err)
}

func TestNodeCacheBlankMarker(t *testing.T) {
	nc, err := NewNodeCache(100)
	require.NoError(t, err)
	defer nc.Close()

	nc.Set(12, values.NewLiteral("bravo"))
	nc.SetBlank(13)
	nc.Wait()

	v, blank, ok := nc.Get(12)
	require.True(t, ok)
	assert.False(t, blank)
	assert.Equal(t, values.NewLiteral("bravo"), v)

	v, blank, ok = nc.Get(13)
	require.True(t, ok)
	assert.True(t, blank)
	assert.Nil(t, v)

	_, _, ok = nc.Get(14)
	assert.False(t, ok)

	s := Collect(nil, nc)
	assert.Equal(t, uint64(2), s.NodeHits)
	assert.Equal(t, uint64(1), s.NodeMisses)
}

func TestValueFilterHasNoFalseNegatives(t *testing.T) {
	vf := NewValueFilter(1000, 0.01)
	for i := 0; i < 500; i++ {
		vf.Add(values.NewLiteral(fmt.Sprintf("v%d", i)))
	}
	for i := 0; i < 500; i++ {
		assert.True(t, vf.MayContain(values.NewLiteral(fmt.Sprintf("v%d", i))))
	}

	vf.Reset()
	assert.False(t, vf.MayContain(values.NewLiteral("v1")))
	assert.InDelta(t, 0, vf.Load(), 0.01)
}
