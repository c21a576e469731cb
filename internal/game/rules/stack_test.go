package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackManager_LIFO(t *testing.T) {
	sm := NewStackManager()
	sm.Push(StackItem{ID: "first", Description: "bottom"})
	sm.Push(StackItem{ID: "second", Description: "middle"})
	sm.Push(StackItem{ID: "third", Description: "top"})

	require.Equal(t, 3, sm.Size())

	top, ok := sm.Peek()
	require.True(t, ok)
	assert.Equal(t, "third", top.ID)

	// Last in, first out.
	for _, want := range []string{"third", "second", "first"} {
		item, err := sm.Pop()
		require.NoError(t, err)
		assert.Equal(t, want, item.ID)
	}
	assert.True(t, sm.IsEmpty())

	_, err := sm.Pop()
	assert.Error(t, err)
}

func TestStackManager_Remove(t *testing.T) {
	sm := NewStackManager()
	sm.Push(StackItem{ID: "a"})
	sm.Push(StackItem{ID: "b"})
	sm.Push(StackItem{ID: "c"})

	removed, ok := sm.Remove("b")
	require.True(t, ok)
	assert.Equal(t, "b", removed.ID)
	assert.Equal(t, 2, sm.Size())

	_, ok = sm.Find("b")
	assert.False(t, ok)

	_, ok = sm.Remove("missing")
	assert.False(t, ok)
}

func TestStackManager_ClearInvokesFizzle(t *testing.T) {
	sm := NewStackManager()
	var fizzled []string
	for _, id := range []string{"a", "b"} {
		id := id
		sm.Push(StackItem{ID: id, OnFizzle: func() { fizzled = append(fizzled, id) }})
	}

	sm.Clear()
	assert.True(t, sm.IsEmpty())
	assert.Len(t, fizzled, 2)
}
