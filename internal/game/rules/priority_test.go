package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityTracker_PassAround(t *testing.T) {
	pt, err := NewPriorityTracker([]string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, "alice", pt.Holder())

	// One pass moves priority; a full round of passes completes.
	assert.False(t, pt.Pass())
	assert.Equal(t, "bob", pt.Holder())
	assert.True(t, pt.Pass())
}

func TestPriorityTracker_ActionResetsStreak(t *testing.T) {
	pt, err := NewPriorityTracker([]string{"alice", "bob"})
	require.NoError(t, err)

	assert.False(t, pt.Pass())
	// Bob responds; the streak starts over and both must pass again.
	pt.ActionTaken()
	assert.False(t, pt.Pass())
	assert.True(t, pt.Pass())
}

func TestPriorityTracker_Grant(t *testing.T) {
	pt, err := NewPriorityTracker([]string{"alice", "bob"})
	require.NoError(t, err)

	assert.False(t, pt.Pass())
	require.NoError(t, pt.Grant("alice"))
	assert.Equal(t, "alice", pt.Holder())
	// Granting cleared the pass streak.
	assert.False(t, pt.Pass())
	assert.True(t, pt.Pass())

	assert.Error(t, pt.Grant("nobody"))
}

func TestPriorityTracker_APNAPOrder(t *testing.T) {
	pt, err := NewPriorityTracker([]string{"alice", "bob", "carol"})
	require.NoError(t, err)

	assert.Equal(t, []string{"bob", "carol", "alice"}, pt.APNAPOrder("bob"))
	assert.Equal(t, []string{"alice", "bob", "carol"}, pt.APNAPOrder("alice"))
}

func TestPriorityTracker_Remove(t *testing.T) {
	pt, err := NewPriorityTracker([]string{"alice", "bob", "carol"})
	require.NoError(t, err)

	assert.False(t, pt.Pass()) // bob holds priority
	pt.Remove("bob")
	assert.Equal(t, "carol", pt.Holder())
	assert.Equal(t, []string{"alice", "carol"}, pt.Order())

	// Two players remain, so a full round is two passes.
	assert.False(t, pt.Pass())
	assert.True(t, pt.Pass())
}

func TestPriorityTracker_NextInOrder(t *testing.T) {
	pt, err := NewPriorityTracker([]string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob", pt.NextInOrder("alice"))
	assert.Equal(t, "alice", pt.NextInOrder("bob"))
}

func TestNewPriorityTracker_Empty(t *testing.T) {
	_, err := NewPriorityTracker(nil)
	assert.Error(t, err)
}
