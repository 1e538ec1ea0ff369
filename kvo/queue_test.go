package kvo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuspendResumeCoalescesAcrossObjects(t *testing.T) {
	queue := NewQueue()
	a := &testWidget{}
	a.Init(a, queue)
	b := &testWidget{}
	b.Init(b, queue)

	obsA := &recordingObserver{}
	obsA.Init(obsA, queue)
	obsB := &recordingObserver{}
	obsB.Init(obsB, queue)
	require.NoError(t, a.AddObserver("value", obsA, "onValue", nil))
	require.NoError(t, b.AddObserver("value", obsB, "onValue", nil))

	queue.Suspend()
	require.NoError(t, a.Set("value", 1))
	require.NoError(t, a.Set("value", 2))
	require.NoError(t, b.Set("value", 10))
	assert.Empty(t, obsA.calls, "suspended queue must defer notification")
	assert.Empty(t, obsB.calls)

	require.NoError(t, queue.Resume())
	assert.Len(t, obsA.calls, 1)
	assert.Equal(t, 2, obsA.last)
	assert.Len(t, obsB.calls, 1)
	assert.Equal(t, 10, obsB.last)
}

func TestNestedSuspendOnlyFlushesAtZero(t *testing.T) {
	queue := NewQueue()
	w := &testWidget{}
	w.Init(w, queue)
	obs := &recordingObserver{}
	obs.Init(obs, queue)
	require.NoError(t, w.AddObserver("value", obs, "onValue", nil))

	queue.Suspend()
	queue.Suspend()
	require.NoError(t, w.Set("value", 1))
	require.NoError(t, queue.Resume())
	assert.Empty(t, obs.calls, "one Resume against two Suspends must not flush yet")

	require.NoError(t, queue.Resume())
	assert.Len(t, obs.calls, 1)
}

func TestIsObservingSuspended(t *testing.T) {
	queue := NewQueue()
	assert.False(t, queue.IsObservingSuspended())
	queue.Suspend()
	assert.True(t, queue.IsObservingSuspended())
	require.NoError(t, queue.Resume())
	assert.False(t, queue.IsObservingSuspended())
}
