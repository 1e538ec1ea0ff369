package kvo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserverSetAddIsIdempotentPerMethod(t *testing.T) {
	set := NewObserverSet()
	target := &testWidget{}

	set.Add(target, "onA", 1)
	set.Add(target, "onA", 2)
	set.Add(target, "onB", nil)

	assert.Equal(t, 2, set.Len())
	for _, m := range set.Members() {
		if m.Method == "onA" {
			assert.Equal(t, 2, m.Context, "a repeat Add for the same (target, method) overwrites context")
		}
	}
}

func TestObserverSetRemove(t *testing.T) {
	set := NewObserverSet()
	target := &testWidget{}
	set.Add(target, "onA", nil)
	set.Add(target, "onB", nil)

	set.Remove(target, "onA")
	assert.Equal(t, 1, set.Len())

	set.Remove(target, "onB")
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Members())
}
