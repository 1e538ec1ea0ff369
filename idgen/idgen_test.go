package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUUIDIsUniqueAndWellFormed(t *testing.T) {
	a := NewUUID()
	b := NewUUID()

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestContentHashIsDeterministic(t *testing.T) {
	h1 := ContentHash([]byte("hello"))
	h2 := ContentHash([]byte("hello"))
	h3 := ContentHash([]byte("world"))

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
