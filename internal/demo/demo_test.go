package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunAllScenariosPass(t *testing.T) {
	for _, r := range RunAll() {
		assert.True(t, r.Passed, "%s: %s", r.Name, r.Detail)
	}
}
