package logx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("planner")
	assert.Equal(t, "planner", logger.GetComponent())
}

func TestWithComponent(t *testing.T) {
	logger := NewLogger("pipeline")
	derived := logger.WithComponent("stitcher")

	assert.Equal(t, "stitcher", derived.GetComponent())
	assert.Equal(t, "pipeline", logger.GetComponent(), "original logger unchanged")
}

func TestSetDebug(t *testing.T) {
	orig := IsDebugEnabled()
	defer SetDebug(orig)

	SetDebug(true)
	assert.True(t, IsDebugEnabled())

	SetDebug(false)
	assert.False(t, IsDebugEnabled())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "no-op"))
}
