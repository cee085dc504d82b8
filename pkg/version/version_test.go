package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	s := String()
	assert.Contains(t, s, "gridpilot")
	assert.Contains(t, s, Version)
	assert.Contains(t, s, runtime.Version())
}

func TestInfo(t *testing.T) {
	info := Info()
	assert.Equal(t, Version, info["version"])
	assert.Equal(t, GitCommit, info["commit"])
	assert.NotEmpty(t, info["platform"])
}
