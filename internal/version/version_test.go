package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v1.2.3"
	GitCommit = "abc123"
	BuildTime = "2026-01-01"
	assert.Equal(t, "pagepress v1.2.3 (commit abc123, built 2026-01-01)", String())
}

func TestString_Unset(t *testing.T) {
	assert.Contains(t, String(), "pagepress ")
}
