package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	v, sha, bt := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = v, sha, bt })

	Version, GitSHA, BuildTime = "1.2.0", "abc123", "2024-03-01T12:00:00Z"
	assert.Equal(t, "rdcfit 1.2.0 (commit abc123, built 2024-03-01T12:00:00Z)", String())
}
