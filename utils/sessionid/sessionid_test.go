package sessionid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := New()
		require.True(t, IsValid(id), id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestIsValid(t *testing.T) {
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("jan_01hqr8v9x2k3m4n5p6q7r8s9t0"))
	assert.False(t, IsValid("sess_not-a-ulid"))
}

func TestParse(t *testing.T) {
	id := New()
	parsed, err := Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id[len(prefix):], strings.ToLower(parsed.String()))
}
