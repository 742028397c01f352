package projects

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublicID(t *testing.T) {
	pattern := regexp.MustCompile(`^hld-\d{5}-\d{4}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := NewPublicID("hld")
		require.NoError(t, err)
		assert.Regexp(t, pattern, id)
		seen[id] = true
	}
	// Collisions are handled by the insert retry, but a hundred draws
	// colliding would mean the generator is broken.
	assert.Greater(t, len(seen), 95)
}
