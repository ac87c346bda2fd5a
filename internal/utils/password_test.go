package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 10)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, VerifyPassword(hash, "wrong-pass"))
	assert.False(t, VerifyPassword("", "s3cret-pass"))
}

func TestHashPasswordDistinctSalts(t *testing.T) {
	h1, err := HashPassword("same-input", 10)
	require.NoError(t, err)
	h2, err := HashPassword("same-input", 10)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestRandomHexLengthAndUniqueness(t *testing.T) {
	a, err := RandomHex(32)
	require.NoError(t, err)
	b, err := RandomHex(32)
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
