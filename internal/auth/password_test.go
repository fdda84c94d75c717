package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordIsSalted(t *testing.T) {
	h1, err := HashPassword("testPassword123")
	require.NoError(t, err)
	h2, err := HashPassword("testPassword123")
	require.NoError(t, err)

	assert.NotEqual(t, "testPassword123", h1)
	assert.NotEqual(t, h1, h2)
	assert.True(t, CheckPassword("testPassword123", h1))
	assert.True(t, CheckPassword("testPassword123", h2))
}

func TestCheckPasswordRejectsWrongPassword(t *testing.T) {
	h, err := HashPassword("testPassword123")
	require.NoError(t, err)

	assert.False(t, CheckPassword("wrongPassword", h))
	assert.False(t, CheckPassword("", h))
}
