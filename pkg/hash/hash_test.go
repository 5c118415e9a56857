package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hashed, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hashed)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, Cost, cost)

	assert.True(t, CheckPasswordHash("secret123", hashed))
	assert.False(t, CheckPasswordHash("wrong", hashed))

	again, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hashed, again, "salted hashes differ")
}
