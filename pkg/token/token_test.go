package token

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := NewSessionToken()
		require.NoError(t, err)
		require.Len(t, tok, 64)
		raw, err := hex.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, SessionTokenBytes)
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}
