package common

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	for _, size := range []int{0, 1, 16, 32} {
		s, err := MakeRandHexString(size)
		require.NoError(t, err)
		assert.Len(t, s, size*2)

		raw, err := hex.DecodeString(s)
		require.NoError(t, err)
		assert.Len(t, raw, size)
	}
}

func TestMakeSessionID_Distinct(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		id, err := MakeSessionID()
		require.NoError(t, err)
		assert.Len(t, id, SessionIDSize*2)
		assert.False(t, seen[id], "session id repeated: %s", id)
		seen[id] = true
	}
}

func TestWipeByteArray(t *testing.T) {
	key := GenerateRandByteArray(32)
	require.Len(t, key, 32)

	WipeByteArray(key)
	assert.Equal(t, make([]byte, 32), key)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}

func TestGenerateRandByteArray_Fresh(t *testing.T) {
	a := GenerateRandByteArray(32)
	b := GenerateRandByteArray(32)
	assert.NotEqual(t, a, b)
	assert.Empty(t, GenerateRandByteArray(0))
}
