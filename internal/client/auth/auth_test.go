package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) *Authenticator {
	t.Helper()
	r, d, s := MakeVerifiers("real-pass", "duress-pass")
	a, err := NewAuthenticator(r, d, s)
	require.NoError(t, err)
	return a
}

func TestAuthenticate(t *testing.T) {
	a := newAuth(t)

	t.Run("real password", func(t *testing.T) {
		sess, mode, err := a.Authenticate("real-pass")
		require.NoError(t, err)
		assert.Equal(t, ModeReal, mode)
		assert.True(t, sess.IsReal)
		assert.Equal(t, RealUser, sess.Username)
		assert.Equal(t, "real-pass", sess.Secret)
		assert.Len(t, sess.ID, 32)
	})

	t.Run("session ids differ per login", func(t *testing.T) {
		s1, _, err := a.Authenticate("real-pass")
		require.NoError(t, err)
		s2, _, err := a.Authenticate("real-pass")
		require.NoError(t, err)
		assert.NotEqual(t, s1.ID, s2.ID)
	})

	t.Run("duress password", func(t *testing.T) {
		sess, mode, err := a.Authenticate("duress-pass")
		require.NoError(t, err)
		assert.Equal(t, ModeDecoy, mode)
		assert.False(t, sess.IsReal)
		assert.Empty(t, sess.ID)
		assert.Empty(t, sess.Secret)
		assert.Equal(t, DecoyUser, sess.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, mode, err := a.Authenticate("nope")
		assert.ErrorIs(t, err, ErrIncorrectPassword)
		assert.Equal(t, ModeNone, mode)
	})
}

func TestAuthenticate_NoDuressConfigured(t *testing.T) {
	r, _, s := MakeVerifiers("real-pass", "")
	a, err := NewAuthenticator(r, "", s)
	require.NoError(t, err)

	_, _, err = a.Authenticate("")
	assert.ErrorIs(t, err, ErrIncorrectPassword)
}

func TestNewAuthenticator_InvalidInput(t *testing.T) {
	r, d, s := MakeVerifiers("a", "b")

	tests := []struct {
		name              string
		real, duress, slt string
	}{
		{"bad salt", r, d, "zz"},
		{"empty salt", r, d, ""},
		{"bad real", "xyz", d, s},
		{"empty real", "", d, s},
		{"bad duress", r, "q", s},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAuthenticator(tt.real, tt.duress, tt.slt)
			assert.Error(t, err)
		})
	}
}
