package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPlainHasher(t *testing.T) {
	h := PlainHasher{}
	stored, err := h.Hash("Abcdef1!")
	require.NoError(t, err)

	assert.Equal(t, "Abcdef1!", stored)
	assert.True(t, h.Matches(stored, "Abcdef1!"))
	assert.False(t, h.Matches(stored, "abcdef1!"))
	assert.False(t, h.Matches(stored, ""))
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	stored, err := h.Hash("Abcdef1!")
	require.NoError(t, err)

	assert.NotEqual(t, "Abcdef1!", stored)
	assert.True(t, h.Matches(stored, "Abcdef1!"))
	assert.False(t, h.Matches(stored, "wrong"))
	assert.False(t, h.Matches("not-a-hash", "Abcdef1!"))
}

func TestNewHasher(t *testing.T) {
	h, err := NewHasher("plain")
	require.NoError(t, err)
	assert.IsType(t, PlainHasher{}, h)

	h, err = NewHasher("bcrypt")
	require.NoError(t, err)
	assert.IsType(t, BcryptHasher{}, h)

	_, err = NewHasher("md5")
	assert.Error(t, err)
}
