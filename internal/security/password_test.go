package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fastParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPasswordWithParams("p1", fastParams)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(hash), "$argon2id$v=19$m=8192,t=1,p=1$"))
	assert.NotContains(t, string(hash), "p1$")

	ok, err := VerifyPassword("p1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	first, err := HashPasswordWithParams("same", fastParams)
	require.NoError(t, err)
	second, err := HashPasswordWithParams("same", fastParams)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPassword_Bcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("legacy"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, IsLegacyHash(hash))

	ok, err := VerifyPassword("legacy", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("other", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{name: "plaintext", hash: "p1"},
		{name: "truncated", hash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA"},
		{name: "bad version", hash: "$argon2id$v=16$m=8192,t=1,p=1$c2FsdA$aGFzaA"},
		{name: "bad salt", hash: "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword("p1", []byte(tt.hash))
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}
