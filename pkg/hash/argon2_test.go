package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the suite fast; the format is identical
var testConfig = Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashPassword_Format(t *testing.T) {
	encoded, err := HashPassword("password123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=3,p=1$"))
	assert.Len(t, strings.Split(encoded, "$"), 6)
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	a, err := HashPasswordWithConfig("password123", testConfig)
	require.NoError(t, err)
	b, err := HashPasswordWithConfig("password123", testConfig)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyPassword(t *testing.T) {
	encoded, err := HashPasswordWithConfig("password123", testConfig)
	require.NoError(t, err)

	ok, err := VerifyPassword("password123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("password124", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"bcrypt":        "$2a$10$abcdefghijklmnopqrstuv",
		"wrong variant": "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"bad params":    "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"bad salt":      "$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5",
		"empty key":     "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
		"zero passes":   "$argon2id$v=19$m=1024,t=0,p=1$c2FsdA$a2V5",
	}

	for name, encoded := range tests {
		t.Run(name, func(t *testing.T) {
			ok, err := VerifyPassword("password123", encoded)
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrInvalidHash)
		})
	}

	ok, err := VerifyPassword("password123", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$a2V5")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}
