package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	req := require.New(t)
	hasher := NewHasher()
	password := "correct-horse-battery-staple-1!"

	hash, err := hasher.Hash(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := hasher.Verify(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = hasher.Verify("wrong-password", hash)
	req.NoError(err)
	req.False(match)
}

func TestVerify_MalformedHash(t *testing.T) {
	req := require.New(t)
	hasher := NewHasher()

	_, err := hasher.Verify("whatever", "not-an-encoded-hash")
	req.Error(err)
}

func TestHash_SaltsDiffer(t *testing.T) {
	req := require.New(t)
	hasher := NewHasher()

	first, err := hasher.Hash("same-password-123")
	req.NoError(err)
	second, err := hasher.Hash("same-password-123")
	req.NoError(err)
	req.NotEqual(first, second)
}

func BenchmarkHash(b *testing.B) {
	hasher := NewHasher()
	for i := 0; i < b.N; i++ {
		_, _ = hasher.Hash("a-long-benchmark-password-123!")
	}
}
