package password

import (
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerify(t *testing.T) {
	h := New(&argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	hash, err := h.Hash("debug-me")
	require.NoError(t, err)

	ok, err := h.Verify("debug-me", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("nope", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.Verify("debug-me", "")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckRejectsMalformedHash(t *testing.T) {
	assert.ErrorIs(t, Check("plaintext"), ErrBadHash)

	_, err := NewDefault().Verify("x", "$argon2id$broken")
	assert.ErrorIs(t, err, ErrBadHash)

	hash, err := New(&argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}).Hash("x")
	require.NoError(t, err)
	assert.NoError(t, Check(hash))
}
