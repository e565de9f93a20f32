package guestpass

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonsunghun/blog-back-sub000/app/server/keystore"
)

func TestHashVerify(t *testing.T) {
	hash, err := Hash("hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "hunter2", hash)

	match, err := Verify("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = Verify("wrong", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestVerifyMalformedHash(t *testing.T) {
	_, err := Verify("hunter2", "not-an-argon2id-hash")
	assert.Error(t, err)
}

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	mat, err := keystore.Init(context.Background(), t.TempDir())
	require.NoError(t, err)
	return NewCipher(mat)
}

func TestCipherRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	encrypted, err := c.EncryptPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", encrypted)

	plain, err := c.DecryptPassword(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)
}

func TestCipherDecryptGarbage(t *testing.T) {
	c := newTestCipher(t)

	_, err := c.DecryptPassword("not-base64!!!")
	assert.Error(t, err)

	// 合法 base64 但不是本密钥加密的内容
	_, err = c.DecryptPassword("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	assert.Error(t, err)
}

func TestCipherKeysAreDeploymentScoped(t *testing.T) {
	// 不同部署（不同密钥目录）互相解不开对方的 cookie
	first := newTestCipher(t)
	second := newTestCipher(t)

	encrypted, err := first.EncryptPassword("hunter2")
	require.NoError(t, err)

	_, err = second.DecryptPassword(encrypted)
	assert.Error(t, err)
}
