package keystore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCreatesSecretAndDerivesMaterial(t *testing.T) {
	dir := t.TempDir()

	mat, err := Init(context.Background(), dir)
	require.NoError(t, err)

	assert.Len(t, mat.Key(), 32)
	assert.Len(t, mat.Nonce(), 12)

	secret, err := os.ReadFile(filepath.Join(dir, secretFileName))
	require.NoError(t, err)
	assert.Len(t, secret, secretSize)

	// 锁文件用完就清理
	_, err = os.Stat(filepath.Join(dir, lockFileName))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInitReusesExistingSecret(t *testing.T) {
	dir := t.TempDir()

	first, err := Init(context.Background(), dir)
	require.NoError(t, err)

	second, err := Init(context.Background(), dir)
	require.NoError(t, err)

	// 同一个密钥派生出同样的材料
	assert.Equal(t, first.Key(), second.Key())
	assert.Equal(t, first.Nonce(), second.Nonce())
}

func TestInitRejectsTruncatedSecret(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, secretFileName), []byte("short"), 0o600))

	// 密钥文件损坏时走抢锁重建路径，生成新的合法密钥
	mat, err := Init(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, mat.Key(), 32)

	secret, err := os.ReadFile(filepath.Join(dir, secretFileName))
	require.NoError(t, err)
	assert.Len(t, secret, secretSize)
}

func TestInitTimesOutWhenLockHeldWithoutSecret(t *testing.T) {
	dir := t.TempDir()

	// 模拟另一个进程：占着锁却一直不写密钥
	lock, err := os.OpenFile(filepath.Join(dir, lockFileName), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	defer lock.Close()

	start := time.Now()
	_, err = Init(context.Background(), dir)
	assert.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), pollTimeout)
}

func TestInitWaitsForSecretFromLockHolder(t *testing.T) {
	dir := t.TempDir()

	lock, err := os.OpenFile(filepath.Join(dir, lockFileName), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	defer lock.Close()

	// 持锁方稍后写入密钥，轮询应当等到它
	secret := make([]byte, secretSize)
	for i := range secret {
		secret[i] = byte(i)
	}
	go func() {
		time.Sleep(300 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, secretFileName), secret, 0o600)
	}()

	mat, err := Init(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, derive(secret).Key(), mat.Key())
	assert.Equal(t, derive(secret).Nonce(), mat.Nonce())
}
