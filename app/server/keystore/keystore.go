package keystore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	secretFileName = "secret.key"
	lockFileName   = "secret.lock"

	secretSize = 32

	// 其他进程持有锁时，等待密钥出现的轮询参数
	pollInterval = 100 * time.Millisecond
	pollTimeout  = 3 * time.Second
)

// Material 是进程级共享密钥派生出的 AES-256-GCM 密钥与 nonce ，
// 只用于访客密码 cookie 的加解密。初始化之后只读，可以并发使用。
type Material struct {
	key   []byte
	nonce []byte
}

func (m *Material) Key() []byte {
	return m.key
}

func (m *Material) Nonce() []byte {
	return m.nonce
}

// Init 读取（或首次生成）部署级共享密钥并派生 Material 。
// 多个协作进程并发首次启动时通过锁文件串行化，只有一个进程写入密钥；
// 其余进程在有限时间内轮询等待，超时则整个启动失败。
func Init(ctx context.Context, dir string) (*Material, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create secret dir: %w", err)
	}

	secretPath := filepath.Join(dir, secretFileName)
	lockPath := filepath.Join(dir, lockFileName)

	// 已经有密钥，直接使用
	if secret, err := readSecret(secretPath); err == nil {
		return derive(secret), nil
	}

	// 尝试抢占锁文件
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err == nil {
		// 本进程负责生成密钥
		defer func() {
			_ = lock.Close()
			_ = os.Remove(lockPath)
		}()

		// 拿到锁之后再确认一次（锁的上一任持有者可能已经写完了）
		if secret, err := readSecret(secretPath); err == nil {
			return derive(secret), nil
		}

		secret := make([]byte, secretSize)
		if _, err := io.ReadFull(rand.Reader, secret); err != nil {
			return nil, fmt.Errorf("failed to generate secret: %w", err)
		}
		if err := os.WriteFile(secretPath, secret, 0o600); err != nil {
			return nil, fmt.Errorf("failed to persist secret: %w", err)
		}

		return derive(secret), nil
	}
	if !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("failed to acquire secret lock: %w", err)
	}

	// 锁被其他进程持有，有限轮询等待密钥出现
	var secret []byte
	backoff := retry.WithMaxDuration(pollTimeout, retry.NewConstant(pollInterval))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		s, err := readSecret(secretPath)
		if err != nil {
			return retry.RetryableError(err)
		}
		secret = s
		return nil
	}); err != nil {
		return nil, fmt.Errorf("timed out waiting for secret: %w", err)
	}

	return derive(secret), nil
}

func readSecret(path string) ([]byte, error) {
	secret, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(secret) != secretSize {
		return nil, fmt.Errorf("secret has unexpected size %d", len(secret))
	}
	return secret, nil
}

func derive(secret []byte) *Material {
	keySum := sha256.Sum256(append(append([]byte{}, secret...), []byte("key")...))
	nonceSum := sha256.Sum256(append(append([]byte{}, secret...), []byte("iv")...))

	return &Material{
		key:   keySum[:],
		nonce: nonceSum[:12],
	}
}
