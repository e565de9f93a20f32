package guestpass

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/moonsunghun/blog-back-sub000/app/server/keystore"
)

// 访客密码有两种互不相干的用途：
//   - 单向哈希，存在资源记录上，永远不可解密
//   - 用共享 KeyMaterial 对称加密，存在客户端 cookie 里，服务端随时可解
// 两者不能混用。

func Hash(plain string) (string, error) {
	hash, err := argon2id.CreateHash(plain, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("failed to hash guest password: %w", err)
	}
	return hash, nil
}

func Verify(plain string, hash string) (bool, error) {
	match, _, err := argon2id.CheckHash(plain, hash)
	if err != nil {
		return false, fmt.Errorf("failed to check guest password: %w", err)
	}
	return match, nil
}

// Cipher 用共享 KeyMaterial 往返访客密码，只服务于 cookie 场景
type Cipher struct {
	mat *keystore.Material
}

func NewCipher(mat *keystore.Material) *Cipher {
	return &Cipher{mat: mat}
}

func (c *Cipher) newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.mat.Key())
	if err != nil {
		return nil, fmt.Errorf("could not create new cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create GCM: %w", err)
	}

	return gcm, nil
}

func (c *Cipher) EncryptPassword(plain string) (string, error) {
	gcm, err := c.newGCM()
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, c.mat.Nonce(), []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) DecryptPassword(encrypted string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("could not decode encrypted password: %w", err)
	}

	gcm, err := c.newGCM()
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, c.mat.Nonce(), sealed, nil)
	if err != nil {
		return "", fmt.Errorf("could not decrypt password: %w", err)
	}

	return string(plain), nil
}
