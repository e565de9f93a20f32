package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/moonsunghun/blog-back-sub000/app/server/types"
)

const gcmTagSize = 16

// 每个会员的密钥与 nonce 都只由自己的 id 和角色派生，
// 不存在跨会员的共享会话密钥，也就不需要服务端会话表
type payload struct {
	ID   uint       `json:"id"`
	Role types.Role `json:"role"`
}

func deriveKey(m types.Member) []byte {
	sum := sha256.Sum256([]byte(string(m.Role) + "-" + strconv.FormatUint(uint64(m.ID), 10) + "key"))
	return sum[:]
}

func deriveNonce(m types.Member) []byte {
	sum := sha256.Sum256([]byte(string(m.Role) + "-" + strconv.FormatUint(uint64(m.ID), 10) + "iv"))
	return sum[:12]
}

func newGCM(m types.Member) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(m))
	if err != nil {
		return nil, fmt.Errorf("could not create new cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create GCM: %w", err)
	}

	return gcm, nil
}

// Encrypt 用会员自己的派生密钥签出会话令牌。
// 令牌格式： base64( id | role | base64(密文) | base64(认证标签) )
func Encrypt(m types.Member) (string, error) {
	plaintext, err := json.Marshal(payload{ID: m.ID, Role: m.Role})
	if err != nil {
		return "", fmt.Errorf("could not marshal payload: %w", err)
	}

	gcm, err := newGCM(m)
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, deriveNonce(m), plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-gcmTagSize], sealed[len(sealed)-gcmTagSize:]

	inner := strings.Join([]string{
		strconv.FormatUint(uint64(m.ID), 10),
		string(m.Role),
		base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(tag),
	}, "|")

	return base64.StdEncoding.EncodeToString([]byte(inner)), nil
}

// Decrypt 用候选会员的派生密钥尝试解开令牌。
// GCM 认证标签不匹配、恢复出的 id 与令牌内嵌 id 不一致、
// 或者与候选会员本身不一致，都是认证失败，绝不部分成功。
func Decrypt(token string, candidate types.Member) (*types.Member, error) {
	innerBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("could not decode token: %w", err)
	}

	parts := strings.Split(string(innerBytes), "|")
	if len(parts) != 4 {
		return nil, fmt.Errorf("malformed token")
	}

	embeddedID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed token id: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("could not decode ciphertext: %w", err)
	}
	tag, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("could not decode auth tag: %w", err)
	}

	gcm, err := newGCM(candidate)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, deriveNonce(candidate), append(ciphertext, tag...), nil)
	if err != nil {
		return nil, fmt.Errorf("could not decrypt token: %w", err)
	}

	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return nil, fmt.Errorf("could not unmarshal payload: %w", err)
	}

	// 自洽校验：明文、内嵌字段、候选会员三方必须一致
	if p.ID != uint(embeddedID) || p.ID != candidate.ID || p.Role != candidate.Role {
		return nil, fmt.Errorf("token identity mismatch")
	}

	return &types.Member{ID: p.ID, Role: p.Role}, nil
}

// Resolve 对候选会员逐个试解密，返回第一个自洽的匹配；
// 全部失败返回 nil ，请求按访客处理。
// 逐个试解密是 O(会员数) 的线性扫描，调用方要自己控制候选集合的来源。
func Resolve(token string, candidates []types.Member) *types.Member {
	if token == "" {
		return nil
	}

	for _, candidate := range candidates {
		if m, err := Decrypt(token, candidate); err == nil {
			return m
		}
	}

	return nil
}
