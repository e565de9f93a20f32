package session

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonsunghun/blog-back-sub000/app/server/types"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	member := types.Member{ID: 42, Role: types.RoleUser}

	token, err := Encrypt(member)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := Decrypt(token, member)
	require.NoError(t, err)
	assert.Equal(t, member.ID, got.ID)
	assert.Equal(t, member.Role, got.Role)
}

func TestDecryptWithWrongCandidateFails(t *testing.T) {
	alice := types.Member{ID: 1, Role: types.RoleUser}
	bob := types.Member{ID: 2, Role: types.RoleUser}
	adminAlice := types.Member{ID: 1, Role: types.RoleAdmin}

	token, err := Encrypt(alice)
	require.NoError(t, err)

	// 其他会员的派生密钥解不开
	_, err = Decrypt(token, bob)
	assert.Error(t, err)

	// 同一 id 不同角色也算另一个派生密钥
	_, err = Decrypt(token, adminAlice)
	assert.Error(t, err)
}

func TestDecryptTamperedTokenFails(t *testing.T) {
	member := types.Member{ID: 7, Role: types.RoleAdmin}

	token, err := Encrypt(member)
	require.NoError(t, err)

	inner, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)

	// 翻转密文部分的一个字节
	tampered := make([]byte, len(inner))
	copy(tampered, inner)
	tampered[len(tampered)/2] ^= 0x01

	_, err = Decrypt(base64.StdEncoding.EncodeToString(tampered), member)
	assert.Error(t, err)
}

func TestDecryptMalformedToken(t *testing.T) {
	member := types.Member{ID: 1, Role: types.RoleUser}

	for _, token := range []string{
		"",
		"not-base64!!!",
		base64.StdEncoding.EncodeToString([]byte("too|few|parts")),
		base64.StdEncoding.EncodeToString([]byte("abc|user|AAAA|AAAA")), // id 不是数字
	} {
		_, err := Decrypt(token, member)
		assert.Error(t, err, "token %q", token)
	}
}

func TestResolve(t *testing.T) {
	candidates := []types.Member{
		{ID: 1, Role: types.RoleAdmin},
		{ID: 2, Role: types.RoleUser},
		{ID: 3, Role: types.RoleUser},
	}

	token, err := Encrypt(candidates[2])
	require.NoError(t, err)

	got := Resolve(token, candidates)
	require.NotNil(t, got)
	assert.Equal(t, uint(3), got.ID)
	assert.Equal(t, types.RoleUser, got.Role)
}

func TestResolveUnknownTokenIsGuest(t *testing.T) {
	candidates := []types.Member{
		{ID: 1, Role: types.RoleAdmin},
		{ID: 2, Role: types.RoleUser},
	}

	// 不在候选集合里的会员签出的令牌
	token, err := Encrypt(types.Member{ID: 99, Role: types.RoleUser})
	require.NoError(t, err)

	assert.Nil(t, Resolve(token, candidates))
	assert.Nil(t, Resolve("", candidates))
	assert.Nil(t, Resolve("garbage", candidates))
}
