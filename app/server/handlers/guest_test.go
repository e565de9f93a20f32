package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moonsunghun/blog-back-sub000/app/server/access"
	"github.com/moonsunghun/blog-back-sub000/app/server/guestpass"
	"github.com/moonsunghun/blog-back-sub000/app/server/keystore"
	"github.com/moonsunghun/blog-back-sub000/app/server/models"
	"github.com/moonsunghun/blog-back-sub000/app/server/types"
)

func newGuestTestApp(t *testing.T) *App {
	t.Helper()
	mat, err := keystore.Init(context.Background(), t.TempDir())
	require.NoError(t, err)
	return &App{
		l:  zap.NewNop(),
		gp: guestpass.NewCipher(mat),
	}
}

func TestGuestCookieName(t *testing.T) {
	assert.Equal(t, "guestPassword-inquiry-42", guestCookieName(kindInquiry, 42))

	// 不同类型的资源即使 id 相同也不共用 cookie
	names := map[string]struct{}{}
	for _, kind := range []resourceKind{kindPost, kindInquiry, kindComment, kindReply} {
		names[guestCookieName(kind, 42)] = struct{}{}
	}
	assert.Len(t, names, 4)
}

func TestSetAndVerifyGuestCookie(t *testing.T) {
	a := newGuestTestApp(t)

	hash, err := guestpass.Hash("hunter2")
	require.NoError(t, err)

	// 签发 cookie
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, a.setGuestCookie(c, kindInquiry, 42, "hunter2"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "guestPassword-inquiry-42", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEqual(t, "hunter2", cookies[0].Value)

	// 带着 cookie 回来校验
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	c = e.NewContext(req, httptest.NewRecorder())
	assert.NoError(t, a.verifyGuestCookie(c, kindInquiry, 42, hash))

	// 同一个 cookie 对不上别的记录的哈希
	otherHash, err := guestpass.Hash("different")
	require.NoError(t, err)
	assert.ErrorIs(t, a.verifyGuestCookie(c, kindInquiry, 42, otherHash), access.ErrAuthentication)

	// 询问 42 的 cookie 不会被同 id 的评论误用
	assert.ErrorIs(t, a.verifyGuestCookie(c, kindComment, 42, hash), access.ErrAuthentication)
}

func TestVerifyGuestCookieMissingOrGarbage(t *testing.T) {
	a := newGuestTestApp(t)
	e := echo.New()

	hash, err := guestpass.Hash("hunter2")
	require.NoError(t, err)

	// 没有 cookie
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.ErrorIs(t, a.verifyGuestCookie(c, kindInquiry, 42, hash), access.ErrAuthentication)

	// cookie 内容不是本部署密钥加密出来的
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: guestCookieName(kindInquiry, 42), Value: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"})
	c = e.NewContext(req, httptest.NewRecorder())
	assert.ErrorIs(t, a.verifyGuestCookie(c, kindInquiry, 42, hash), access.ErrAuthentication)
}

func TestResourceAuthor(t *testing.T) {
	// 会员作者，带完整用户记录
	user := models.User{IsAdmin: true}
	user.ID = 5
	userID := uint(5)
	author := resourceAuthor(&userID, &user, "", "")
	require.NotNil(t, author.Member)
	assert.Equal(t, types.Member{ID: 5, Role: types.RoleAdmin}, *author.Member)

	// 会员作者，用户记录没预加载时退化为普通角色
	author = resourceAuthor(&userID, nil, "", "")
	require.NotNil(t, author.Member)
	assert.Equal(t, types.RoleUser, author.Member.Role)

	// 访客作者
	author = resourceAuthor(nil, nil, "mimi", "hash")
	require.NotNil(t, author.Guest)
	assert.Equal(t, "mimi", author.Guest.Nickname)
	assert.Equal(t, "hash", author.Guest.PasswordHash)

	// 两个变体都为空：作者无法判定
	author = resourceAuthor(nil, nil, "", "")
	assert.Nil(t, author.Member)
	assert.Nil(t, author.Guest)
	assert.Equal(t, "unknown", authorKind(author))
}

func TestAuthorName(t *testing.T) {
	user := models.User{Nickname: "Admin"}
	assert.Equal(t, "Admin", authorName(&user, ""))
	assert.Equal(t, "mimi", authorName(nil, "mimi"))
}

func TestAllocateGuestAuthor(t *testing.T) {
	a := newGuestTestApp(t)

	// 密码为空直接拒绝
	_, _, err, statusCode := a.allocateGuestAuthor(context.Background(), "", "", nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusCode)

	// 正常分配：昵称可用，密码哈希可验证
	nick, hash, err, statusCode := a.allocateGuestAuthor(context.Background(), "mimi", "hunter2",
		func(string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, statusCode)
	assert.Equal(t, "mimi", nick)

	match, err := guestpass.Verify("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, match)
}
