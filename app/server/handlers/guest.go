package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/moonsunghun/blog-back-sub000/app/server/access"
	"github.com/moonsunghun/blog-back-sub000/app/server/constants"
	"github.com/moonsunghun/blog-back-sub000/app/server/guestpass"
	"github.com/moonsunghun/blog-back-sub000/app/server/models"
	"github.com/moonsunghun/blog-back-sub000/app/server/nickname"
	"github.com/moonsunghun/blog-back-sub000/app/server/types"
)

// 资源类型，隔离访客密码 cookie 的命名空间
type resourceKind string

const (
	kindPost    resourceKind = "post"
	kindInquiry resourceKind = "inquiry"
	kindComment resourceKind = "comment"
	kindReply   resourceKind = "reply"
)

func guestCookieName(kind resourceKind, resourceID uint) string {
	return fmt.Sprintf(constants.GuestPasswordCookieNameFormat, kind, resourceID)
}

// 校验资源对应的访客密码 cookie ：解密出明文密码，再与记录上的哈希比对。
// 任何一步失败都是认证失败，不区分原因
func (a *App) verifyGuestCookie(c echo.Context, kind resourceKind, resourceID uint, passwordHash string) error {
	cookie, err := c.Cookie(guestCookieName(kind, resourceID))
	if err != nil || cookie.Value == "" {
		return access.ErrAuthentication
	}

	plain, err := a.gp.DecryptPassword(cookie.Value)
	if err != nil {
		return access.ErrAuthentication
	}

	match, err := guestpass.Verify(plain, passwordHash)
	if err != nil || !match {
		return access.ErrAuthentication
	}

	return nil
}

// 签发（或续期）访客密码 cookie ，里面是共享 KeyMaterial 加密后的明文密码
func (a *App) setGuestCookie(c echo.Context, kind resourceKind, resourceID uint, plainPassword string) error {
	encrypted, err := a.gp.EncryptPassword(plainPassword)
	if err != nil {
		return fmt.Errorf("failed to encrypt guest password: %w", err)
	}

	cookie := &http.Cookie{
		Name:     guestCookieName(kind, resourceID),
		Value:    encrypted,
		Path:     "/",
		MaxAge:   constants.GuestPasswordCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if a.isProd {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}

	c.SetCookie(cookie)
	return nil
}

func authorKind(author types.Author) string {
	switch {
	case author.Member != nil:
		return "member"
	case author.Guest != nil:
		return "guest"
	default:
		return "unknown"
	}
}

// 每一条拒绝路径都先留下判定依据（请求方身份、作者类型、操作），再返回 HTTP 错误
func (a *App) logDeny(requester *types.Member, author types.Author, op access.Operation, err error) {
	requesterDesc := "guest"
	if requester != nil {
		requesterDesc = fmt.Sprintf("%s#%d", requester.Role, requester.ID)
	}

	a.l.Warn("access denied",
		zap.String("requester", requesterDesc),
		zap.String("authorKind", authorKind(author)),
		zap.String("operation", op.String()),
		zap.Error(err),
	)
}

// 完整的鉴权判定：解析请求方，访客走 cookie 校验，会员走判定矩阵。
// 返回解析出的会员（访客为 nil ）、错误、 HTTP 状态码
func (a *App) authorizeResource(c echo.Context, kind resourceKind, resourceID uint, author types.Author, op access.Operation) (*types.Member, error, int) {
	requester, err := a.resolveRequester(c)
	if err != nil {
		return nil, err, http.StatusInternalServerError
	}

	if requester == nil {
		// 没有可解析的会员身份：只能以验证过的访客作者身份操作
		if author.Guest == nil {
			a.logDeny(nil, author, op, access.ErrAuthentication)
			return nil, access.ErrAuthentication, http.StatusUnauthorized
		}
		if err := a.verifyGuestCookie(c, kind, resourceID, author.Guest.PasswordHash); err != nil {
			a.logDeny(nil, author, op, err)
			return nil, err, http.StatusUnauthorized
		}
		// 访客作者验证通过
		return nil, nil, http.StatusOK
	}

	if err := access.Decide(requester, author, op); err != nil {
		a.logDeny(requester, author, op, err)
		return requester, err, access.StatusCode(err)
	}

	return requester, nil, http.StatusOK
}

// 从记录字段恢复作者和类型（两个变体恰好一个非空）
func resourceAuthor(userID *uint, user *models.User, guestNickname string, guestPassword string) types.Author {
	if userID != nil {
		member := types.Member{ID: *userID, Role: types.RoleUser}
		if user != nil {
			member = memberOf(user)
		}
		return types.Author{Member: &member}
	}
	if guestNickname != "" {
		return types.Author{Guest: &types.Guest{Nickname: guestNickname, PasswordHash: guestPassword}}
	}
	return types.Author{}
}

func authorName(user *models.User, guestNickname string) string {
	if user != nil {
		return user.Nickname
	}
	return guestNickname
}

// 访客发帖的公共流程：分配不冲突的昵称并把密码哈希化。
// 返回昵称、哈希、错误、 HTTP 状态码
func (a *App) allocateGuestAuthor(_ context.Context, preferred string, plainPassword string, exists func(string) (bool, error)) (string, string, error, int) {
	if plainPassword == "" {
		return "", "", fmt.Errorf("guest password is required"), http.StatusBadRequest
	}

	allocated, err := nickname.Allocate(preferred, exists)
	if err != nil {
		// 重试用尽或者存储失败都中止本次发帖，不产生部分写入
		return "", "", fmt.Errorf("failed to allocate guest nickname: %w", err), http.StatusInternalServerError
	}

	hash, err := guestpass.Hash(plainPassword)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash guest password: %w", err), http.StatusInternalServerError
	}

	return allocated, hash, nil, http.StatusOK
}
