package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/moonsunghun/blog-back-sub000/app/server/constants"
	"github.com/moonsunghun/blog-back-sub000/app/server/models"
	"github.com/moonsunghun/blog-back-sub000/app/server/session"
	"github.com/moonsunghun/blog-back-sub000/app/server/types"
)

// 提取 bearer token ；没有或者格式不对时返回空串，按访客处理
func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	splits := strings.Split(authHeader, " ")
	if len(splits) != 2 {
		return ""
	}

	if strings.ToLower(splits[0]) != "bearer" {
		return ""
	}

	return splits[1]
}

func memberOf(user *models.User) types.Member {
	role := types.RoleUser
	if user.IsAdmin {
		role = types.RoleAdmin
	}
	return types.Member{ID: user.ID, Role: role}
}

// 会员最小投影（ id + 角色），供逐个试解密使用。
// 优先走 Redis 缓存，用户表有变动时由 invalidateMemberCache 清掉。
func (a *App) minimalMembers(ctx context.Context) ([]types.Member, error) {
	// 查询缓存
	if cacheBytes, err := a.rdb.Get(ctx, constants.CacheKeyMembersMinimal).Bytes(); err != nil {
		if !errors.Is(err, redis.Nil) {
			a.l.Error("failed to query member cache", zap.Error(err))
		}
	} else {
		var members []types.Member
		if err = json.Unmarshal(cacheBytes, &members); err != nil {
			a.l.Error("failed to unmarshal member cache", zap.ByteString("cacheBytes", cacheBytes), zap.Error(err))
			// 可能是无效的缓存，清理掉
			a.rdb.Del(ctx, constants.CacheKeyMembersMinimal)
		} else {
			return members, nil
		}
	}

	// 查询数据库
	var users []models.User
	if err := a.db.WithContext(ctx).Model(&models.User{}).Select("id", "is_admin").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}

	members := make([]types.Member, 0, len(users))
	for i := range users {
		members = append(members, memberOf(&users[i]))
	}

	// 加入缓存，方便下一次查询
	if cacheBytes, err := json.Marshal(members); err != nil {
		a.l.Error("failed to marshal member cache", zap.Error(err))
	} else {
		a.rdb.Set(ctx, constants.CacheKeyMembersMinimal, cacheBytes, constants.CacheExpireMembersMinimal)
	}

	return members, nil
}

func (a *App) invalidateMemberCache(ctx context.Context) {
	a.rdb.Del(ctx, constants.CacheKeyMembersMinimal)
}

// 把请求解析成会员或者访客（ nil ）。
// 每个会员的令牌都用独立密钥，只能逐个候选试解密；
// 解不开的令牌不报错，降级为访客。
func (a *App) resolveRequester(c echo.Context) (*types.Member, error) {
	token := bearerToken(c)
	if token == "" {
		return nil, nil
	}

	members, err := a.minimalMembers(c.Request().Context())
	if err != nil {
		return nil, err
	}

	return session.Resolve(token, members), nil
}

// 需要会员身份的接口用这个；返回值依次是会员、错误、 HTTP 状态码
func (a *App) requireMember(c echo.Context, requireAdminRole bool) (*types.Member, error, int) {
	requester, err := a.resolveRequester(c)
	if err != nil {
		return nil, err, http.StatusInternalServerError
	}
	if requester == nil {
		return nil, fmt.Errorf("missing or unresolvable auth token"), http.StatusUnauthorized
	}

	// 验证权限
	if requireAdminRole && requester.Role != types.RoleAdmin {
		return nil, fmt.Errorf("requires admin role"), http.StatusForbidden
	}

	return requester, nil, http.StatusOK
}
