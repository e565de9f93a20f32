package access

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moonsunghun/blog-back-sub000/app/server/types"
)

var allOperations = []Operation{OperationCreate, OperationRead, OperationUpdate, OperationDelete}

func TestDecideMemberResource(t *testing.T) {
	owner := &types.Member{ID: 1, Role: types.RoleUser}
	admin := &types.Member{ID: 2, Role: types.RoleAdmin}
	other := &types.Member{ID: 3, Role: types.RoleUser}
	author := types.Author{Member: &types.Member{ID: 1, Role: types.RoleUser}}

	for _, op := range allOperations {
		// 本人全部允许
		assert.NoError(t, Decide(owner, author, op), "owner %s", op)

		// 其他普通会员全部拒绝
		assert.ErrorIs(t, Decide(other, author, op), ErrAuthorization, "other %s", op)

		// 无身份请求不走这条路径
		assert.ErrorIs(t, Decide(nil, author, op), ErrAuthentication, "anonymous %s", op)
	}

	// 管理员对别人的会员资源：只许创建和读取
	assert.NoError(t, Decide(admin, author, OperationCreate))
	assert.NoError(t, Decide(admin, author, OperationRead))
	assert.ErrorIs(t, Decide(admin, author, OperationUpdate), ErrAuthorization)
	assert.ErrorIs(t, Decide(admin, author, OperationDelete), ErrAuthorization)
}

func TestDecideAdminOwnResource(t *testing.T) {
	admin := &types.Member{ID: 2, Role: types.RoleAdmin}
	author := types.Author{Member: &types.Member{ID: 2, Role: types.RoleAdmin}}

	// 管理员对自己的资源走本人分支
	for _, op := range allOperations {
		assert.NoError(t, Decide(admin, author, op), "%s", op)
	}
}

func TestDecideGuestResource(t *testing.T) {
	admin := &types.Member{ID: 2, Role: types.RoleAdmin}
	member := &types.Member{ID: 3, Role: types.RoleUser}
	author := types.Author{Guest: &types.Guest{Nickname: "mimi", PasswordHash: "x"}}

	// 访客资源对会员几乎全关，唯一例外是管理员读取
	assert.NoError(t, Decide(admin, author, OperationRead))
	assert.ErrorIs(t, Decide(admin, author, OperationCreate), ErrAuthorization)
	assert.ErrorIs(t, Decide(admin, author, OperationUpdate), ErrAuthorization)
	assert.ErrorIs(t, Decide(admin, author, OperationDelete), ErrAuthorization)

	for _, op := range allOperations {
		assert.ErrorIs(t, Decide(member, author, op), ErrAuthorization, "member %s", op)
		assert.ErrorIs(t, Decide(nil, author, op), ErrAuthentication, "anonymous %s", op)
	}
}

func TestDecideUnknownAuthorIsHardFailure(t *testing.T) {
	requester := &types.Member{ID: 1, Role: types.RoleAdmin}

	for _, op := range allOperations {
		assert.ErrorIs(t, Decide(requester, types.Author{}, op), ErrAuthorization, "%s", op)
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, StatusCode(ErrAuthentication))
	assert.Equal(t, http.StatusForbidden, StatusCode(ErrAuthorization))
	assert.Equal(t, http.StatusNotFound, StatusCode(ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(ErrStorage))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(assert.AnError))
}

func TestOperationString(t *testing.T) {
	assert.Equal(t, "create", OperationCreate.String())
	assert.Equal(t, "read", OperationRead.String())
	assert.Equal(t, "update", OperationUpdate.String())
	assert.Equal(t, "delete", OperationDelete.String())
	assert.Equal(t, "unknown", Operation(99).String())
}
