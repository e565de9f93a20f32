package access

import (
	"errors"
	"net/http"

	"github.com/moonsunghun/blog-back-sub000/app/server/types"
)

type Operation int

const (
	OperationCreate Operation = iota
	OperationRead
	OperationUpdate
	OperationDelete
)

func (op Operation) String() string {
	switch op {
	case OperationCreate:
		return "create"
	case OperationRead:
		return "read"
	case OperationUpdate:
		return "update"
	case OperationDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// 鉴权相关的哨兵错误，调用方用 errors.Is 区分后映射到 HTTP 状态码，
// 不做字符串匹配
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("authorization denied")
	ErrNotFound       = errors.New("resource not found")
	ErrStorage        = errors.New("storage failure")
)

func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Decide 判定会员请求方对资源的操作是否允许。
// 访客（requester == nil ）不在这里放行：没有可解析身份的请求必须先走
// 资源对应的访客密码 cookie 校验，那条路径由 handler 层负责。
//
// 规则刻意不对管理员放宽所有权：
//   - 会员资源：本人全部允许；管理员（非本人）只允许 Create/Read ，
//     不允许改删别人的内容；其他会员全部拒绝
//   - 访客资源：会员一律拒绝，唯一例外是管理员的 Read
//
// 没有命中任何分支（比如作者类型无法判定）是硬失败，不会默默放行。
func Decide(requester *types.Member, author types.Author, op Operation) error {
	switch {
	case author.Member != nil:
		if requester == nil {
			return ErrAuthentication
		}
		if requester.ID == author.Member.ID {
			return nil
		}
		if requester.Role == types.RoleAdmin && (op == OperationCreate || op == OperationRead) {
			return nil
		}
		return ErrAuthorization

	case author.Guest != nil:
		if requester == nil {
			return ErrAuthentication
		}
		if requester.Role == types.RoleAdmin && op == OperationRead {
			return nil
		}
		return ErrAuthorization

	default:
		return ErrAuthorization
	}
}
