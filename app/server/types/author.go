package types

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Member 是已注册用户的最小投影（会话解析与鉴权只需要这两个字段）
type Member struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

// Guest 是匿名作者：只有生成的昵称和一个单向哈希过的密码
type Guest struct {
	Nickname     string
	PasswordHash string
}

// Author 是资源作者的和类型：Member 与 Guest 恰好只有一个非空，
// 在资源创建时确定，之后不再变化
type Author struct {
	Member *Member
	Guest  *Guest
}
