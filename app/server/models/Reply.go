package models

import "gorm.io/gorm"

type Reply struct {
	gorm.Model

	CommentID uint `gorm:"column:comment_id;index"` // 所属评论

	// 作者二选一（与 Comment 相同的结构）
	UserID        *uint  `gorm:"column:user_id;index"`
	GuestNickname string `gorm:"column:guest_nickname"` // 访客昵称，同一评论下不重复
	GuestPassword string `gorm:"column:guest_password"` // 访客密码哈希

	Content string `gorm:"column:content"` // 内容

	// 连接模型时使用
	User *User `gorm:"foreignKey:UserID"`
}
