package models

import "gorm.io/gorm"

type Comment struct {
	gorm.Model

	// 父资源二选一：询问或者博客文章
	InquiryID *uint `gorm:"column:inquiry_id;index"`
	PostID    *uint `gorm:"column:post_id;index"`

	// 作者二选一（与 Inquiry 相同的结构）
	UserID        *uint  `gorm:"column:user_id;index"`
	GuestNickname string `gorm:"column:guest_nickname"` // 访客昵称，同一父资源下不重复
	GuestPassword string `gorm:"column:guest_password"` // 访客密码哈希

	Content string `gorm:"column:content"` // 内容

	// 连接模型时使用
	User    *User   `gorm:"foreignKey:UserID"`
	Replies []Reply `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"` // 回复随评论级联删除
}
