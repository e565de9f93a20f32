package models

import "gorm.io/gorm"

type Inquiry struct {
	gorm.Model

	// 作者二选一：会员引用，或者访客昵称 + 密码哈希（创建后不再变化）
	UserID            *uint  `gorm:"column:user_id;index"`
	GuestNickname     string `gorm:"column:guest_nickname;uniqueIndex:idx_inquiry_guest_nickname,where:guest_nickname <> ''"` // 访客昵称，唯一约束才是真正的防碰撞保证
	GuestPassword     string `gorm:"column:guest_password"`                                                                   // 访客密码，使用 argon2id 储存，永不可解密

	Title    string `gorm:"column:title"`     // 标题
	Content  string `gorm:"column:content"`   // 正文
	IsSecret bool   `gorm:"column:is_secret"` // 是否为私密询问：只有作者与管理员可读

	// 连接模型时使用
	User        *User        `gorm:"foreignKey:UserID"`
	Comments    []Comment    `gorm:"foreignKey:InquiryID;constraint:OnDelete:CASCADE"` // 评论随询问级联删除
	Attachments []Attachment `gorm:"foreignKey:InquiryID;constraint:OnDelete:CASCADE"` // 附件元数据级联，文件本体由级联删除逻辑先行清理
}
