package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Post struct {
	gorm.Model

	UserID uint `gorm:"column:user_id;index"` // 作者（博客文章只有会员能发）

	Title   string         `gorm:"column:title"`             // 标题
	Content string         `gorm:"column:content"`           // 正文
	Tags    pq.StringArray `gorm:"column:tags;type:text[]"`  // 标签

	// 连接模型时使用
	User     User      `gorm:"foreignKey:UserID"`
	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"` // 评论随文章级联删除
}
