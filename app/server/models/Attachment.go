package models

import "gorm.io/gorm"

type Attachment struct {
	gorm.Model

	InquiryID uint `gorm:"column:inquiry_id;index"` // 所属询问

	Name       string `gorm:"column:name"`        // 原始文件名
	StoredName string `gorm:"column:stored_name"` // 磁盘上的存储名（随机 UUID ，避免路径冲突）
	Size       int64  `gorm:"column:size"`        // 文件大小（字节）
}
