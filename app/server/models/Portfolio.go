package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Portfolio struct {
	gorm.Model

	Title       string         `gorm:"column:title"`            // 作品名称
	Description string         `gorm:"column:description"`      // 作品介绍
	Link        string         `gorm:"column:link"`             // 外部链接
	Tags        pq.StringArray `gorm:"column:tags;type:text[]"` // 技术标签
}
