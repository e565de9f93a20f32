package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/moonsunghun/blog-back-sub000/app/server/models"
)

func strPtr(v string) *string {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

func TestInquiryUpdateValues(t *testing.T) {
	// 没给的字段不碰
	assert.Empty(t, inquiryUpdateValues(&InquiryUpdateRequest{}))

	// 给了的字段都要出现在更新列里，零值（ false 、空串）也不例外
	values := inquiryUpdateValues(&InquiryUpdateRequest{
		Title:    strPtr(""),
		IsSecret: boolPtr(false),
	})
	assert.Equal(t, map[string]any{
		"title":     "",
		"is_secret": false,
	}, values)

	values = inquiryUpdateValues(&InquiryUpdateRequest{
		Content:  strPtr("updated"),
		IsSecret: boolPtr(true),
	})
	assert.Equal(t, map[string]any{
		"content":   "updated",
		"is_secret": true,
	}, values)
}

func TestPostUpdateValues(t *testing.T) {
	assert.Empty(t, postUpdateValues(&PostUpdateRequest{}))

	// 清空标签也要真的写进数据库
	emptyTags := []string{}
	values := postUpdateValues(&PostUpdateRequest{Tags: &emptyTags})
	require.Contains(t, values, "tags")
	assert.Len(t, values, 1)
}

func TestPortfolioUpdateValues(t *testing.T) {
	assert.Empty(t, portfolioUpdateValues(&PortfolioUpdateRequest{}))

	values := portfolioUpdateValues(&PortfolioUpdateRequest{
		Description: strPtr(""),
		Link:        strPtr(""),
	})
	assert.Equal(t, map[string]any{
		"description": "",
		"link":        "",
	}, values)
}

func TestInquiryUpdateWritesSecretFlagOff(t *testing.T) {
	// 只构建 SQL ，不连接数据库
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost"}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	// 把私密询问改回公开：生成的 UPDATE 必须包含 is_secret 列
	values := inquiryUpdateValues(&InquiryUpdateRequest{IsSecret: boolPtr(false)})
	inquiry := models.Inquiry{Model: gorm.Model{ID: 1}}
	stmt := db.Model(&inquiry).Updates(values).Statement

	assert.Contains(t, stmt.SQL.String(), "is_secret")
}
