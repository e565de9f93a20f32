package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func uintPtr(v uint) *uint {
	return &v
}

func TestParsePagination(t *testing.T) {
	a := &App{}

	// 特殊参数：展示全部
	showAll, page, limit := a.parsePagination(uintPtr(0), uintPtr(0))
	assert.True(t, showAll)
	assert.Equal(t, -1, page)
	assert.Equal(t, -1, limit)

	// 默认值
	showAll, page, limit = a.parsePagination(nil, nil)
	assert.False(t, showAll)
	assert.Equal(t, 0, page)
	assert.Equal(t, 100, limit)

	// 页码从 1 起，映射到从 0 起的偏移
	showAll, page, limit = a.parsePagination(uintPtr(3), uintPtr(20))
	assert.False(t, showAll)
	assert.Equal(t, 2, page)
	assert.Equal(t, 20, limit)

	// 只给页码
	showAll, page, limit = a.parsePagination(uintPtr(1), nil)
	assert.False(t, showAll)
	assert.Equal(t, 0, page)
	assert.Equal(t, 100, limit)
}

func TestCalcMaxPage(t *testing.T) {
	a := &App{}

	assert.Equal(t, int64(1), a.calcMaxPage(12345, true, -1))
	assert.Equal(t, int64(0), a.calcMaxPage(0, false, 10))
	assert.Equal(t, int64(1), a.calcMaxPage(10, false, 10))
	assert.Equal(t, int64(2), a.calcMaxPage(11, false, 10))
	assert.Equal(t, int64(2), a.calcMaxPage(20, false, 10))
}
