package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// 解析路径里的数字 id
func pathID(c echo.Context, name string) (uint, bool) {
	idUint64, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(idUint64), true
}

// 解析分页之类的可选数字查询参数，缺失或无效时返回 nil
func queryUint(c echo.Context, name string) *uint {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}
