package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/moonsunghun/blog-back-sub000/app/server/constants"
	"github.com/moonsunghun/blog-back-sub000/app/server/models"
)

func (a *App) portfolioMapFields(req *PortfolioUpdateRequest, portfolio *models.Portfolio) {
	if req.Title != nil {
		portfolio.Title = *req.Title
	}
	if req.Description != nil {
		portfolio.Description = *req.Description
	}
	if req.Link != nil {
		portfolio.Link = *req.Link
	}
	if req.Tags != nil {
		portfolio.Tags = *req.Tags
	}
}

// 显式列的更新值，保证清空描述或链接之类的零值写入不被跳过
func portfolioUpdateValues(req *PortfolioUpdateRequest) map[string]any {
	values := map[string]any{}
	if req.Title != nil {
		values["title"] = *req.Title
	}
	if req.Description != nil {
		values["description"] = *req.Description
	}
	if req.Link != nil {
		values["link"] = *req.Link
	}
	if req.Tags != nil {
		values["tags"] = pq.StringArray(*req.Tags)
	}
	return values
}

func portfolioInfoOf(portfolio *models.Portfolio) *PortfolioInfo {
	return &PortfolioInfo{
		Id:          portfolio.ID,
		Title:       portfolio.Title,
		Description: portfolio.Description,
		Link:        portfolio.Link,
		Tags:        portfolio.Tags,
		CreatedAt:   portfolio.CreatedAt,
	}
}

func (a *App) PortfolioCreate(c echo.Context) error {
	// 抓取 member 信息（认证）：作品集只有管理员能维护
	_, err, statusCode := a.requireMember(c, true)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req PortfolioCreateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Title == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 创建
	portfolio := models.Portfolio{
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		Tags:        req.Tags,
	}

	if err := a.db.WithContext(rctx).Create(&portfolio).Error; err != nil {
		a.l.Error("failed to create portfolio", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 列表缓存作废
	a.rdb.Del(rctx, constants.CacheKeyPortfolioList)

	return c.JSON(http.StatusCreated, portfolioInfoOf(&portfolio))
}

func (a *App) PortfolioList(c echo.Context) error {
	rctx := c.Request().Context()

	// 查询缓存（作品集不分页，全量缓存）
	if cacheBytes, err := a.rdb.Get(rctx, constants.CacheKeyPortfolioList).Bytes(); err != nil {
		if !errors.Is(err, redis.Nil) {
			a.l.Error("failed to query portfolio cache", zap.Error(err))
		}
	} else {
		var cached []PortfolioInfo
		if err = json.Unmarshal(cacheBytes, &cached); err != nil {
			a.l.Error("failed to unmarshal portfolio cache", zap.Error(err))
			// 可能是无效的缓存，清理掉
			a.rdb.Del(rctx, constants.CacheKeyPortfolioList)
		} else {
			return c.JSON(http.StatusOK, cached)
		}
	}

	// 查询数据库
	var portfolios []models.Portfolio
	if err := a.db.WithContext(rctx).Order("id DESC").Find(&portfolios).Error; err != nil {
		a.l.Error("failed to get portfolio list", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resPortfolios := []PortfolioInfo{}
	for i := range portfolios {
		resPortfolios = append(resPortfolios, *portfolioInfoOf(&portfolios[i]))
	}

	// 加入缓存，方便下一次查询
	if cacheBytes, err := json.Marshal(resPortfolios); err != nil {
		a.l.Error("failed to marshal portfolio cache", zap.Error(err))
	} else {
		a.rdb.Set(rctx, constants.CacheKeyPortfolioList, cacheBytes, constants.CacheExpirePortfolioList)
	}

	return c.JSON(http.StatusOK, resPortfolios)
}

func (a *App) PortfolioGet(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var portfolio models.Portfolio
	if err := a.db.WithContext(rctx).First(&portfolio, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get portfolio", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	return c.JSON(http.StatusOK, portfolioInfoOf(&portfolio))
}

func (a *App) PortfolioUpdate(c echo.Context) error {
	// 抓取 member 信息（认证）
	_, err, statusCode := a.requireMember(c, true)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req PortfolioUpdateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	// 从数据库中获得
	var portfolio models.Portfolio
	if err := a.db.WithContext(rctx).First(&portfolio, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get portfolio", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	a.portfolioMapFields(&req, &portfolio)

	// 更新（显式列，零值照样落库）
	if values := portfolioUpdateValues(&req); len(values) > 0 {
		if err := a.db.WithContext(rctx).Model(&portfolio).Updates(values).Error; err != nil {
			a.l.Error("failed to update portfolio", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	a.rdb.Del(rctx, constants.CacheKeyPortfolioList)

	return c.JSON(http.StatusOK, portfolioInfoOf(&portfolio))
}

func (a *App) PortfolioDelete(c echo.Context) error {
	// 抓取 member 信息（认证）
	_, err, statusCode := a.requireMember(c, true)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 删除
	if err := a.db.WithContext(rctx).Delete(&models.Portfolio{}, id).Error; err != nil {
		a.l.Error("failed to delete portfolio", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	a.rdb.Del(rctx, constants.CacheKeyPortfolioList)

	return c.NoContent(http.StatusOK)
}
