package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/moonsunghun/blog-back-sub000/app/server/access"
	"github.com/moonsunghun/blog-back-sub000/app/server/models"
)

func (a *App) postMapFields(req *PostUpdateRequest, post *models.Post) {
	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Tags != nil {
		post.Tags = *req.Tags
	}
}

// 显式列的更新值，保证清空标签之类的零值写入不被跳过
func postUpdateValues(req *PostUpdateRequest) map[string]any {
	values := map[string]any{}
	if req.Title != nil {
		values["title"] = *req.Title
	}
	if req.Content != nil {
		values["content"] = *req.Content
	}
	if req.Tags != nil {
		values["tags"] = pq.StringArray(*req.Tags)
	}
	return values
}

func postInfoOf(post *models.Post) *PostInfo {
	return &PostInfo{
		Id:             post.ID,
		Title:          post.Title,
		Content:        post.Content,
		Tags:           post.Tags,
		AuthorNickname: post.User.Nickname,
		CreatedAt:      post.CreatedAt,
		UpdatedAt:      post.UpdatedAt,
	}
}

func (a *App) PostCreate(c echo.Context) error {
	// 抓取 member 信息（认证）：博客文章只有会员能发
	requester, err, statusCode := a.requireMember(c, false)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req PostCreateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Title == "" || req.Content == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 创建
	post := models.Post{
		UserID:  requester.ID,
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	}

	if err := a.db.WithContext(rctx).Create(&post).Error; err != nil {
		a.l.Error("failed to create post", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 补上作者信息用于响应
	if err := a.db.WithContext(rctx).First(&post.User, "id = ?", post.UserID).Error; err != nil {
		a.l.Error("failed to get post author", zap.Uint("id", post.UserID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, postInfoOf(&post))
}

func (a *App) PostList(c echo.Context) error {
	rctx := c.Request().Context()

	var (
		posts      []models.Post
		postsCount int64
	)

	showAll, page, limit := a.parsePagination(queryUint(c, "page"), queryUint(c, "limit"))
	queryBase := a.db.WithContext(rctx).Model(&models.Post{}).Preload("User").Order("id DESC")
	if !showAll {
		queryBase = queryBase.Limit(limit).Offset(page * limit)
	}

	if err := queryBase.Find(&posts).Error; err != nil {
		a.l.Error("failed to get post list", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if err := a.db.WithContext(rctx).Model(&models.Post{}).Count(&postsCount).Error; err != nil {
		a.l.Error("failed to count post", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resPosts := []PostInfo{}
	for i := range posts {
		resPosts = append(resPosts, *postInfoOf(&posts[i]))
	}

	return c.JSON(http.StatusOK, &ListResponse[PostInfo]{
		Limit:   limit,
		PageMax: a.calcMaxPage(postsCount, showAll, limit),
		List:    resPosts,
	})
}

func (a *App) PostGet(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var post models.Post
	if err := a.db.WithContext(rctx).Preload("User").First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get post", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	return c.JSON(http.StatusOK, postInfoOf(&post))
}

func (a *App) PostUpdate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var post models.Post
	if err := a.db.WithContext(rctx).Preload("User").First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get post", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 鉴权：更新只有作者本人可以（管理员也不行）
	author := resourceAuthor(&post.UserID, &post.User, "", "")
	if _, err, statusCode := a.authorizeResource(c, kindPost, post.ID, author, access.OperationUpdate); err != nil {
		return a.er(c, statusCode)
	}

	// 绑定请求体
	var req PostUpdateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	a.postMapFields(&req, &post)

	// 更新（显式列，零值照样落库）
	if values := postUpdateValues(&req); len(values) > 0 {
		if err := a.db.WithContext(rctx).Model(&post).Updates(values).Error; err != nil {
			a.l.Error("failed to update post", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	return c.JSON(http.StatusOK, postInfoOf(&post))
}

func (a *App) PostDelete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var post models.Post
	if err := a.db.WithContext(rctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get post", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 鉴权：删除只有作者本人可以
	author := resourceAuthor(&post.UserID, nil, "", "")
	if _, err, statusCode := a.authorizeResource(c, kindPost, post.ID, author, access.OperationDelete); err != nil {
		return a.er(c, statusCode)
	}

	// 删除，评论与回复交给数据库的级联约束
	if err := a.db.WithContext(rctx).Delete(&models.Post{}, id).Error; err != nil {
		a.l.Error("failed to delete post", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}
