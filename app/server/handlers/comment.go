package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/moonsunghun/blog-back-sub000/app/server/access"
	"github.com/moonsunghun/blog-back-sub000/app/server/guestpass"
	"github.com/moonsunghun/blog-back-sub000/app/server/models"
	"github.com/moonsunghun/blog-back-sub000/app/server/types"
)

func commentAuthorOf(comment *models.Comment) types.Author {
	return resourceAuthor(comment.UserID, comment.User, comment.GuestNickname, comment.GuestPassword)
}

func commentInfoOf(comment *models.Comment) *CommentInfo {
	resReplies := []ReplyInfo{}
	for i := range comment.Replies {
		resReplies = append(resReplies, *replyInfoOf(&comment.Replies[i]))
	}

	return &CommentInfo{
		Id:            comment.ID,
		Content:       comment.Content,
		AuthorName:    authorName(comment.User, comment.GuestNickname),
		IsGuestAuthor: comment.UserID == nil,
		CreatedAt:     comment.CreatedAt,
		Replies:       resReplies,
	}
}

// 访客昵称的占用检查范围：同一父资源（询问或文章）下的全部评论作者
func (a *App) commentGuestNicknameExists(ctx context.Context, inquiryID *uint, postID *uint) func(string) (bool, error) {
	return func(candidate string) (bool, error) {
		queryBase := a.db.WithContext(ctx).Model(&models.Comment{}).Where("guest_nickname = ?", candidate)
		if inquiryID != nil {
			queryBase = queryBase.Where("inquiry_id = ?", *inquiryID)
		} else {
			queryBase = queryBase.Where("post_id = ?", *postID)
		}

		var count int64
		if err := queryBase.Count(&count).Error; err != nil {
			return false, fmt.Errorf("failed to count comment guest nickname: %w", err)
		}
		return count > 0, nil
	}
}

// 在父资源（询问或文章）下创建评论。
// 创建评论视为对父资源的 Create 操作，先过父资源的鉴权，
// 再落自己的作者身份（会员引用，或带昵称与密码哈希的访客）
func (a *App) commentCreate(c echo.Context, inquiryID *uint, postID *uint, parentKind resourceKind, parentID uint, parentAuthor types.Author) error {
	rctx := c.Request().Context()

	// 绑定请求体
	var req CommentCreateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Content == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 鉴权：对父资源的 Create
	requester, err, statusCode := a.authorizeResource(c, parentKind, parentID, parentAuthor, access.OperationCreate)
	if err != nil {
		return a.er(c, statusCode)
	}

	comment := models.Comment{
		InquiryID: inquiryID,
		PostID:    postID,
		Content:   req.Content,
	}

	var guestPlainPassword string
	if requester != nil {
		comment.UserID = &requester.ID
	} else {
		// 访客评论：自己的昵称和密码，与父资源的凭据互相独立
		var preferred string
		if req.GuestNickname != nil {
			preferred = *req.GuestNickname
		}
		if req.GuestPassword != nil {
			guestPlainPassword = *req.GuestPassword
		}

		allocated, hash, err, statusCode := a.allocateGuestAuthor(rctx, preferred, guestPlainPassword, a.commentGuestNicknameExists(rctx, inquiryID, postID))
		if err != nil {
			a.l.Error("failed to prepare guest author", zap.Error(err))
			return a.er(c, statusCode)
		}

		comment.GuestNickname = allocated
		comment.GuestPassword = hash
	}

	if err := a.db.WithContext(rctx).Create(&comment).Error; err != nil {
		a.l.Error("failed to create comment", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	if requester == nil {
		if err := a.setGuestCookie(c, kindComment, comment.ID, guestPlainPassword); err != nil {
			a.l.Error("failed to set guest cookie", zap.Uint("id", comment.ID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	} else {
		// 补上作者信息用于响应
		var author models.User
		if err := a.db.WithContext(rctx).First(&author, "id = ?", requester.ID).Error; err != nil {
			a.l.Error("failed to get comment author", zap.Uint("id", requester.ID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
		comment.User = &author
	}

	return c.JSON(http.StatusCreated, commentInfoOf(&comment))
}

func (a *App) InquiryCommentCreate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	var inquiry models.Inquiry
	if err := a.db.WithContext(rctx).Preload("User").First(&inquiry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get inquiry", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	return a.commentCreate(c, &inquiry.ID, nil, kindInquiry, inquiry.ID, inquiryAuthorOf(&inquiry))
}

func (a *App) PostCommentCreate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	var post models.Post
	if err := a.db.WithContext(rctx).Preload("User").First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get post", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	return a.commentCreate(c, nil, &post.ID, kindPost, post.ID, resourceAuthor(&post.UserID, &post.User, "", ""))
}

func (a *App) commentList(c echo.Context, inquiryID *uint, postID *uint) error {
	rctx := c.Request().Context()

	queryBase := a.db.WithContext(rctx).Model(&models.Comment{}).
		Preload("User").
		Preload("Replies").
		Preload("Replies.User").
		Order("id ASC")
	if inquiryID != nil {
		queryBase = queryBase.Where("inquiry_id = ?", *inquiryID)
	} else {
		queryBase = queryBase.Where("post_id = ?", *postID)
	}

	var comments []models.Comment
	if err := queryBase.Find(&comments).Error; err != nil {
		a.l.Error("failed to get comment list", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resComments := []CommentInfo{}
	for i := range comments {
		resComments = append(resComments, *commentInfoOf(&comments[i]))
	}

	return c.JSON(http.StatusOK, resComments)
}

func (a *App) InquiryCommentList(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	var inquiry models.Inquiry
	if err := a.db.WithContext(rctx).Preload("User").First(&inquiry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get inquiry", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 私密询问的评论跟随询问本身的读取规则
	if inquiry.IsSecret {
		if _, err, statusCode := a.authorizeResource(c, kindInquiry, inquiry.ID, inquiryAuthorOf(&inquiry), access.OperationRead); err != nil {
			return a.er(c, statusCode)
		}
	}

	return a.commentList(c, &inquiry.ID, nil)
}

func (a *App) PostCommentList(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	var post models.Post
	if err := a.db.WithContext(rctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get post", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	return a.commentList(c, nil, &post.ID)
}

func (a *App) CommentUpdate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var comment models.Comment
	if err := a.db.WithContext(rctx).Preload("User").First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get comment", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 鉴权必须在任何写入之前完成
	if _, err, statusCode := a.authorizeResource(c, kindComment, comment.ID, commentAuthorOf(&comment), access.OperationUpdate); err != nil {
		return a.er(c, statusCode)
	}

	// 绑定请求体
	var req CommentUpdateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Content == nil || *req.Content == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 更新
	if err := a.db.WithContext(rctx).Model(&comment).Update("content", *req.Content).Error; err != nil {
		a.l.Error("failed to update comment", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, commentInfoOf(&comment))
}

func (a *App) CommentDelete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var comment models.Comment
	if err := a.db.WithContext(rctx).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get comment", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 鉴权必须在任何删除之前完成
	if _, err, statusCode := a.authorizeResource(c, kindComment, comment.ID, commentAuthorOf(&comment), access.OperationDelete); err != nil {
		return a.er(c, statusCode)
	}

	// 删除，回复交给数据库的级联约束
	if err := a.db.WithContext(rctx).Delete(&models.Comment{}, id).Error; err != nil {
		a.l.Error("failed to delete comment", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) CommentGuestVerify(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req GuestVerifyRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	// 从数据库中获得
	var comment models.Comment
	if err := a.db.WithContext(rctx).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get comment", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 只有访客作者的资源才有密码可验
	if comment.UserID != nil || comment.GuestPassword == "" {
		return a.er(c, http.StatusBadRequest)
	}

	if match, err := guestpass.Verify(req.Password, comment.GuestPassword); err != nil {
		a.l.Error("failed to verify guest password", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	} else if !match {
		a.logDeny(nil, commentAuthorOf(&comment), access.OperationUpdate, access.ErrAuthentication)
		return a.er(c, http.StatusUnauthorized)
	}

	if err := a.setGuestCookie(c, kindComment, comment.ID, req.Password); err != nil {
		a.l.Error("failed to set guest cookie", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}
