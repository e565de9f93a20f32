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

func replyAuthorOf(reply *models.Reply) types.Author {
	return resourceAuthor(reply.UserID, reply.User, reply.GuestNickname, reply.GuestPassword)
}

func replyInfoOf(reply *models.Reply) *ReplyInfo {
	return &ReplyInfo{
		Id:            reply.ID,
		Content:       reply.Content,
		AuthorName:    authorName(reply.User, reply.GuestNickname),
		IsGuestAuthor: reply.UserID == nil,
		CreatedAt:     reply.CreatedAt,
	}
}

// 访客昵称的占用检查范围：同一评论下的全部回复作者
func (a *App) replyGuestNicknameExists(ctx context.Context, commentID uint) func(string) (bool, error) {
	return func(candidate string) (bool, error) {
		var count int64
		if err := a.db.WithContext(ctx).
			Model(&models.Reply{}).
			Where("comment_id = ? AND guest_nickname = ?", commentID, candidate).
			Count(&count).Error; err != nil {
			return false, fmt.Errorf("failed to count reply guest nickname: %w", err)
		}
		return count > 0, nil
	}
}

func (a *App) ReplyCreate(c echo.Context) error {
	commentID, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得所属评论
	var comment models.Comment
	if err := a.db.WithContext(rctx).Preload("User").First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get comment", zap.Uint("id", commentID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 绑定请求体
	var req ReplyCreateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Content == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 鉴权：回复视为对所属评论的 Create 操作
	requester, err, statusCode := a.authorizeResource(c, kindComment, comment.ID, commentAuthorOf(&comment), access.OperationCreate)
	if err != nil {
		return a.er(c, statusCode)
	}

	reply := models.Reply{
		CommentID: comment.ID,
		Content:   req.Content,
	}

	var guestPlainPassword string
	if requester != nil {
		reply.UserID = &requester.ID
	} else {
		// 访客回复：自己的昵称和密码，与评论的凭据互相独立
		var preferred string
		if req.GuestNickname != nil {
			preferred = *req.GuestNickname
		}
		if req.GuestPassword != nil {
			guestPlainPassword = *req.GuestPassword
		}

		allocated, hash, err, statusCode := a.allocateGuestAuthor(rctx, preferred, guestPlainPassword, a.replyGuestNicknameExists(rctx, comment.ID))
		if err != nil {
			a.l.Error("failed to prepare guest author", zap.Error(err))
			return a.er(c, statusCode)
		}

		reply.GuestNickname = allocated
		reply.GuestPassword = hash
	}

	if err := a.db.WithContext(rctx).Create(&reply).Error; err != nil {
		a.l.Error("failed to create reply", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	if requester == nil {
		if err := a.setGuestCookie(c, kindReply, reply.ID, guestPlainPassword); err != nil {
			a.l.Error("failed to set guest cookie", zap.Uint("id", reply.ID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	} else {
		// 补上作者信息用于响应
		var author models.User
		if err := a.db.WithContext(rctx).First(&author, "id = ?", requester.ID).Error; err != nil {
			a.l.Error("failed to get reply author", zap.Uint("id", requester.ID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
		reply.User = &author
	}

	return c.JSON(http.StatusCreated, replyInfoOf(&reply))
}

func (a *App) ReplyUpdate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var reply models.Reply
	if err := a.db.WithContext(rctx).Preload("User").First(&reply, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get reply", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 鉴权必须在任何写入之前完成
	if _, err, statusCode := a.authorizeResource(c, kindReply, reply.ID, replyAuthorOf(&reply), access.OperationUpdate); err != nil {
		return a.er(c, statusCode)
	}

	// 绑定请求体
	var req ReplyUpdateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Content == nil || *req.Content == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 更新
	if err := a.db.WithContext(rctx).Model(&reply).Update("content", *req.Content).Error; err != nil {
		a.l.Error("failed to update reply", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, replyInfoOf(&reply))
}

func (a *App) ReplyDelete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var reply models.Reply
	if err := a.db.WithContext(rctx).First(&reply, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get reply", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 鉴权必须在任何删除之前完成
	if _, err, statusCode := a.authorizeResource(c, kindReply, reply.ID, replyAuthorOf(&reply), access.OperationDelete); err != nil {
		return a.er(c, statusCode)
	}

	// 删除
	if err := a.db.WithContext(rctx).Delete(&models.Reply{}, id).Error; err != nil {
		a.l.Error("failed to delete reply", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) ReplyGuestVerify(c echo.Context) error {
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
	var reply models.Reply
	if err := a.db.WithContext(rctx).First(&reply, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get reply", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 只有访客作者的资源才有密码可验
	if reply.UserID != nil || reply.GuestPassword == "" {
		return a.er(c, http.StatusBadRequest)
	}

	if match, err := guestpass.Verify(req.Password, reply.GuestPassword); err != nil {
		a.l.Error("failed to verify guest password", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	} else if !match {
		a.logDeny(nil, replyAuthorOf(&reply), access.OperationUpdate, access.ErrAuthentication)
		return a.er(c, http.StatusUnauthorized)
	}

	if err := a.setGuestCookie(c, kindReply, reply.ID, req.Password); err != nil {
		a.l.Error("failed to set guest cookie", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}
