package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/moonsunghun/blog-back-sub000/app/server/access"
	"github.com/moonsunghun/blog-back-sub000/app/server/models"
)

// 按顺序删除附件的文件本体，第一个失败立即中止，后面的文件不再动。
// 已经不存在的文件按删除成功处理，这样重试删除能走完全程
func removeAttachmentFiles(attachments []models.Attachment, dir string, remove func(string) error) error {
	for _, attachment := range attachments {
		if err := remove(filepath.Join(dir, attachment.StoredName)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove stored file %s: %w", attachment.StoredName, err)
		}
	}
	return nil
}

func (a *App) AttachmentUpload(c echo.Context) error {
	inquiryID, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得所属询问
	var inquiry models.Inquiry
	if err := a.db.WithContext(rctx).First(&inquiry, "id = ?", inquiryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get inquiry", zap.Uint("id", inquiryID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 鉴权：上传附件视为修改询问
	if _, err, statusCode := a.authorizeResource(c, kindInquiry, inquiry.ID, inquiryAuthorOf(&inquiry), access.OperationUpdate); err != nil {
		return a.er(c, statusCode)
	}

	// 读取上传文件
	fileHeader, err := c.FormFile("file")
	if err != nil {
		a.l.Error("failed to read form file", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	src, err := fileHeader.Open()
	if err != nil {
		a.l.Error("failed to open uploaded file", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	defer src.Close()

	// 随机存储名，避免路径冲突与目录穿越
	storedName := uuid.NewString() + filepath.Ext(fileHeader.Filename)

	if err := os.MkdirAll(a.uploadDir, 0o750); err != nil {
		a.l.Error("failed to create upload dir", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	dst, err := os.Create(filepath.Join(a.uploadDir, storedName))
	if err != nil {
		a.l.Error("failed to create stored file", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		a.l.Error("failed to write stored file", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 记录元数据
	attachment := models.Attachment{
		InquiryID:  inquiry.ID,
		Name:       fileHeader.Filename,
		StoredName: storedName,
		Size:       written,
	}
	if err := a.db.WithContext(rctx).Create(&attachment).Error; err != nil {
		a.l.Error("failed to create attachment", zap.Error(err))
		// 元数据没落下来，文件本体也不留
		_ = a.removeFile(filepath.Join(a.uploadDir, storedName))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, &AttachmentInfo{
		Id:   attachment.ID,
		Name: attachment.Name,
		Size: attachment.Size,
	})
}

func (a *App) AttachmentDownload(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var attachment models.Attachment
	if err := a.db.WithContext(rctx).First(&attachment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get attachment", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	var inquiry models.Inquiry
	if err := a.db.WithContext(rctx).Preload("User").First(&inquiry, "id = ?", attachment.InquiryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get inquiry", zap.Uint("id", attachment.InquiryID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 私密询问的附件跟随询问本身的读取规则
	if inquiry.IsSecret {
		if _, err, statusCode := a.authorizeResource(c, kindInquiry, inquiry.ID, inquiryAuthorOf(&inquiry), access.OperationRead); err != nil {
			return a.er(c, statusCode)
		}
	}

	return c.Attachment(filepath.Join(a.uploadDir, attachment.StoredName), attachment.Name)
}

func (a *App) AttachmentDelete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var attachment models.Attachment
	if err := a.db.WithContext(rctx).First(&attachment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get attachment", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	var inquiry models.Inquiry
	if err := a.db.WithContext(rctx).Preload("User").First(&inquiry, "id = ?", attachment.InquiryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get inquiry", zap.Uint("id", attachment.InquiryID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 鉴权：删除附件视为修改询问
	if _, err, statusCode := a.authorizeResource(c, kindInquiry, inquiry.ID, inquiryAuthorOf(&inquiry), access.OperationUpdate); err != nil {
		return a.er(c, statusCode)
	}

	// 文件本体先删，删不掉就中止，不留悬空的元数据
	if err := removeAttachmentFiles([]models.Attachment{attachment}, a.uploadDir, a.removeFile); err != nil {
		a.l.Error("failed to remove stored file", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	if err := a.db.WithContext(rctx).Delete(&models.Attachment{}, id).Error; err != nil {
		a.l.Error("failed to delete attachment", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}
