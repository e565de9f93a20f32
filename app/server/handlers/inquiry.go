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

func (a *App) inquiryMapFields(req *InquiryUpdateRequest, inquiry *models.Inquiry) {
	if req.Title != nil {
		inquiry.Title = *req.Title
	}
	if req.Content != nil {
		inquiry.Content = *req.Content
	}
	if req.IsSecret != nil {
		inquiry.IsSecret = *req.IsSecret
	}
}

// 把请求里给到的字段显式列出来：结构体式的 Updates 会跳过零值，
// 像把 isSecret 从 true 改回 false 这种修改会被静默丢掉
func inquiryUpdateValues(req *InquiryUpdateRequest) map[string]any {
	values := map[string]any{}
	if req.Title != nil {
		values["title"] = *req.Title
	}
	if req.Content != nil {
		values["content"] = *req.Content
	}
	if req.IsSecret != nil {
		values["is_secret"] = *req.IsSecret
	}
	return values
}

func inquiryAuthorOf(inquiry *models.Inquiry) types.Author {
	return resourceAuthor(inquiry.UserID, inquiry.User, inquiry.GuestNickname, inquiry.GuestPassword)
}

func inquiryInfoOf(inquiry *models.Inquiry) *InquiryInfo {
	resAttachments := []AttachmentInfo{}
	for _, attachment := range inquiry.Attachments {
		resAttachments = append(resAttachments, AttachmentInfo{
			Id:   attachment.ID,
			Name: attachment.Name,
			Size: attachment.Size,
		})
	}

	return &InquiryInfo{
		Id:            inquiry.ID,
		Title:         inquiry.Title,
		Content:       inquiry.Content,
		IsSecret:      inquiry.IsSecret,
		AuthorName:    authorName(inquiry.User, inquiry.GuestNickname),
		IsGuestAuthor: inquiry.UserID == nil,
		CreatedAt:     inquiry.CreatedAt,
		UpdatedAt:     inquiry.UpdatedAt,
		Attachments:   resAttachments,
	}
}

// 访客昵称的占用检查范围：全部询问的访客作者
func (a *App) inquiryGuestNicknameExists(ctx context.Context) func(string) (bool, error) {
	return func(candidate string) (bool, error) {
		var count int64
		if err := a.db.WithContext(ctx).
			Model(&models.Inquiry{}).
			Where("guest_nickname = ?", candidate).
			Count(&count).Error; err != nil {
			return false, fmt.Errorf("failed to count inquiry guest nickname: %w", err)
		}
		return count > 0, nil
	}
}

func (a *App) InquiryCreate(c echo.Context) error {
	rctx := c.Request().Context()

	// 绑定请求体
	var req InquiryCreateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Title == "" || req.Content == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 请求方可以是会员，也可以是带密码的访客
	requester, err := a.resolveRequester(c)
	if err != nil {
		a.l.Error("failed to resolve requester", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	inquiry := models.Inquiry{
		Title:    req.Title,
		Content:  req.Content,
		IsSecret: req.IsSecret,
	}

	var guestPlainPassword string
	if requester != nil {
		inquiry.UserID = &requester.ID
	} else {
		// 访客发帖：分配昵称 + 哈希密码
		var preferred string
		if req.GuestNickname != nil {
			preferred = *req.GuestNickname
		}
		if req.GuestPassword != nil {
			guestPlainPassword = *req.GuestPassword
		}

		allocated, hash, err, statusCode := a.allocateGuestAuthor(rctx, preferred, guestPlainPassword, a.inquiryGuestNicknameExists(rctx))
		if err != nil {
			a.l.Error("failed to prepare guest author", zap.Error(err))
			return a.er(c, statusCode)
		}

		inquiry.GuestNickname = allocated
		inquiry.GuestPassword = hash
	}

	if err := a.db.WithContext(rctx).Create(&inquiry).Error; err != nil {
		a.l.Error("failed to create inquiry", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	if requester == nil {
		// 访客作者直接签发 cookie ，后续编辑不用再输一遍密码
		if err := a.setGuestCookie(c, kindInquiry, inquiry.ID, guestPlainPassword); err != nil {
			a.l.Error("failed to set guest cookie", zap.Uint("id", inquiry.ID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	} else {
		// 补上作者信息用于响应
		var author models.User
		if err := a.db.WithContext(rctx).First(&author, "id = ?", requester.ID).Error; err != nil {
			a.l.Error("failed to get inquiry author", zap.Uint("id", requester.ID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
		inquiry.User = &author
	}

	return c.JSON(http.StatusCreated, inquiryInfoOf(&inquiry))
}

func (a *App) InquiryList(c echo.Context) error {
	rctx := c.Request().Context()

	var (
		inquiries      []models.Inquiry
		inquiriesCount int64
	)

	showAll, page, limit := a.parsePagination(queryUint(c, "page"), queryUint(c, "limit"))
	queryBase := a.db.WithContext(rctx).Model(&models.Inquiry{}).Preload("User").Order("id DESC")
	if !showAll {
		queryBase = queryBase.Limit(limit).Offset(page * limit)
	}

	if err := queryBase.Find(&inquiries).Error; err != nil {
		a.l.Error("failed to get inquiry list", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if err := a.db.WithContext(rctx).Model(&models.Inquiry{}).Count(&inquiriesCount).Error; err != nil {
		a.l.Error("failed to count inquiry", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 列表只给概要，私密询问的正文通过详情接口单独鉴权
	resInquiries := []InquirySummary{}
	for i := range inquiries {
		inquiry := &inquiries[i]
		resInquiries = append(resInquiries, InquirySummary{
			Id:            inquiry.ID,
			Title:         inquiry.Title,
			IsSecret:      inquiry.IsSecret,
			AuthorName:    authorName(inquiry.User, inquiry.GuestNickname),
			IsGuestAuthor: inquiry.UserID == nil,
			CreatedAt:     inquiry.CreatedAt,
		})
	}

	return c.JSON(http.StatusOK, &ListResponse[InquirySummary]{
		Limit:   limit,
		PageMax: a.calcMaxPage(inquiriesCount, showAll, limit),
		List:    resInquiries,
	})
}

func (a *App) InquiryGet(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var inquiry models.Inquiry
	if err := a.db.WithContext(rctx).Preload("User").Preload("Attachments").First(&inquiry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get inquiry", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 私密询问需要过一遍读取鉴权，公开询问任何人可读
	if inquiry.IsSecret {
		if _, err, statusCode := a.authorizeResource(c, kindInquiry, inquiry.ID, inquiryAuthorOf(&inquiry), access.OperationRead); err != nil {
			return a.er(c, statusCode)
		}
	}

	return c.JSON(http.StatusOK, inquiryInfoOf(&inquiry))
}

func (a *App) InquiryUpdate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var inquiry models.Inquiry
	if err := a.db.WithContext(rctx).Preload("User").Preload("Attachments").First(&inquiry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get inquiry", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 鉴权必须在任何写入之前完成
	if _, err, statusCode := a.authorizeResource(c, kindInquiry, inquiry.ID, inquiryAuthorOf(&inquiry), access.OperationUpdate); err != nil {
		return a.er(c, statusCode)
	}

	// 绑定请求体
	var req InquiryUpdateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	a.inquiryMapFields(&req, &inquiry)

	// 更新（显式列，零值照样落库）
	if values := inquiryUpdateValues(&req); len(values) > 0 {
		if err := a.db.WithContext(rctx).Model(&inquiry).Updates(values).Error; err != nil {
			a.l.Error("failed to update inquiry", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	return c.JSON(http.StatusOK, inquiryInfoOf(&inquiry))
}

// 级联删除：先删附件的文件本体（任何一个失败整体中止，元数据原封不动），
// 再在一个事务里删附件元数据和询问记录；评论与回复交给数据库的级联约束
func (a *App) inquiryDeleteCascade(ctx context.Context, inquiryID uint) ([]uint, error) {
	var attachments []models.Attachment
	if err := a.db.WithContext(ctx).Find(&attachments, "inquiry_id = ?", inquiryID).Error; err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	// 文件本体先删：宁可留下孤儿文件，也不留指向缺失文件的元数据
	if err := removeAttachmentFiles(attachments, a.uploadDir, a.removeFile); err != nil {
		return nil, err
	}

	deletedAttachmentIDs := []uint{}
	if err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, attachment := range attachments {
			if err := tx.Delete(&models.Attachment{}, attachment.ID).Error; err != nil {
				return fmt.Errorf("failed to delete attachment %d: %w", attachment.ID, err)
			}
			deletedAttachmentIDs = append(deletedAttachmentIDs, attachment.ID)
		}

		if err := tx.Delete(&models.Inquiry{}, inquiryID).Error; err != nil {
			return fmt.Errorf("failed to delete inquiry %d: %w", inquiryID, err)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return deletedAttachmentIDs, nil
}

func (a *App) InquiryDelete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 从数据库中获得
	var inquiry models.Inquiry
	if err := a.db.WithContext(rctx).First(&inquiry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get inquiry", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 鉴权必须在任何删除之前完成
	if _, err, statusCode := a.authorizeResource(c, kindInquiry, inquiry.ID, inquiryAuthorOf(&inquiry), access.OperationDelete); err != nil {
		return a.er(c, statusCode)
	}

	deletedAttachmentIDs, err := a.inquiryDeleteCascade(rctx, inquiry.ID)
	if err != nil {
		// 半途失败不提交：附件元数据和询问记录保持原样
		a.l.Error("failed to cascade delete inquiry", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, &InquiryDeleteResponse{
		DeletedInquiryId:     inquiry.ID,
		DeletedAttachmentIds: deletedAttachmentIDs,
	})
}

// 访客输入一次密码换取 cookie ，之后的编辑请求靠 cookie 静默授权
func (a *App) InquiryGuestVerify(c echo.Context) error {
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
	var inquiry models.Inquiry
	if err := a.db.WithContext(rctx).First(&inquiry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get inquiry", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 只有访客作者的资源才有密码可验
	if inquiry.UserID != nil || inquiry.GuestPassword == "" {
		return a.er(c, http.StatusBadRequest)
	}

	if match, err := guestpass.Verify(req.Password, inquiry.GuestPassword); err != nil {
		a.l.Error("failed to verify guest password", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	} else if !match {
		a.logDeny(nil, inquiryAuthorOf(&inquiry), access.OperationUpdate, access.ErrAuthentication)
		return a.er(c, http.StatusUnauthorized)
	}

	if err := a.setGuestCookie(c, kindInquiry, inquiry.ID, req.Password); err != nil {
		a.l.Error("failed to set guest cookie", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}
