package handlers

import "time"

type ErrorMessage struct {
	Message string `json:"message"`
}

// 认证相关

type AuthRegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type AuthLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	Token string `json:"token"`
}

type UserInfo struct {
	Id       uint   `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	IsAdmin  bool   `json:"isAdmin"`
}

type UserRoleUpdateRequest struct {
	IsAdmin *bool `json:"isAdmin"`
}

// 分页响应的统一包装

type ListResponse[T any] struct {
	Limit   int   `json:"limit"`
	PageMax int64 `json:"pageMax"`
	List    []T   `json:"list"`
}

// 博客文章

type PostCreateRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type PostUpdateRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

type PostInfo struct {
	Id             uint      `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Tags           []string  `json:"tags"`
	AuthorNickname string    `json:"authorNickname"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// 作品集

type PortfolioCreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Tags        []string `json:"tags"`
}

type PortfolioUpdateRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Link        *string   `json:"link"`
	Tags        *[]string `json:"tags"`
}

type PortfolioInfo struct {
	Id          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
}

// 询问（支持工单）

type InquiryCreateRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	IsSecret bool   `json:"isSecret"`

	// 访客发帖时填写；会员发帖时留空
	GuestNickname *string `json:"guestNickname"`
	GuestPassword *string `json:"guestPassword"`
}

type InquiryUpdateRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	IsSecret *bool   `json:"isSecret"`
}

type InquiryInfo struct {
	Id            uint             `json:"id"`
	Title         string           `json:"title"`
	Content       string           `json:"content"`
	IsSecret      bool             `json:"isSecret"`
	AuthorName    string           `json:"authorName"`
	IsGuestAuthor bool             `json:"isGuestAuthor"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Attachments   []AttachmentInfo `json:"attachments"`
}

type InquirySummary struct {
	Id            uint      `json:"id"`
	Title         string    `json:"title"`
	IsSecret      bool      `json:"isSecret"`
	AuthorName    string    `json:"authorName"`
	IsGuestAuthor bool      `json:"isGuestAuthor"`
	CreatedAt     time.Time `json:"createdAt"`
}

type InquiryDeleteResponse struct {
	DeletedInquiryId     uint   `json:"deletedInquiryId"`
	DeletedAttachmentIds []uint `json:"deletedAttachmentIds"`
}

type GuestVerifyRequest struct {
	Password string `json:"password"`
}

// 评论与回复

type CommentCreateRequest struct {
	Content string `json:"content"`

	GuestNickname *string `json:"guestNickname"`
	GuestPassword *string `json:"guestPassword"`
}

type CommentUpdateRequest struct {
	Content *string `json:"content"`
}

type CommentInfo struct {
	Id            uint        `json:"id"`
	Content       string      `json:"content"`
	AuthorName    string      `json:"authorName"`
	IsGuestAuthor bool        `json:"isGuestAuthor"`
	CreatedAt     time.Time   `json:"createdAt"`
	Replies       []ReplyInfo `json:"replies"`
}

type ReplyCreateRequest struct {
	Content string `json:"content"`

	GuestNickname *string `json:"guestNickname"`
	GuestPassword *string `json:"guestPassword"`
}

type ReplyUpdateRequest struct {
	Content *string `json:"content"`
}

type ReplyInfo struct {
	Id            uint      `json:"id"`
	Content       string    `json:"content"`
	AuthorName    string    `json:"authorName"`
	IsGuestAuthor bool      `json:"isGuestAuthor"`
	CreatedAt     time.Time `json:"createdAt"`
}

// 附件

type AttachmentInfo struct {
	Id   uint   `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}
