package constants

// 访客密码 cookie ，按资源类型加 id 区分。
// 类型不参与命名的话，询问和评论的 id 撞上会互相覆盖对方的 cookie
const (
	GuestPasswordCookieNameFormat = "guestPassword-%s-%d"
	GuestPasswordCookieMaxAge     = 3600 // 秒，即 1 小时
)
