package handlers

import (
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/moonsunghun/blog-back-sub000/app/server/guestpass"
)

type App struct {
	l   *zap.Logger       // 日志
	db  *gorm.DB          // 数据库
	rdb *redis.Client     // Redis ，缓存会员最小投影等
	gp  *guestpass.Cipher // 访客密码 cookie 的加解密（共享 KeyMaterial ）

	uploadDir string // 附件存放目录
	isProd    bool   // 影响 cookie 的 Secure / SameSite 属性

	removeFile func(string) error // 默认 os.Remove ，测试时替换
}

func NewApp(l *zap.Logger, db *gorm.DB, rdb *redis.Client, gp *guestpass.Cipher, uploadDir string, isProd bool) *App {
	return &App{
		l:          l,
		db:         db,
		rdb:        rdb,
		gp:         gp,
		uploadDir:  uploadDir,
		isProd:     isProd,
		removeFile: os.Remove,
	}
}
