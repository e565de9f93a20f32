package main

import (
	"context"
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/moonsunghun/blog-back-sub000/app/server/guestpass"
	"github.com/moonsunghun/blog-back-sub000/app/server/handlers"
	"github.com/moonsunghun/blog-back-sub000/app/server/inits"
	"github.com/moonsunghun/blog-back-sub000/app/server/keystore"
)

func main() {
	// 初始化配置
	cfg, err := inits.Config()
	if err != nil {
		log.Fatal(fmt.Errorf("error loading config: %w", err))
	}

	// 初始化日志
	l, err := inits.Logger(!cfg.System.IsProd)
	if err != nil {
		log.Fatal(fmt.Errorf("error initializing logger: %w", err))
	}

	// 切换日志系统
	l.Debug("logger initialized")

	// 初始化数据库连接
	db, err := inits.DB(cfg.System.DBConnectionString)
	if err != nil {
		l.Fatal("error initializing DB connection", zap.Error(err))
	}

	// 初始化 redis 连接
	rdb, err := inits.Redis(cfg.System.RedisConnectionString)
	if err != nil {
		l.Fatal("error initializing Redis connection", zap.Error(err))
	}

	// 初始化共享密钥（访客密码 cookie 用）；失败直接放弃启动，
	// 没有它访客身份整条链路都不可用
	mat, err := keystore.Init(context.Background(), cfg.Storage.SecretDir)
	if err != nil {
		l.Fatal("error initializing key material", zap.Error(err))
	}

	// 准备 handler app
	handlerApp := handlers.NewApp(l, db, rdb, guestpass.NewCipher(mat), cfg.Storage.UploadDir, cfg.System.IsProd)

	// 准备 echo 服务
	e := echo.New()
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			l.Info("request",
				zap.String("URI", v.URI),
				zap.Int("status", v.Status),
			)

			return nil
		},
	}))
	e.Use(middleware.Recover())

	// 绑定路由
	api := e.Group("/api")

	api.GET("/healthcheck", handlerApp.HealthCheck)

	api.POST("/auth/register", handlerApp.AuthRegister)
	api.POST("/auth/login", handlerApp.AuthLogin)
	api.GET("/auth/me", handlerApp.AuthMe)

	api.GET("/users", handlerApp.UserList)
	api.PUT("/users/:id/role", handlerApp.UserRoleUpdate)
	api.DELETE("/users/:id", handlerApp.UserDelete)

	api.POST("/posts", handlerApp.PostCreate)
	api.GET("/posts", handlerApp.PostList)
	api.GET("/posts/:id", handlerApp.PostGet)
	api.PUT("/posts/:id", handlerApp.PostUpdate)
	api.DELETE("/posts/:id", handlerApp.PostDelete)
	api.POST("/posts/:id/comments", handlerApp.PostCommentCreate)
	api.GET("/posts/:id/comments", handlerApp.PostCommentList)

	api.POST("/portfolios", handlerApp.PortfolioCreate)
	api.GET("/portfolios", handlerApp.PortfolioList)
	api.GET("/portfolios/:id", handlerApp.PortfolioGet)
	api.PUT("/portfolios/:id", handlerApp.PortfolioUpdate)
	api.DELETE("/portfolios/:id", handlerApp.PortfolioDelete)

	api.POST("/inquiries", handlerApp.InquiryCreate)
	api.GET("/inquiries", handlerApp.InquiryList)
	api.GET("/inquiries/:id", handlerApp.InquiryGet)
	api.PUT("/inquiries/:id", handlerApp.InquiryUpdate)
	api.DELETE("/inquiries/:id", handlerApp.InquiryDelete)
	api.POST("/inquiries/:id/guest/verify", handlerApp.InquiryGuestVerify)
	api.POST("/inquiries/:id/comments", handlerApp.InquiryCommentCreate)
	api.GET("/inquiries/:id/comments", handlerApp.InquiryCommentList)
	api.POST("/inquiries/:id/attachments", handlerApp.AttachmentUpload)

	api.PUT("/comments/:id", handlerApp.CommentUpdate)
	api.DELETE("/comments/:id", handlerApp.CommentDelete)
	api.POST("/comments/:id/guest/verify", handlerApp.CommentGuestVerify)
	api.POST("/comments/:id/replies", handlerApp.ReplyCreate)

	api.PUT("/replies/:id", handlerApp.ReplyUpdate)
	api.DELETE("/replies/:id", handlerApp.ReplyDelete)
	api.POST("/replies/:id/guest/verify", handlerApp.ReplyGuestVerify)

	api.GET("/attachments/:id/download", handlerApp.AttachmentDownload)
	api.DELETE("/attachments/:id", handlerApp.AttachmentDelete)

	// 启动 echo 服务
	if err := e.Start(cfg.System.Listen); err != nil {
		l.Fatal("shutting down the server", zap.Error(err))
	}
}
