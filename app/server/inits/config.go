package inits

import (
	"fmt"
	"os"
	"strings"

	"github.com/moonsunghun/blog-back-sub000/app/server/config"
)

func Config() (cfg *config.Config, err error) {
	cfg = &config.Config{}

	// 手动配置映射，如果这里有什么自动映射工具就好了， viper 好像处理这种基于环境变量的配置也不是很方便
	{
		mode, exist := os.LookupEnv("MODE")
		cfg.System.IsProd = exist && strings.HasPrefix(strings.ToLower(mode), "p")
	}

	if listen, exist := os.LookupEnv("LISTEN"); !exist {
		cfg.System.Listen = ":1323" // 默认监听地址
	} else {
		cfg.System.Listen = listen
	}

	if dbconn, exist := os.LookupEnv("DB_CONN"); !exist {
		return nil, fmt.Errorf("DB_CONN environment variable not set")
	} else {
		cfg.System.DBConnectionString = dbconn
	}

	if redisconn, exist := os.LookupEnv("REDIS_CONN"); !exist {
		return nil, fmt.Errorf("REDIS_CONN environment variable not set")
	} else {
		cfg.System.RedisConnectionString = redisconn
	}

	if secretDir, exist := os.LookupEnv("SECRET_DIR"); !exist {
		cfg.Storage.SecretDir = "/data/blog/secret" // 默认密钥目录
	} else {
		cfg.Storage.SecretDir = secretDir
	}

	if uploadDir, exist := os.LookupEnv("UPLOAD_DIR"); !exist {
		cfg.Storage.UploadDir = "/data/blog/uploads" // 默认附件目录
	} else {
		cfg.Storage.UploadDir = uploadDir
	}

	return cfg, nil
}
