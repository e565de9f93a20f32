package config

type Config struct {
	System struct {
		IsProd                bool   // 是否为生产环境
		Listen                string // 监听地址
		DBConnectionString    string // Postgres 数据库的连接字符串
		RedisConnectionString string // Redis 数据库的连接字符串
	}
	Storage struct {
		SecretDir string // 进程间共享密钥（KeyMaterial）的缓存目录，设定后不能更改
		UploadDir string // 附件文件的存放目录
	}
}
