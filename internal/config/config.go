package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseDSN    string
	Env            string
	SessionSecret  string
	TicketTTLHours int
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// Load 读取环境变量（可选 .env 文件）并带默认值返回配置。
// DATABASE_DSN 为空时服务退化为进程内消息存储，仅适合开发环境。
func Load() Config {
	_ = godotenv.Load(".env")
	ttl, _ := strconv.Atoi(getenv("TICKET_TTL_HOURS", "24"))
	redisDB, _ := strconv.Atoi(getenv("REDIS_DB", "0"))
	return Config{
		Port:           getenv("APP_PORT", "8080"),
		DatabaseDSN:    getenv("DATABASE_DSN", ""),
		Env:            getenv("APP_ENV", "dev"),
		SessionSecret:  getenv("SESSION_SECRET", "dev-secret-change-me"),
		TicketTTLHours: ttl,
		RedisAddr:      getenv("REDIS_ADDR", ""),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		RedisDB:        redisDB,
	}
}
