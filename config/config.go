package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from the environment (optionally via a .env file) with defaults
// suitable for local development.
type Config struct {
	ListenAddr string

	// 音乐目录服务配置
	ProviderBaseURL string
	ProviderTimeout time.Duration

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	StorePrefix   string // Redis键前缀，隔离多实例数据

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string
	JWTTTL    time.Duration

	DefaultQuality string // low / medium / high

	// 趋势榜与预索引后台任务配置
	TrendingInterval time.Duration
	PreindexWorkers  int
	PreindexQueue    int

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as seconds or returns a default.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", "https://saavn.sumit.co"),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT_SECONDS", 8*time.Second),

		// Redis配置，使用默认值
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""), // 默认无密码
		RedisDB:       getEnvInt("REDIS_DB", 0),     // 默认使用0号数据库
		StorePrefix:   getEnv("STORE_PREFIX", "echofm"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // For password, better not to have a hardcoded default
		DBName:     getEnv("DB_NAME", "echofm"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTTTL:    getEnvDuration("JWT_TTL_SECONDS", 7*24*time.Hour),

		DefaultQuality: getEnv("DEFAULT_QUALITY", "medium"),

		TrendingInterval: getEnvDuration("TRENDING_INTERVAL_SECONDS", 30*time.Minute),
		PreindexWorkers:  getEnvInt("PREINDEX_WORKERS", 2),
		PreindexQueue:    getEnvInt("PREINDEX_QUEUE", 64),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
