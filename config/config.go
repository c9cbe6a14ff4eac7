package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from the environment (optionally via a .env file) with
// simple defaults suitable for local play.
type Config struct {
	// 音乐库根目录，启动时递归扫描一次
	RootDirectory string

	// 片段选择参数
	SegmentSkipStart float64       // 曲目开头跳过的比例 [0,1)
	SegmentSkipEnd   float64       // 曲目结尾跳过的比例 [0,1)
	SegmentLength    time.Duration // 试听片段时长
	ExportFormat     string        // 导出容器格式，如 flac
	PreloadCount     int           // 每个会话预加载的曲目数量

	FFmpegPath string
	ServerAddr string
	WebAppDir  string // Path to the web application's UI files

	// Redis配置（可选，用于片段字节缓存）
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	ClipCacheTTL  time.Duration

	// MinIO配置（可选，远端音乐库同步到本地缓存目录）
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string
	MusicCacheDir  string

	// 日志配置
	LogLevel      string
	LogOutputPath string
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

// getEnvFloat gets an environment variable as float64 or returns a default value.
func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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

	segmentSeconds := getEnvFloat("SEGMENT_LENGTH", 3)
	clipCacheSeconds := getEnvInt("CLIP_CACHE_TTL", 1800)

	return &Config{
		RootDirectory: getEnv("ROOT_DIRECTORY", "music"),

		SegmentSkipStart: getEnvFloat("SEGMENT_SKIP_START", 0.1),
		SegmentSkipEnd:   getEnvFloat("SEGMENT_SKIP_END", 0.1),
		SegmentLength:    time.Duration(segmentSeconds * float64(time.Second)),
		ExportFormat:     getEnv("EXPORT_FORMAT", "flac"),
		PreloadCount:     getEnvInt("PRELOAD_COUNT", 3),

		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		WebAppDir:  getEnv("WEB_APP_DIR", "web/ui"),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		ClipCacheTTL:  time.Duration(clipCacheSeconds) * time.Second,

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "guessfm"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", ""),
		MusicCacheDir:  getEnv("MUSIC_CACHE_DIR", "music-cache"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogOutputPath: getEnv("LOG_OUTPUT_PATH", ""),
	}
}
