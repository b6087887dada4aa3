package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 进程级配置，全部来源于环境变量（可由 .env 提供）
type Config struct {
	Port    string
	GinMode string

	LogLevel string
	LogDev   bool

	// 存储: json | postgres | sqlite
	StorageDriver string
	DataDir       string
	DatabaseURL   string
	SQLitePath    string

	// 发帖限制
	PostLimit   int
	RateBackend string // memory | redis
	RedisAddr   string
	RedisDB     int
	RedisKey    string
	ResetHour   int
	ResetMinute int

	// 内容审核
	MaxLength        int
	SpecialRatio     float64
	VerdictCacheSize int
	VerdictCacheTTL  time.Duration

	// LLM (OpenAI 兼容接口)
	LLMBaseURL string
	LLMToken   string
	LLMModel   string
	LLMTimeout time.Duration
	LLMRPS     float64
	LLMBurst   int

	MaxInflight    int64
	UploadDir      string
	MaxUploadBytes int64
	TemplatesDir   string
	StaticDir      string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEV", false)

	v.SetDefault("STORAGE_DRIVER", "json")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=onebite port=5432 sslmode=disable")
	v.SetDefault("SQLITE_PATH", "./data/onebite.db")

	v.SetDefault("POST_LIMIT", 3)
	v.SetDefault("RATE_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY", "onebite:post_counts")
	v.SetDefault("RESET_HOUR", 0)
	v.SetDefault("RESET_MINUTE", 0)

	v.SetDefault("MODERATION_MAX_LENGTH", 1000)
	v.SetDefault("MODERATION_SPECIAL_RATIO", 0.2)
	v.SetDefault("VERDICT_CACHE_SIZE", 500)
	v.SetDefault("VERDICT_CACHE_TTL", "10m")

	v.SetDefault("LLM_BASE_URL", "")
	v.SetDefault("LLM_TOKEN", "")
	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("LLM_TIMEOUT", "10s")
	v.SetDefault("LLM_RPS", 5.0)
	v.SetDefault("LLM_BURST", 5)

	v.SetDefault("MAX_INFLIGHT", 64)
	v.SetDefault("UPLOAD_DIR", "./web/static/uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", 16*1024*1024)
	v.SetDefault("TEMPLATES_DIR", "./web/templates")
	v.SetDefault("STATIC_DIR", "./web/static")
}

// Load 读取 .env（可选）与环境变量，返回校验后的配置
func Load() (*Config, error) {
	// .env 不存在时直接使用系统环境变量
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:     v.GetString("PORT"),
		GinMode:  v.GetString("GIN_MODE"),
		LogLevel: v.GetString("LOG_LEVEL"),
		LogDev:   v.GetBool("LOG_DEV"),

		StorageDriver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DataDir:       v.GetString("DATA_DIR"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		SQLitePath:    v.GetString("SQLITE_PATH"),

		PostLimit:   v.GetInt("POST_LIMIT"),
		RateBackend: strings.ToLower(v.GetString("RATE_BACKEND")),
		RedisAddr:   v.GetString("REDIS_ADDR"),
		RedisDB:     v.GetInt("REDIS_DB"),
		RedisKey:    v.GetString("REDIS_KEY"),
		ResetHour:   v.GetInt("RESET_HOUR"),
		ResetMinute: v.GetInt("RESET_MINUTE"),

		MaxLength:        v.GetInt("MODERATION_MAX_LENGTH"),
		SpecialRatio:     v.GetFloat64("MODERATION_SPECIAL_RATIO"),
		VerdictCacheSize: v.GetInt("VERDICT_CACHE_SIZE"),
		VerdictCacheTTL:  v.GetDuration("VERDICT_CACHE_TTL"),

		LLMBaseURL: v.GetString("LLM_BASE_URL"),
		LLMToken:   v.GetString("LLM_TOKEN"),
		LLMModel:   v.GetString("LLM_MODEL"),
		LLMTimeout: v.GetDuration("LLM_TIMEOUT"),
		LLMRPS:     v.GetFloat64("LLM_RPS"),
		LLMBurst:   v.GetInt("LLM_BURST"),

		MaxInflight:    v.GetInt64("MAX_INFLIGHT"),
		UploadDir:      v.GetString("UPLOAD_DIR"),
		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),
		TemplatesDir:   v.GetString("TEMPLATES_DIR"),
		StaticDir:      v.GetString("STATIC_DIR"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "json", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.RateBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown RATE_BACKEND %q", c.RateBackend)
	}
	if c.PostLimit < 1 {
		return fmt.Errorf("POST_LIMIT must be positive, got %d", c.PostLimit)
	}
	if c.ResetHour < 0 || c.ResetHour > 23 || c.ResetMinute < 0 || c.ResetMinute > 59 {
		return fmt.Errorf("invalid reset time %02d:%02d", c.ResetHour, c.ResetMinute)
	}
	if c.MaxLength < 1 {
		return fmt.Errorf("MODERATION_MAX_LENGTH must be positive, got %d", c.MaxLength)
	}
	if c.SpecialRatio <= 0 || c.SpecialRatio > 1 {
		return fmt.Errorf("MODERATION_SPECIAL_RATIO must be in (0,1], got %v", c.SpecialRatio)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLMTimeout)
	}
	if c.MaxInflight < 1 {
		return fmt.Errorf("MAX_INFLIGHT must be positive, got %d", c.MaxInflight)
	}
	return nil
}
