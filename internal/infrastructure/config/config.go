package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	Completion  CompletionConfig `mapstructure:"completion"`
	Detection   DetectionConfig  `mapstructure:"detection"`
	Session     SessionConfig    `mapstructure:"session"`
	Cache       CacheConfig      `mapstructure:"cache"`
	History     HistoryConfig    `mapstructure:"history"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Image       ImageConfig      `mapstructure:"image"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// CompletionConfig 文字生成端點配置（OpenAI 相容 chat completion）
// APIKey 為空時走離線備援，不視為設定錯誤
type CompletionConfig struct {
	URL            string        `mapstructure:"url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Temperature    float64       `mapstructure:"temperature"`
	JSONMode       bool          `mapstructure:"json_mode"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	Referer        string        `mapstructure:"referer"`
	Title          string        `mapstructure:"title"`
}

// HasKey 是否已設定憑證
func (c CompletionConfig) HasKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// DetectionConfig 畫面分類與去抖動設定
type DetectionConfig struct {
	ConfidenceThreshold float64           `mapstructure:"confidence_threshold"`
	MaxItems            int               `mapstructure:"max_items"`
	ReemitInterval      int               `mapstructure:"reemit_interval"`
	Rekognition         RekognitionConfig `mapstructure:"rekognition"`
}

// RekognitionConfig AWS Rekognition 分類器設定
type RekognitionConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Region        string  `mapstructure:"region"`
	MaxLabels     int     `mapstructure:"max_labels"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// SessionConfig 掃描工作階段設定
type SessionConfig struct {
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxSessions     int           `mapstructure:"max_sessions"`
}

// CacheConfig completion 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// HistoryConfig 歷史紀錄鏡像設定
type HistoryConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// LoadConfig 載入設定，.env 不存在時只讀環境變數
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(viper.New(), "")
}

// Load 以指定的 viper 實例載入設定；path 非空時讀取該設定檔
func Load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("completion.api_key", "APP_COMPLETION_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("completion.model", "APP_COMPLETION_MODEL", "COMPLETION_MODEL")
	_ = v.BindEnv("completion.url", "APP_COMPLETION_URL", "COMPLETION_URL")
	_ = v.BindEnv("detection.confidence_threshold", "APP_DETECTION_CONFIDENCE_THRESHOLD", "CONFIDENCE_THRESHOLD")
	_ = v.BindEnv("detection.rekognition.region", "APP_DETECTION_REKOGNITION_REGION", "AWS_REGION")
	_ = v.BindEnv("history.redis.addr", "APP_HISTORY_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("rate_limit.enabled", "APP_RATE_LIMIT_ENABLED", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("dedup_window", "APP_DEDUP_WINDOW", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "APP_LOG_LEVEL", "LOG_LEVEL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Completion.APIKey = strings.TrimSpace(config.Completion.APIKey)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Default 回傳只含預設值的設定
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "seefood")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "90s")
	v.SetDefault("server.max_body_bytes", 12<<20)

	// completion 設定
	v.SetDefault("completion.url", "https://openrouter.ai/api/v1/chat/completions")
	v.SetDefault("completion.model", "openai/gpt-4o-mini")
	v.SetDefault("completion.temperature", 0.4)
	v.SetDefault("completion.json_mode", false)
	v.SetDefault("completion.connect_timeout", "20s")
	v.SetDefault("completion.read_timeout", "30s")
	v.SetDefault("completion.referer", "https://seefood.app")
	v.SetDefault("completion.title", "SeeFood")

	// 偵測設定
	v.SetDefault("detection.confidence_threshold", 0.3)
	v.SetDefault("detection.max_items", 8)
	v.SetDefault("detection.reemit_interval", 5)
	v.SetDefault("detection.rekognition.enabled", false)
	v.SetDefault("detection.rekognition.max_labels", 20)
	v.SetDefault("detection.rekognition.min_confidence", 30.0)

	// 工作階段
	v.SetDefault("session.idle_timeout", "30m")
	v.SetDefault("session.cleanup_interval", "1m")
	v.SetDefault("session.max_sessions", 1000)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 500)
	v.SetDefault("cache.ttl", "30m")
	v.SetDefault("cache.cleanup_interval", "5m")

	// 歷史紀錄
	v.SetDefault("history.redis.enabled", false)
	v.SetDefault("history.redis.addr", "localhost:6379")
	v.SetDefault("history.redis.db", 0)
	v.SetDefault("history.redis.ttl", "168h")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 120)
	v.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	d := config.Detection
	if d.ConfidenceThreshold < 0 || d.ConfidenceThreshold > 1 {
		return fmt.Errorf("detection confidence threshold must be within [0,1], got %v", d.ConfidenceThreshold)
	}
	if d.MaxItems <= 0 {
		return fmt.Errorf("invalid detection max items")
	}
	if d.ReemitInterval <= 0 {
		return fmt.Errorf("invalid detection reemit interval")
	}
	if d.Rekognition.Enabled && d.Rekognition.Region == "" {
		return fmt.Errorf("rekognition region is required when rekognition is enabled")
	}

	if config.Session.IdleTimeout <= 0 || config.Session.CleanupInterval <= 0 {
		return fmt.Errorf("invalid session timeouts")
	}
	if config.Session.MaxSessions <= 0 {
		return fmt.Errorf("invalid session max sessions")
	}

	if config.Completion.URL == "" {
		return fmt.Errorf("completion url is required")
	}
	if config.Completion.ConnectTimeout <= 0 || config.Completion.ReadTimeout <= 0 {
		return fmt.Errorf("invalid completion timeouts")
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
