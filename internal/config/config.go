package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Grading   GradingConfig   `mapstructure:"grading"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

// GradingConfig selects and configures the grading backend.
type GradingConfig struct {
	Service      string        `mapstructure:"service"`
	Workers      int           `mapstructure:"workers"`
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	PassingScore float64       `mapstructure:"passing_score"`
	MaxFeatures  int           `mapstructure:"max_features"`
	OpenAI       OpenAIConfig  `mapstructure:"openai"`
	Gemini       GeminiConfig  `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("grading.service", "local")
	v.SetDefault("grading.workers", 1)
	v.SetDefault("grading.timeout", 30*time.Second)
	v.SetDefault("grading.cache_ttl", 24*time.Hour)
	v.SetDefault("grading.passing_score", 60)
	v.SetDefault("grading.max_features", 1000)
	v.SetDefault("grading.openai.model", "gpt-4o-mini")
	v.SetDefault("grading.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("grading.gemini.model", "gemini-1.5-flash")
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("log.file", "logs/app.log")
}

// LoadConfig reads config.yaml from path and overlays the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ASSESSMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Grading
	v.BindEnv("grading.service", "GRADING_SERVICE")
	v.BindEnv("grading.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("grading.openai.model", "OPENAI_MODEL")
	v.BindEnv("grading.openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("grading.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("grading.gemini.model", "GEMINI_MODEL")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Grading.Service = strings.ToLower(strings.TrimSpace(cfg.Grading.Service))
	if cfg.Grading.Workers < 1 {
		cfg.Grading.Workers = 1
	}
	if cfg.Grading.PassingScore < 0 || cfg.Grading.PassingScore > 100 {
		return nil, fmt.Errorf("grading.passing_score must be within [0, 100], got %v", cfg.Grading.PassingScore)
	}

	return &cfg, nil
}
