package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Autosave  AutosaveConfig  `mapstructure:"autosave"`
	Stats     StatsConfig     `mapstructure:"stats"`
	Ranking   RankingConfig   `mapstructure:"ranking"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
	Burst         int `mapstructure:"burst"`
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

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

// ScoringConfig 风险计分的乘数是产品常量，待产品侧确认，这里全部走配置，
// 支持热更新后无需重启生效
type ScoringConfig struct {
	ScaleMax              float64 `mapstructure:"scale_max"`
	IncorrectPenalty      float64 `mapstructure:"incorrect_penalty"`
	RiskBonusMultiplier   float64 `mapstructure:"risk_bonus_multiplier"`
	RiskPenaltyMultiplier float64 `mapstructure:"risk_penalty_multiplier"`
}

type AutosaveConfig struct {
	DebounceMs     int `mapstructure:"debounce_ms"`
	MaxRetries     int `mapstructure:"max_retries"`
	RetryBackoffMs int `mapstructure:"retry_backoff_ms"`
	SnapshotTTLHrs int `mapstructure:"snapshot_ttl_hours"`
}

type StatsConfig struct {
	CronSpec string `mapstructure:"cron_spec"`
}

type RankingConfig struct {
	TopN           int `mapstructure:"top_n"`
	NeighborWindow int `mapstructure:"neighbor_window"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("QUIZ_EXT")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	viper.SetDefault("scoring.scale_max", 100.0)
	viper.SetDefault("scoring.incorrect_penalty", 0.0)
	viper.SetDefault("scoring.risk_bonus_multiplier", 1.25)
	viper.SetDefault("scoring.risk_penalty_multiplier", 0.5)

	viper.SetDefault("autosave.debounce_ms", 800)
	viper.SetDefault("autosave.max_retries", 5)
	viper.SetDefault("autosave.retry_backoff_ms", 500)
	viper.SetDefault("autosave.snapshot_ttl_hours", 720)

	viper.SetDefault("stats.cron_spec", "@every 5m")

	viper.SetDefault("ranking.top_n", 5)
	viper.SetDefault("ranking.neighbor_window", 2)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (s ScoringConfig) Validate() error {
	if s.ScaleMax <= 0 {
		return fmt.Errorf("scoring.scale_max must be positive, got %v", s.ScaleMax)
	}
	if s.IncorrectPenalty < 0 || s.RiskPenaltyMultiplier < 0 {
		return fmt.Errorf("scoring penalties must be non-negative")
	}
	if s.RiskBonusMultiplier < 1 {
		return fmt.Errorf("scoring.risk_bonus_multiplier must be >= 1, got %v", s.RiskBonusMultiplier)
	}
	return nil
}
