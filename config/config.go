package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Search   SearchConfig   `mapstructure:"search"`
	Counter  CounterConfig  `mapstructure:"counter"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Log      LogConfig      `mapstructure:"log"`
	Trace    TraceConfig    `mapstructure:"trace"`
	JWT      JWTConfig      `mapstructure:"jwt"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres / sqlite
	DSN      string `mapstructure:"dsn"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
	LogLevel string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SearchConfig struct {
	// IndexPath 为空时使用内存索引（本地开发/测试）
	IndexPath string `mapstructure:"index_path"`
}

// CounterConfig 浏览计数聚合参数
type CounterConfig struct {
	DedupTTL      time.Duration `mapstructure:"dedup_ttl"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	ChunkSize     int           `mapstructure:"chunk_size"`
}

// SyncConfig 搜索索引批量同步参数
type SyncConfig struct {
	JobName   string `mapstructure:"job_name"`
	DailyHour int    `mapstructure:"daily_hour"` // 本地时间整点触发
	PageSize  int    `mapstructure:"page_size"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

type TraceConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// Load 读取配置：默认值 < config.yaml < 环境变量（COMMUNITY_ 前缀）
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=community port=5432 sslmode=disable")
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("search.index_path", "")
	v.SetDefault("counter.dedup_ttl", "24h")
	v.SetDefault("counter.flush_interval", "60s")
	v.SetDefault("counter.chunk_size", 1000)
	v.SetDefault("sync.job_name", "postSync")
	v.SetDefault("sync.daily_hour", 4)
	v.SetDefault("sync.page_size", 1000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.sentry_dsn", "")
	v.SetDefault("trace.enabled", false)
	v.SetDefault("trace.endpoint", "localhost:4318")
	v.SetDefault("jwt.secret", "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		// 配置文件可选，缺失时仅依赖默认值与环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("COMMUNITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
