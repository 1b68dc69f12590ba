// Package config 提供 TOML 配置加载、环境变量覆盖与校验
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	pkgconfig "github.com/wyfcoding/pkg/config"
)

// Config 服务配置
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name" validate:"required"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, test, staging, prod；缺省为 prod
	Environment string `mapstructure:"environment" validate:"oneof=dev test staging prod"`

	HTTP      HTTPConfig      `mapstructure:"http"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
	// 读写超时（秒）
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// GRPCConfig gRPC 健康检查服务配置，端口为 0 时不启动
type GRPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=0,max=65535"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动：mysql, postgres, sqlite
	Driver string `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	DSN    string `mapstructure:"dsn"`

	MaxOpenConns int `mapstructure:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns"`
	// 连接最大生命周期（秒）
	ConnMaxLifetime int  `mapstructure:"conn_max_lifetime"`
	LogEnabled      bool `mapstructure:"log_enabled"`
	// 慢查询阈值（毫秒）
	SlowQueryThreshold int `mapstructure:"slow_query_threshold"`
	// 启动时自动建表
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// RedisConfig Redis 配置，未启用时关闭参考数据缓存，限流退化为进程内令牌桶
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	MaxPoolSize  int    `mapstructure:"max_pool_size"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	// 参考数据缓存 TTL（秒）
	DirectoryTTL int `mapstructure:"directory_ttl"`
}

// KafkaConfig Kafka 配置，未启用时记录变更事件只写日志
type KafkaConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	MaxRetries  int      `mapstructure:"max_retries"`
	// 重试退避（毫秒）
	RetryBackoff int `mapstructure:"retry_backoff"`
	// 批次最长等待（毫秒）
	BatchTimeout int `mapstructure:"batch_timeout"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level string `mapstructure:"level"`
	// stdout 或 file
	Output     string `mapstructure:"output" validate:"omitempty,oneof=stdout file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"min=0,max=65535"`
}

// RateLimitConfig 受保护路径的限流配置。启用 Redis 时按调用方分布式限流，否则为进程内令牌桶
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	QPS     int  `mapstructure:"qps"`
	Burst   int  `mapstructure:"burst"`
}

// AuthConfig API Key 网关配置
type AuthConfig struct {
	PathPrefix string `mapstructure:"path_prefix" validate:"startswith=/"`
	Header     string `mapstructure:"header" validate:"required"`
}

// BootstrapConfig 启动时幂等写入的基础数据
type BootstrapConfig struct {
	Symbols    []string        `mapstructure:"symbols"`
	EventTypes []string        `mapstructure:"event_types"`
	Users      []BootstrapUser `mapstructure:"users" validate:"dive"`
}

// BootstrapUser 开发环境预置用户
type BootstrapUser struct {
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
	Email     string `mapstructure:"email"`
	APIKey    string `mapstructure:"api_key" validate:"required"`
	Active    bool   `mapstructure:"active"`
}

// Load 加载 TOML 配置。文件存在时交给 wyfcoding/pkg/config 解析、校验并开启热加载；
// 文件不存在时仅使用默认值与环境变量
func Load(configPath string) (*Config, error) {
	var cfg Config
	if configPath != "" && fileExists(configPath) {
		setDefaults(pkgconfig.GetViper())
		if err := pkgconfig.Load(configPath, &cfg); err != nil {
			return nil, err
		}
	} else {
		v := viper.New()
		setDefaults(v)
		v.SetEnvPrefix("APP")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// Validate 校验字段标签与字段间约束；未设置环境时按 prod 处理
func (c *Config) Validate() error {
	if c.Environment == "" {
		c.Environment = "prod"
	}
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Database.DSN == "" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database DSN is required for %s driver", c.Database.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}
	if c.RateLimit.Enabled && (c.RateLimit.QPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit qps and burst must be positive")
	}
	return nil
}

// IsDev 是否开发环境
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "marketquery")
	v.SetDefault("version", "dev")
	v.SetDefault("environment", "prod")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "marketquery.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 1000)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)
	v.SetDefault("redis.directory_ttl", 86400)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic_prefix", "marketquery")
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)
	v.SetDefault("kafka.batch_timeout", 10)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/marketquery.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.qps", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("auth.path_prefix", "/internal")
	v.SetDefault("auth.header", "X-API-KEY")
}
