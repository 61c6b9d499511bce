// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"stress-guru-go/internal/assessment"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Content    ContentConfig    `mapstructure:"content"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
	PSS        PSSConfig        `mapstructure:"pss"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
	Mongo MongoConfig `mapstructure:"mongo"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MongoConfig 存储自适应知识库所在的 MongoDB 配置。
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// KafkaConfig 存储学习事件所用的 Kafka 配置。Enabled 为 false 时学习在进程内同步完成。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// ContentConfig 指定静态内容（题库、关键词表、区间表、推荐表）的来源。
type ContentConfig struct {
	Source string `mapstructure:"source"` // "local" 或 "minio"
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
}

// AssessmentConfig 存储对话评估相关的配置。
type AssessmentConfig struct {
	DefaultScheme string `mapstructure:"default_scheme"` // "dass" 或 "pss"
	PSSBackend    string `mapstructure:"pss_backend"`    // "local" 或 "remote"
	HistoryLimit  int    `mapstructure:"history_limit"`
}

// Scheme 解析 default_scheme，未知取值返回错误。
func (a AssessmentConfig) Scheme() (assessment.Scheme, error) {
	scheme, ok := assessment.ParseScheme(a.DefaultScheme)
	if !ok {
		return "", fmt.Errorf("assessment.default_scheme 取值无效: %q", a.DefaultScheme)
	}
	return scheme, nil
}

// RemotePSS 表示 PSS 评估走远程服务。
func (a AssessmentConfig) RemotePSS() bool {
	return strings.EqualFold(strings.TrimSpace(a.PSSBackend), "remote")
}

func (a AssessmentConfig) validate() error {
	if _, err := a.Scheme(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(a.PSSBackend)) {
	case "local", "remote":
	default:
		return fmt.Errorf("assessment.pss_backend 取值无效: %q", a.PSSBackend)
	}
	return nil
}

// PSSConfig 是远程自适应 PSS 服务的地址。
type PSSConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	// 环境变量只能覆盖 viper 已知的键，所以敏感项也要注册默认值
	v.SetDefault("jwt.secret", "")
	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.redis.addr", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("jwt.access_token_expire_hours", 24)
	v.SetDefault("jwt.refresh_token_expire_days", 7)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("kafka.topic", "stress-learning")
	v.SetDefault("kafka.group_id", "stress-learner")
	v.SetDefault("database.mongo.database", "stress_guru")
	v.SetDefault("content.source", "local")
	v.SetDefault("content.dir", "configs/content")
	v.SetDefault("assessment.default_scheme", "dass")
	v.SetDefault("assessment.pss_backend", "local")
	v.SetDefault("assessment.history_limit", 5)
	v.SetDefault("pss.timeout_seconds", 10)
}

// Load 从指定路径读取 YAML 文件，环境变量 STRESSGURU_* 可覆盖同名配置项。
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("STRESSGURU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if err := c.Assessment.validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Init 初始化配置加载，解析到 Conf 变量中。失败时直接 panic。
func Init(configPath string) {
	c, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = c
}
