package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// Defaults applied when the config file leaves a field unset.
const (
	DefaultLargeFileThreshold = 25000
	DefaultWorkers            = 2
	DefaultQueueCapacity      = 100
	DefaultMaxBodyBytes       = 25 << 20
	DefaultLanguage           = "ru"
	DefaultAMQPExchange       = "mirror.events"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	// DatabaseURL selects the Postgres ledger; empty keeps jobs in memory.
	DatabaseURL string `yaml:"databaseURL"`
	// RedisAddr enables the shared queue and rate limiting; empty runs the
	// in-process queue without limiting.
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	OpenAIAPIKey   string `yaml:"openaiAPIKey"`
	OpenAIBaseURL  string `yaml:"openaiBaseURL"`
	AnalysisModel  string `yaml:"analysisModel"`
	NamerModel     string `yaml:"namerModel"`
	RequestTimeout string `yaml:"requestTimeout"`

	Enabled            *bool  `yaml:"enabled"`
	DefaultLanguage    string `yaml:"defaultLanguage"`
	LargeFileThreshold int    `yaml:"largeFileThreshold"`
	Workers            int    `yaml:"workers"`
	QueueCapacity      int    `yaml:"queueCapacity"`
	MaxBodyBytes       int64  `yaml:"maxBodyBytes"`

	RateLimitPerMinute int      `yaml:"rateLimitPerMinute"`
	TrustedProxyCIDRs  []string `yaml:"trustedProxyCidrs"`

	AdminJWTSecret string `yaml:"adminJWTSecret"`

	AMQPURL      string `yaml:"amqpURL"`
	AMQPExchange string `yaml:"amqpExchange"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("MIRROR_ADMIN_JWT_SECRET"); v != "" {
		cfg.AdminJWTSecret = v
	}
	if v := os.Getenv("MIRROR_AMQP_URL"); v != "" {
		cfg.AMQPURL = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MIRROR_LARGE_FILE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.LargeFileThreshold = n
		}
	}
	if v := os.Getenv("MIRROR_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.MaxBodyBytes = n
		}
	}
	if v := os.Getenv("MIRROR_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.Enabled = &b
		}
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.LargeFileThreshold == 0 {
		cfg.LargeFileThreshold = DefaultLargeFileThreshold
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if strings.TrimSpace(cfg.DefaultLanguage) == "" {
		cfg.DefaultLanguage = DefaultLanguage
	}
	if strings.TrimSpace(cfg.AMQPExchange) == "" {
		cfg.AMQPExchange = DefaultAMQPExchange
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return errors.New("config: openaiAPIKey is required (set in config.yaml or OPENAI_API_KEY)")
	}
	if strings.TrimSpace(cfg.AnalysisModel) == "" {
		return errors.New("config: analysisModel is required (set in config.yaml)")
	}
	if cfg.LargeFileThreshold < 0 {
		return errors.New("config: largeFileThreshold must be >= 0")
	}
	if cfg.Workers < 0 {
		return errors.New("config: workers must be >= 0")
	}
	if cfg.QueueCapacity < 0 {
		return errors.New("config: queueCapacity must be >= 0")
	}
	if cfg.MaxBodyBytes < 0 {
		return errors.New("config: maxBodyBytes must be >= 0")
	}
	if cfg.RateLimitPerMinute < 0 {
		return errors.New("config: rateLimitPerMinute must be >= 0")
	}
	if _, err := ParseRequestTimeout(cfg.RequestTimeout); err != nil {
		return err
	}
	hasMinio := strings.TrimSpace(cfg.MinioEndpoint) != ""
	if hasMinio && strings.TrimSpace(cfg.MinioBucket) == "" {
		return errors.New("config: minioBucket is required when minioEndpoint is set")
	}
	return nil
}

// IsEnabled reports whether submissions are accepted; unset means enabled.
func (c FileConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ParseRequestTimeout parses the optional model request timeout.
func ParseRequestTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid requestTimeout duration: %w", err)
	}
	return dur, nil
}
