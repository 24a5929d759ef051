package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Kafka    KafkaConfig
	Database DatabaseConfig
	Redis    RedisConfig
	PSP      PSPConfig
	Commerce CommerceConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type KafkaConfig struct {
	Brokers  []string
	GroupID  string
	MockMode bool
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
}

// PSPConfig configures the payment service provider API client.
type PSPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// CommerceConfig configures the commerce backend API client.
type CommerceConfig struct {
	BaseURL    string
	ProjectKey string
	AuthToken  string
	Timeout    time.Duration
	MaxRetries int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", ":8085"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:  strings.Split(getEnv("KAFKA_BROKERS", "localhost:29092"), ","),
			GroupID:  getEnv("KAFKA_GROUP_ID", "payment-reconciler"),
			MockMode: getBool("KAFKA_MOCK_MODE", true),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "3306"),
			Username:     getEnv("DB_USER", "root"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "reconciler"),
			MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDuration("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		PSP: PSPConfig{
			BaseURL: getEnv("PSP_BASE_URL", "https://api.psp.example.com/v2"),
			APIKey:  getEnv("PSP_API_KEY", ""),
			Timeout: getDuration("PSP_TIMEOUT", 10*time.Second),
		},
		Commerce: CommerceConfig{
			BaseURL:    getEnv("COMMERCE_BASE_URL", "https://api.commerce.example.com"),
			ProjectKey: getEnv("COMMERCE_PROJECT_KEY", ""),
			AuthToken:  getEnv("COMMERCE_AUTH_TOKEN", ""),
			Timeout:    getDuration("COMMERCE_TIMEOUT", 10*time.Second),
			MaxRetries: getInt("COMMERCE_MAX_RETRIES", 2),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
