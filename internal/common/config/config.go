package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for a service instance
type Config struct {
	Service    ServiceConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	JWT        JWTConfig
	PriceFeed  PriceFeedConfig
	Hypercerts HypercertsConfig
	Cache      CacheConfig
}

// ServiceConfig holds service identity and HTTP settings
type ServiceConfig struct {
	Name string
	Port string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig holds Kafka broker and consumer group settings
type KafkaConfig struct {
	Brokers []string
	GroupID string
}

// JWTConfig holds JWT verification settings for the public API
type JWTConfig struct {
	Secret string
}

// PriceFeedConfig holds settings for the external price oracle
type PriceFeedConfig struct {
	BaseURL string
	Timeout time.Duration
}

// HypercertsConfig holds settings for the hypercerts GraphQL API
type HypercertsConfig struct {
	GraphQLURL string
	Timeout    time.Duration
}

// CacheConfig holds report cache TTLs
type CacheConfig struct {
	ReportTTL time.Duration
}

// Load loads configuration for the given service from environment variables
func Load(serviceName string) (*Config, error) {
	prefix := strings.ToUpper(serviceName)

	cfg := &Config{
		Service: ServiceConfig{
			Name: serviceName,
			Port: getEnv(prefix+"_PORT", "8085"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "ecocertain_"+serviceName),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", serviceName+"-service"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		PriceFeed: PriceFeedConfig{
			BaseURL: getEnv("PRICE_FEED_URL", "https://app.ecocertain.xyz/api/price-conversion"),
			Timeout: getEnvAsDuration("PRICE_FEED_TIMEOUT", 5*time.Second),
		},
		Hypercerts: HypercertsConfig{
			GraphQLURL: getEnv("HYPERCERTS_GRAPHQL_URL", "https://api.hypercerts.org/v1/graphql"),
			Timeout:    getEnvAsDuration("HYPERCERTS_TIMEOUT", 5*time.Second),
		},
		Cache: CacheConfig{
			ReportTTL: getEnvAsDuration("REPORT_CACHE_TTL", 5*time.Minute),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr != "" {
		if duration, err := time.ParseDuration(valueStr); err == nil {
			return duration
		}
	}
	return defaultValue
}
