package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Business BusinessConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// DataConfig locates the flat record files shared with the administrative
// tooling.
type DataConfig struct {
	Dir string
}

// DatabaseConfig configures the optional Postgres audit mirror. Empty URL
// disables it.
type DatabaseConfig struct {
	URL string
}

// RedisConfig configures the optional catalog summary cache. Empty Addr
// disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig configures the optional event producer. Empty broker list
// disables it.
type KafkaConfig struct {
	Brokers     []string
	TopicEvents string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
	PrometheusPort string
}

type BusinessConfig struct {
	WarrantyDays    int
	SummaryCacheTTL int
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	warrantyDays, _ := strconv.Atoi(getEnv("WARRANTY_DAYS", "25"))
	summaryTTL, _ := strconv.Atoi(getEnv("SUMMARY_CACHE_TTL_SECONDS", "30"))

	var brokers []string
	if raw := getEnv("KAFKA_BROKERS", ""); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Data: DataConfig{
			Dir: getEnv("DATA_DIR", "./data"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:     brokers,
			TopicEvents: getEnv("KAFKA_TOPIC_EVENTS", "storefront-events"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			PrometheusPort: getEnv("PROMETHEUS_PORT", "9090"),
		},
		Business: BusinessConfig{
			WarrantyDays:    warrantyDays,
			SummaryCacheTTL: summaryTTL,
		},
	}

	log.Printf("Config loaded: env=%s, port=%s, data_dir=%s", cfg.Server.Env, cfg.Server.Port, cfg.Data.Dir)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
