package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Config struct {
	Port     string
	GRPCPort string
	GinMode  string

	DBDriver    string
	DatabaseURL string

	RedisHost      string
	CacheTTL       time.Duration
	WarmupProducts int

	RabbitMQURL      string
	RabbitMQExchange string
}

func Load() *Config {
	cfg := &Config{
		Port:             getenv("PORT", "8080"),
		GRPCPort:         getenv("GRPC_PORT", "9090"),
		GinMode:          getenv("GIN_MODE", "release"),
		DBDriver:         getenv("DB_DRIVER", DriverMySQL),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisHost:        os.Getenv("REDIS_HOST"),
		CacheTTL:         time.Minute,
		WarmupProducts:   20,
		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange: getenv("RABBITMQ_EXCHANGE", "store.exchange"),
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CacheTTL = d
		}
	}
	if v := os.Getenv("WARMUP_PRODUCTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.WarmupProducts = n
		}
	}

	if cfg.DatabaseURL == "" && cfg.DBDriver == DriverMySQL {
		cfg.DatabaseURL = MySQLDSNFromEnv()
	}

	return cfg
}

// MySQLDSNFromEnv builds a go-sql-driver DSN from the MYSQL_* variables.
func MySQLDSNFromEnv() string {
	user := getenv("MYSQL_USER", "root")
	pass := os.Getenv("MYSQL_PASSWORD")
	host := getenv("MYSQL_HOST", "localhost")
	port := getenv("MYSQL_PORT", "3306")
	dbname := getenv("MYSQL_DATABASE", "comazon")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", user, pass, host, port, dbname)
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url is required for driver %s", c.DBDriver)
	}
	if c.Port == "" {
		return fmt.Errorf("http port is required")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
