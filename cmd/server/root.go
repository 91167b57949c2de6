package main

import (
	"fmt"
	"os"

	"comazon/internal/config"

	"github.com/spf13/cobra"
)

var (
	port      string
	grpcPort  string
	dbDriver  string
	dbURL     string
	redisHost string
	amqpURL   string
	exchange  string
)

var rootCmd = &cobra.Command{
	Use:   "comazon",
	Short: "Store API: users, products and orders with atomic stock reservation",
	Long: `comazon serves the store HTTP API backed by MySQL or PostgreSQL.

Configuration comes from the environment (PORT, DB_DRIVER, DATABASE_URL,
REDIS_HOST, RABBITMQ_URL, ...); flags override the environment.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&port, "port", "", "HTTP listen port")
	rootCmd.PersistentFlags().StringVar(&grpcPort, "grpc-port", "", "gRPC health listen port")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "Database driver: mysql or postgres")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL / DSN")
	rootCmd.PersistentFlags().StringVar(&redisHost, "redis-host", "", "Redis host for the product cache and idempotency keys")
	rootCmd.PersistentFlags().StringVar(&amqpURL, "amqp-url", "", "RabbitMQ URL for order events")
	rootCmd.PersistentFlags().StringVar(&exchange, "exchange", "", "RabbitMQ topic exchange")

	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// loadConfig reads the environment and applies any flag the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()
	flags := cmd.Flags()

	overrides := []struct {
		name string
		dst  *string
		val  string
	}{
		{"port", &cfg.Port, port},
		{"grpc-port", &cfg.GRPCPort, grpcPort},
		{"db-driver", &cfg.DBDriver, dbDriver},
		{"db", &cfg.DatabaseURL, dbURL},
		{"redis-host", &cfg.RedisHost, redisHost},
		{"amqp-url", &cfg.RabbitMQURL, amqpURL},
		{"exchange", &cfg.RabbitMQExchange, exchange},
	}
	for _, o := range overrides {
		if flags.Changed(o.name) {
			*o.dst = o.val
		}
	}

	// Load derives a MySQL DSN for the env driver; redo it when the flag
	// picked a different driver.
	if flags.Changed("db-driver") && !flags.Changed("db") {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" && cfg.DBDriver == config.DriverMySQL {
			cfg.DatabaseURL = config.MySQLDSNFromEnv()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
