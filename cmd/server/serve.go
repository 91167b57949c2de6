package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "comazon/internal/controllers/http"
	"comazon/internal/infra/cache"
	"comazon/internal/infra/database"
	"comazon/internal/infra/grpchealth"
	"comazon/internal/infra/rabbitmq"
	"comazon/internal/repository/gormrepo"
	"comazon/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthCheckInterval = 15 * time.Second
	warmupDelay         = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: connect: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}

	userRepo := gormrepo.NewUserRepository(db)
	productRepo := gormrepo.NewProductRepository(db)
	orderRepo := gormrepo.NewOrderRepository(db)

	var publisher rabbitmq.PublisherInterface = rabbitmq.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return fmt.Errorf("publisher: init: %w", err)
		}
		defer p.Close()
		publisher = p
	} else {
		log.Println("RABBITMQ_URL not set, order events are dropped")
	}

	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, publisher)
	productService := services.NewProductService(productRepo)
	userService := services.NewUserService(userRepo, productRepo)

	dbCheck := func(ctx context.Context) error { return database.Ping(ctx, db) }
	httpChecks := []httpapi.HealthCheck{{Name: "database", Check: dbCheck}}
	grpcChecks := []grpchealth.Checker{dbCheck}

	if cfg.RedisHost != "" {
		redisClient := cache.NewClient(cfg.RedisHost)
		defer redisClient.Close()

		rc := cache.NewRedisCache(redisClient, cfg.CacheTTL)
		productService.SetCache(rc)
		orderService.SetCache(rc)
		orderService.SetIdempotencyStore(rc)

		httpChecks = append(httpChecks, httpapi.HealthCheck{Name: "redis", Check: rc.Ping})
		grpcChecks = append(grpcChecks, rc.Ping)

		go func() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(warmupDelay):
			}
			if err := productService.WarmupProductCache(ctx, cfg.WarmupProducts); err != nil {
				log.Printf("Failed to warm up cache: %v", err)
			}
		}()
	} else {
		log.Println("REDIS_HOST not set, product cache and idempotency keys disabled")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	handler := httpapi.NewHandler(userService, productService, orderService, httpChecks...)
	if err := handler.RegisterRoutes(r); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting store API on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return err
		}
		hs := grpchealth.New(grpcChecks...)
		g.Go(func() error {
			return hs.Serve(gctx, lis, healthCheckInterval)
		})
	}

	err = g.Wait()
	orderService.Drain()
	log.Println("Server stopped")
	return err
}
