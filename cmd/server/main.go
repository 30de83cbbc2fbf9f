package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clicktally/clicktally/config"
	appmodel "github.com/clicktally/clicktally/internal/app/model"
	apprepository "github.com/clicktally/clicktally/internal/app/repository"
	appserver "github.com/clicktally/clicktally/internal/app/server"
	appservice "github.com/clicktally/clicktally/internal/app/service"
	"github.com/clicktally/clicktally/internal/infra/logger"
	infraPostgres "github.com/clicktally/clicktally/internal/infra/postgres"
	infraPrometheus "github.com/clicktally/clicktally/internal/infra/prometheus"
	infraRedis "github.com/clicktally/clicktally/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("admin_user", cfg.Admin.Username),
	)
	if cfg.Admin.SessionSecret == config.DefaultSessionSecret {
		log.Warn("SESSION_SECRET is not set; using the built-in development secret")
	}

	// A storage init failure here is fatal: the server must not take traffic
	// without its table.
	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.ClickEvent{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	clickRepo := apprepository.NewClickEventRepository(gormDB)
	sessionStore := apprepository.NewRedisSessionStore(redisClient)

	authService := appservice.NewAuthService(
		appservice.Credentials{
			Username: cfg.Admin.Username,
			Password: cfg.Admin.Password,
		},
		sessionStore,
		[]byte(cfg.Admin.SessionSecret),
	)
	clickService := appservice.NewClickService(clickRepo)
	reportService := appservice.NewReportService(clickRepo, appservice.DefaultUnitValue)

	server := appserver.New(appserver.Dependencies{
		Logger:   log,
		Postgres: pool,
		Auth:     authService,
		Clicks:   clickService,
		Reports:  reportService,
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting HTTP server", zap.String("addr", addr))
	if err := server.Listen(addr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
