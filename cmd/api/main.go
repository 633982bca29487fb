package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"

	"github.com/go-weather-auth/internal/application/account"
	"github.com/go-weather-auth/internal/application/notification"
	"github.com/go-weather-auth/internal/application/weather"
	"github.com/go-weather-auth/internal/config"
	"github.com/go-weather-auth/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-weather-auth/internal/infrastructure/jwt"
	"github.com/go-weather-auth/internal/infrastructure/memory"
	"github.com/go-weather-auth/internal/infrastructure/openweather"
	redisinfra "github.com/go-weather-auth/internal/infrastructure/redis"
	"github.com/go-weather-auth/internal/infrastructure/smtp"
	"github.com/go-weather-auth/internal/infrastructure/sns"
	"github.com/go-weather-auth/internal/logger"
	"github.com/go-weather-auth/internal/pkg/password"
	"github.com/go-weather-auth/internal/pkg/resetcode"
	transporthttp "github.com/go-weather-auth/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}

	closeLog, err := logger.Init(logger.Options{
		Dev:       cfg.IsDev(),
		Level:     cfg.LogLevel,
		ErrorFile: cfg.LogFile,
		SentryDSN: cfg.SentryDSN,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closeLog()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	loadAWS := memoAWS(ctx, cfg)
	users, err := newUserStore(ctx, cfg, loadAWS)
	if err != nil {
		return err
	}

	tokens, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	mailer, err := newMailer(cfg, loadAWS)
	if err != nil {
		return err
	}

	var cache weather.Cache
	if cfg.Redis.Addr != "" {
		rdb, err := redisinfra.Connect(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("weather cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer rdb.Close()
			cache = redisinfra.NewWeatherCache(rdb, cfg.Weather.CacheTTL)
		}
	}

	deps := &transporthttp.Deps{
		Account: account.NewService(
			users,
			password.NewHasher(cfg.BcryptCost),
			tokens,
			resetcode.NewGenerator(),
			notification.NewService(mailer, cfg.OwnLink),
		),
		Weather: weather.NewService(openweather.NewClient(cfg.Weather), cache),
		Tokens:  tokens,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreDriver, "notifier", cfg.Mail.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// awsLoader resolves the shared AWS config on first use, so the memory store
// and smtp mailer never touch AWS.
type awsLoader func() (aws.Config, error)

func memoAWS(ctx context.Context, cfg *config.Config) awsLoader {
	var (
		once   sync.Once
		awsCfg aws.Config
		err    error
	)
	return func() (aws.Config, error) {
		once.Do(func() { awsCfg, err = dynamo.LoadAWSConfig(ctx, cfg) })
		return awsCfg, err
	}
}

func newUserStore(ctx context.Context, cfg *config.Config, loadAWS awsLoader) (account.UserStore, error) {
	if cfg.StoreDriver == "memory" {
		slog.Warn("using in-memory user store; data is lost on restart")
		return memory.NewUserRepo(), nil
	}
	awsCfg, err := loadAWS()
	if err != nil {
		return nil, err
	}
	client := dynamo.NewClient(awsCfg)
	dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
	return dynamo.NewUserRepo(client, cfg.DynamoTables.Users, cfg.DynamoTables.UserEmails), nil
}

func newMailer(cfg *config.Config, loadAWS awsLoader) (notification.Mailer, error) {
	switch cfg.Mail.Driver {
	case "sns":
		awsCfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		return sns.NewEmailSender(awsCfg, cfg.Mail.SNSTopicARN), nil
	case "log":
		return smtp.NewLogMailer(), nil
	default:
		return smtp.NewMailer(cfg.Mail), nil
	}
}
