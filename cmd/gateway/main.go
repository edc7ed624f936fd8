package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ChrisWondeFro/vivint-gateway/internal/authsvc"
	"github.com/ChrisWondeFro/vivint-gateway/internal/config"
	"github.com/ChrisWondeFro/vivint-gateway/internal/httpapi"
	"github.com/ChrisWondeFro/vivint-gateway/internal/logging"
	"github.com/ChrisWondeFro/vivint-gateway/internal/service"
	"github.com/ChrisWondeFro/vivint-gateway/internal/session"
	"github.com/ChrisWondeFro/vivint-gateway/internal/store"
	"github.com/ChrisWondeFro/vivint-gateway/internal/wsrelay"
	"github.com/go-redis/redis/v8"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "vivint-gateway")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)
	sessions := store.NewSessions(kv)

	authSvc := authsvc.New(cfg, sessions)
	factory := session.New(cfg, authSvc, logger)
	relay := wsrelay.New(cfg, authSvc, factory, logger)

	authHandler := httpapi.NewAuthHandler(cfg, authSvc, sessions, logger)
	systemsHandler := httpapi.NewSystemsHandler(factory, relay, logger)
	router := httpapi.NewRouter(authHandler, systemsHandler, authSvc, logger)

	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server exited", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	shutdownErr := multierr.Combine(srv.Stop(shutdownCtx), redisClient.Close())
	if shutdownErr != nil {
		logger.Error("errors during shutdown", zap.Error(shutdownErr))
	}
}
