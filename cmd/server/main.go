package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"onebite/internal/config"
	"onebite/internal/db"
	"onebite/internal/handlers"
	"onebite/internal/logger"
	"onebite/internal/router"
	"onebite/internal/services"
	"onebite/internal/store"
	"onebite/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogDev); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("server exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := openGateway(cfg)
	if err != nil {
		return err
	}

	// 发帖计数
	var counters services.CounterStore
	switch cfg.RateBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		counters = services.NewRedisCounters(rdb, cfg.RedisKey)
	default:
		counters = services.NewMemoryCounters()
	}
	limiter := services.NewRateLimiter(cfg.PostLimit, counters)

	// 载入历史数据，读不出来就拒绝启动
	st := store.New()
	loaded, err := services.LoadState(ctx, gateway, st, limiter, cfg.RateBackend != "redis")
	if err != nil {
		return err
	}
	logger.Info("data loaded", zap.Int("posts", loaded))

	// 审核
	llm := services.NewLLMService(services.LLMConfig{
		BaseURL: cfg.LLMBaseURL,
		Token:   cfg.LLMToken,
		Model:   cfg.LLMModel,
		RPS:     cfg.LLMRPS,
		Burst:   cfg.LLMBurst,
	})
	if cfg.LLMBaseURL == "" {
		logger.Warn("LLM_BASE_URL not set, every evaluable text will be rejected")
	}
	verdicts, err := utils.NewTTLCache[string, services.Verdict](cfg.VerdictCacheSize, cfg.VerdictCacheTTL)
	if err != nil {
		return fmt.Errorf("create verdict cache: %w", err)
	}
	pipeline := services.NewModerationPipeline(
		services.NewHeuristicFilter(services.ModerationConfig{
			MaxLength:    cfg.MaxLength,
			SpecialRatio: cfg.SpecialRatio,
			SpecialChars: services.DefaultSpecialChars,
		}),
		services.NewClassifierClient(llm, cfg.LLMTimeout, verdicts),
	)

	persister := services.NewPersister(gateway, st, limiter)
	board := services.NewBoardService(st, limiter, pipeline, persister)

	// 每日清零
	scheduler := services.NewResetScheduler(limiter, persister, cfg.ResetHour, cfg.ResetMinute)
	schedulerDone := scheduler.Start(ctx)

	gin.SetMode(cfg.GinMode)
	engine, err := router.New(router.Options{
		TemplatesDir:   cfg.TemplatesDir,
		StaticDir:      cfg.StaticDir,
		MaxInflight:    cfg.MaxInflight,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, router.Handlers{
		Board:  handlers.NewBoardHandler(board),
		Upload: handlers.NewUploadHandler(services.NewLocalImageStore(cfg.UploadDir, "/static/uploads", cfg.MaxUploadBytes)),
		Chat:   handlers.NewChatHandler(services.NewChatService(llm, cfg.LLMTimeout)),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	stop()
	<-schedulerDone

	// 退出前再存一次
	return persister.Persist(shutdownCtx)
}

func openGateway(cfg *config.Config) (services.Gateway, error) {
	switch cfg.StorageDriver {
	case "postgres":
		conn, err := db.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return db.NewGormGateway(conn), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		conn, err := db.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return db.NewGormGateway(conn), nil
	default:
		return db.NewJSONFileGateway(cfg.DataDir), nil
	}
}
