package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xhrome/foodbot/internal/bot"
	"github.com/xhrome/foodbot/internal/handler"
	"github.com/xhrome/foodbot/internal/repository"
	"github.com/xhrome/foodbot/internal/service"
	"github.com/xhrome/foodbot/pkg/config"
	"github.com/xhrome/foodbot/pkg/jobs"
	"github.com/xhrome/foodbot/pkg/logger"
	"github.com/xhrome/foodbot/pkg/storage"
)

const spoolTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load(os.Getenv("CREDENTIALS_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logr.Sugar().Fatalw("failed to authenticate with telegram", "error", err)
	}

	spool, err := storage.NewSpool(cfg.Remote.SpoolDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare spool directory", "error", err)
	}

	ftpDialer := storage.NewFTPDialer(cfg.FTP.Host, cfg.FTP.User, cfg.FTP.Password, cfg.FTP.DialTimeout, logr)
	dialer := service.DialerFunc(func(ctx context.Context) (service.StoreSession, error) {
		return ftpDialer.Open(ctx)
	})

	index := repository.NewPublishedIndex(
		cfg.Remote.IndexBaseURL,
		cfg.Remote.Dir+cfg.Remote.MenuJSONName,
		cfg.Remote.Dir+cfg.Remote.TableIndexName,
		15*time.Second,
	)

	metrics := service.NewMetricsService()
	indexSvc := service.NewIndexService(dialer, metrics, logr, service.IndexServiceConfig{
		RemoteDir:      cfg.Remote.Dir,
		MenuJSONName:   cfg.Remote.MenuJSONName,
		TableIndexName: cfg.Remote.TableIndexName,
		TableSuffix:    cfg.Remote.TableSuffix,
		TimeZone:       cfg.Remote.TimeZone,
	})
	uploadSvc := service.NewUploadService(
		dialer,
		bot.NewFetcher(api),
		spool,
		service.NewDuplicateChecker(index),
		indexSvc,
		metrics,
		logr,
		service.UploadServiceConfig{
			RemoteDir:    cfg.Remote.Dir,
			MenuBaseName: cfg.Remote.MenuBaseName,
		},
	)
	statusSvc := service.NewStatusService(index)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := jobs.NewQueue("updates", jobs.QueueConfig{
		Workers:    cfg.Workers.Count,
		BufferSize: cfg.Workers.BufferSize,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	go sweepSpool(ctx, spool, logr)
	go serveOps(cfg, metrics, logr)

	b := bot.New(api, uploadSvc, indexSvc, statusSvc, queue, logr, bot.Config{
		AllowedUsers: cfg.Telegram.AllowedUsers,
		MenuPageURL:  cfg.Pages.MenuPage,
		TablePageURL: cfg.Pages.TablePage,
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.PollTimeout
	updates := api.GetUpdatesChan(u)

	logr.Sugar().Infow("bot started", "account", api.Self.UserName, "env", cfg.Env)
	b.Run(ctx, updates)
	logr.Info("bot stopped")
}

// sweepSpool removes attachment files left behind by crashed attempts.
func sweepSpool(ctx context.Context, spool *storage.Spool, logr *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := spool.CleanupOlderThan(spoolTTL)
			if err != nil {
				logr.Warn("spool cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				logr.Info("spool cleaned", zap.Int("files", len(deleted)))
			}
		}
	}
}

func serveOps(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(logr))

	ops := handler.NewOpsHandler(metrics)
	r.GET("/health", ops.Health)
	r.GET("/metrics", ops.Prometheus)

	addr := fmt.Sprintf(":%d", cfg.OpsPort)
	logr.Sugar().Infow("ops server starting", "addr", addr)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Errorw("ops server failed", "error", err)
	}
}
