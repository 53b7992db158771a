package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/community/config"
	"github.com/d60-Lab/community/internal/api"
	"github.com/d60-Lab/community/internal/api/handler"
	"github.com/d60-Lab/community/internal/cache"
	"github.com/d60-Lab/community/internal/repository"
	"github.com/d60-Lab/community/internal/search"
	"github.com/d60-Lab/community/internal/service"
	"github.com/d60-Lab/community/pkg/database"
	"github.com/d60-Lab/community/pkg/logger"
	"github.com/d60-Lab/community/pkg/tracing"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())
	if err := logger.Init(&cfg.Log); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	shutdownTracing := must(tracing.Init(ctx, &cfg.Trace))

	db := must(database.InitDB(cfg))
	rdb := must(cache.NewClient(&cfg.Redis))
	idx := must(search.NewBleveIndex(cfg.Search.IndexPath))

	viewCache := cache.NewViewCache(rdb, cfg.Counter.DedupTTL)
	postRepo := repository.NewPostRepository(db)
	wmRepo := repository.NewWatermarkRepository(db)

	notifier := service.NewNotifier()
	notifier.Register(service.NewIndexSyncListener(postRepo, idx))

	postSvc := service.NewPostService(db, notifier, repository.NewCommentRepository(), repository.NewLikeRepository())
	viewSvc := service.NewViewService(viewCache)
	flusher := service.NewViewFlusher(db, viewCache, cfg.Counter.ChunkSize)
	reindex := service.NewReindexJob(postRepo, wmRepo, idx, cfg.Sync.PageSize)

	// 冷启动水位预置（幂等，已存在时不动）：零值水位 = 首轮全量追平
	if err := wmRepo.Provision(ctx, cfg.Sync.JobName, time.Unix(0, 0)); err != nil {
		logger.Error("provision sync watermark", zap.Error(err))
		os.Exit(1)
	}

	sched := service.NewScheduler()
	sched.AddInterval("viewFlush", cfg.Counter.FlushInterval, flusher.Flush)
	sched.AddDaily(cfg.Sync.JobName, cfg.Sync.DailyHour, func(ctx context.Context) error {
		return reindex.Run(ctx, cfg.Sync.JobName)
	})
	sched.Start()

	h := handler.New(postSvc, viewSvc, postRepo, idx, sched, cfg.Sync.JobName)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.NewRouter(cfg, h),
	}
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := idx.Close(); err != nil {
		logger.Error("close search index", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Error("close redis", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("shutdown tracing", zap.Error(err))
	}
}
