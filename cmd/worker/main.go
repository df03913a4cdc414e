package main //worker

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"video-processor/internal/domain/repositories"
	"video-processor/internal/infrastructure/db"
	"video-processor/internal/infrastructure/processor"
	"video-processor/internal/infrastructure/queue"
	infra_repo "video-processor/internal/infrastructure/repositories"
	"video-processor/internal/infrastructure/storage"
	"video-processor/internal/pkg/config"
	"video-processor/internal/pkg/logger"
	"video-processor/internal/usecases"
	consts "video-processor/pkg/constants"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zlog, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer zlog.Sync()
	zlog = zlog.With(zap.String("component", "worker"))

	database, err := db.NewPostgresDB(cfg.Database)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
	if err != nil {
		zlog.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	jobQueue := queue.NewRedisQueue(redis.NewClient(redisOpts), cfg.Queue.Name,
		queue.WithLease(cfg.Queue.Lease),
		queue.WithMaxAttempts(cfg.Queue.MaxAttempts),
	)

	guard, err := storage.NewGuard(cfg.Storage.StaticDir, cfg.Storage.UploadsDir)
	if err != nil {
		zlog.Fatal("resolve working directory", zap.Error(err))
	}

	var mirror repositories.VariantMirror
	if cfg.Mirror.Bucket != "" {
		s3Mirror, err := storage.NewS3Mirror(context.Background(), cfg.Mirror.Bucket, cfg.Mirror.Region)
		if err != nil {
			zlog.Fatal("s3 mirror setup failed", zap.Error(err))
		}
		mirror = s3Mirror
	}

	runner := processor.NewCommandRunner()
	var poster processor.PosterGenerator
	if cfg.Poster.Enabled {
		poster = processor.NewPoster(cfg.Transcode.FFmpegBin, runner, processor.ResizeOption{Width: cfg.Poster.Width})
	}

	transcodeService := usecases.NewTranscodeService(usecases.TranscodeDeps{
		Documents:   infra_repo.NewVideoRepository(database),
		Collections: repositories.SingleCollection(consts.DefaultCollection, cfg.Storage.MediaDir),
		Presets:     cfg.Presets,
		Prober:      processor.NewFFprobe(cfg.Transcode.FFprobeBin, runner),
		Transcoder:  processor.NewFFmpeg(cfg.Transcode.FFmpegBin, runner),
		Poster:      poster,
		Files:       storage.NewLocalStorage(),
		Mirror:      mirror,
		Guard:       guard,
		DefaultCRF:  cfg.Transcode.DefaultCRF,
		Logger:      zlog,
	})
	cleanupService := usecases.NewCleanupService(jobQueue, zlog)

	pool := queue.NewWorkerPool(queue.PoolConfig{
		Workers:   cfg.Queue.Concurrency,
		Heartbeat: cfg.Queue.Lease / 3,
	}, jobQueue, transcodeService, zlog)

	// Expired leases belong to workers that died mid-job
	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc("*/30 * * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := cleanupService.ReapExpiredJobs(ctx); err != nil {
			zlog.Error("lease reaper failed", zap.Error(err))
		}
	}); err != nil {
		zlog.Fatal("schedule lease reaper", zap.Error(err))
	}
	scheduler.Start()

	var metricsServer *http.Server
	if cfg.Queue.WorkerMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.Queue.WorkerMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zlog.Error("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	zlog.Info("worker started",
		zap.Int("concurrency", cfg.Queue.Concurrency),
		zap.String("queue", jobQueue.Name()),
		zap.Duration("lease", jobQueue.Lease()),
		zap.Bool("poster", cfg.Poster.Enabled),
		zap.Bool("mirror", mirror != nil),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutdown signal received, draining workers")

	pool.Shutdown()
	<-scheduler.Stop().Done()
	if metricsServer != nil {
		ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(ctxShut)
		cancel()
	}
	if err := jobQueue.Close(); err != nil {
		zlog.Warn("redis close failed", zap.Error(err))
	}
	zlog.Info("worker stopped")
}
