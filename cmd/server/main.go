package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "video-processor/docs"

	"video-processor/internal/delivery/http/handlers"
	"video-processor/internal/delivery/http/routers"
	"video-processor/internal/domain/repositories"
	"video-processor/internal/infrastructure/db"
	"video-processor/internal/infrastructure/queue"
	infra_repo "video-processor/internal/infrastructure/repositories"
	"video-processor/internal/infrastructure/storage"
	"video-processor/internal/pkg/config"
	"video-processor/internal/pkg/logger"
	"video-processor/internal/usecases"
	consts "video-processor/pkg/constants"

	_ "video-processor/migrations"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// @title          Video Processor API
// @version        1.0
// @description    Queues ffmpeg transcodes of stored videos and manages their variants.
// @host           localhost:3000
// @BasePath       /api
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
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

	database, err := db.NewPostgresDB(cfg.Database)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := db.RunMigrations(context.Background(), database, zlog); err != nil {
			zlog.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
	if err != nil {
		zlog.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	jobQueue := queue.NewRedisQueue(redis.NewClient(redisOpts), cfg.Queue.Name,
		queue.WithLease(cfg.Queue.Lease),
		queue.WithMaxAttempts(cfg.Queue.MaxAttempts),
	)
	defer jobQueue.Close()

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

	// Repositories & Services
	videoService := usecases.NewVideoService(usecases.VideoServiceDeps{
		Documents:    infra_repo.NewVideoRepository(database),
		Collections:  repositories.SingleCollection(consts.DefaultCollection, cfg.Storage.MediaDir),
		Queue:        jobQueue,
		Presets:      cfg.Presets,
		Guard:        guard,
		Files:        storage.NewLocalStorage(),
		Mirror:       mirror,
		Access:       usecases.NewAccessControl(cfg.Auth.APIToken),
		Hooks:        cfg.Hooks,
		CompletedTTL: cfg.Queue.CompletedTTL,
		Logger:       zlog,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	// Swagger UI
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Stored files, so playback URLs resolve against this server
	app.Static("/"+consts.DefaultCollection, cfg.Storage.MediaDir)

	// Routes
	routers.SetupVideoRoutes(app, cfg.Server.APIPrefix, handlers.NewVideoHandler(videoService, zlog))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": consts.StatusOK})
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zlog.Info("server starting", zap.String("addr", addr), zap.Strings("presets", cfg.Presets.Names()))

	// Graceful shutdown
	go func() {
		if err := app.Listen(addr); err != nil {
			zlog.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutdown signal received, stopping server")

	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctxShut); err != nil {
		zlog.Error("server did not shut down cleanly", zap.Error(err))
		return
	}
	zlog.Info("server stopped")
}
