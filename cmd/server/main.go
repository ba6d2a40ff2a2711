package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/handlers"
	"yatube/internal/logging"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/router"
	"yatube/internal/services"
	"yatube/internal/utils"
	"yatube/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	conn, err := db.Open(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}

	images, mediaRoot, err := newImageStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialise image storage")
	}
	pageCache := newPageCache(ctx, cfg, log)

	templates, err := web.Templates(cfg.TemplatesDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to open templates")
	}
	renderer, err := web.NewRenderer(templates, web.FuncMap(images.URL))
	if err != nil {
		log.WithError(err).Fatal("Failed to parse templates")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	posts := repository.NewPostRepository(conn)
	deps := handlers.Deps{
		Feed:           services.NewFeedService(posts),
		Follows:        services.NewFollowService(repository.NewFollowRepository(conn), log),
		Users:          repository.NewUserRepository(conn),
		Groups:         repository.NewGroupRepository(conn),
		Posts:          posts,
		Comments:       repository.NewCommentRepository(conn),
		Images:         images,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		Log:            log,
	}

	r := router.New(router.Options{
		Deps:          deps,
		Renderer:      renderer,
		SessionSecret: cfg.SessionSecret,
		PageCache:     pageCache,
		IndexCacheTTL: cfg.IndexCacheTTL,
		MediaRoot:     mediaRoot,
		MediaURL:      cfg.MediaURL,
		Metrics:       middleware.NewMetrics(registry),
		Log:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Yatube server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// newImageStore returns the configured store and, for local storage, the
// directory to serve under MEDIA_URL.
func newImageStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (services.ImageStore, string, error) {
	if cfg.StorageBackend == "minio" {
		store, err := services.NewMinIOStore(ctx, services.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
			PublicURL: cfg.MinIOPublicURL,
		}, log)
		return store, "", err
	}
	store, err := services.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	return store, cfg.MediaRoot, err
}

// newPageCache prefers Redis when REDIS_URL is set and reachable, otherwise
// the in-process LRU.
func newPageCache(ctx context.Context, cfg *config.Config, log *logrus.Logger) utils.Cache {
	if cfg.RedisURL == "" {
		return utils.GetCache()
	}

	client, err := utils.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("Invalid REDIS_URL, using in-process page cache")
		return utils.GetCache()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("Redis unreachable, using in-process page cache")
		return utils.GetCache()
	}
	log.Info("Redis connected successfully")
	return utils.NewRedisCache(client, "yatube:")
}
