package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/records-panel/api/swagger"
	"github.com/noah-isme/records-panel/internal/handler"
	"github.com/noah-isme/records-panel/internal/middleware"
	"github.com/noah-isme/records-panel/internal/repository"
	"github.com/noah-isme/records-panel/internal/service"
	"github.com/noah-isme/records-panel/pkg/cache"
	"github.com/noah-isme/records-panel/pkg/config"
	"github.com/noah-isme/records-panel/pkg/database"
	"github.com/noah-isme/records-panel/pkg/events"
	"github.com/noah-isme/records-panel/pkg/jobs"
	"github.com/noah-isme/records-panel/pkg/logger"
	corsmiddleware "github.com/noah-isme/records-panel/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/records-panel/pkg/middleware/requestid"
	"github.com/noah-isme/records-panel/web"
)

// @title Records Panel
// @version 0.1.0
// @description Admin panel over the students, teachers and courses REST backend
// @BasePath /
// @schemes http

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()
	backend := repository.NewBackendClient(cfg.Backend, metrics, logr)
	checks := map[string]handler.Pinger{"backend": backend}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis unavailable", "error", err)
	}
	var sessionStore service.SessionStore = repository.NewMemorySessionRepository()
	var cacheSvc *service.CacheService
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		sessionStore = repository.NewRedisSessionRepository(redisClient)
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Taxonomy.CacheTTL, logr, true)
		checks["redis"] = redisPinger{redisClient}
	}

	var audit service.AuditWriter
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("postgres unavailable", "error", err)
		}
		defer db.Close() //nolint:errcheck
		audit = repository.NewAuditRepository(db)
		checks["postgres"] = pingFunc(db.PingContext)
	}

	var publisher service.EventPublisher
	if cfg.Events.Enabled {
		producer, err := events.NewProducer(cfg.Events)
		if err != nil {
			logr.Sugar().Fatalw("kafka producer misconfigured", "error", err)
		}
		defer producer.Close() //nolint:errcheck
		publisher = producer
	}

	dispatcher := service.NewMutationDispatcher(audit, publisher, metrics, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
	}, logr)
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	dispatcher.Start(rootCtx)

	sessions, err := service.NewSessionService(sessionStore, validator.New(), logr, service.SessionConfig{
		Secret:            cfg.Session.Secret,
		TTL:               cfg.Session.TTL,
		AdminUsername:     cfg.Session.AdminUsername,
		AdminPasswordHash: cfg.Session.AdminPasswordHash,
		AdminPassword:     cfg.Session.AdminPassword,
	})
	if err != nil {
		logr.Sugar().Fatalw("session service misconfigured", "error", err)
	}

	registry := service.NewPanelRegistry(service.PanelDeps{
		Backend:             backend,
		Taxonomy:            service.NewTaxonomyService(backend, cacheSvc, cfg.Taxonomy.CacheTTL, logr),
		Recorder:            dispatcher,
		SearchDebounce:      cfg.Panel.SearchDebounce,
		TeacherOptionsLimit: cfg.Backend.TeacherOptionsLimit,
		ChartLimit:          cfg.Backend.ChartLimit,
		Logger:              logr,
	}, cfg.Panel.SSEBuffer, metrics)

	tmpl, err := web.Templates()
	if err != nil {
		logr.Sugar().Fatalw("failed to parse templates", "error", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", web.Static())

	handler.RegisterRoutes(r, handler.RouterDeps{
		Auth: handler.NewAuthHandler(sessions, registry, handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.SecureCookie,
		}, logr),
		Panel:   handler.NewPanelHandler(registry, logr),
		Metrics: handler.NewMetricsHandler(metrics, checks),
		Session: middleware.Session(sessions, cfg.Session.CookieName),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	// close panels first so open event streams return and Shutdown can finish
	registry.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Warn("server shutdown", zap.Error(err))
	}
	dispatcher.Stop()
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
