package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/adityaprs/klinik-auth/internal/config"
	"github.com/adityaprs/klinik-auth/internal/db"
	"github.com/adityaprs/klinik-auth/internal/es"
	"github.com/adityaprs/klinik-auth/internal/events"
	"github.com/adityaprs/klinik-auth/internal/httpserver"
	"github.com/adityaprs/klinik-auth/internal/logging"
	"github.com/adityaprs/klinik-auth/internal/metrics"
	"github.com/adityaprs/klinik-auth/internal/middleware"
	"github.com/adityaprs/klinik-auth/internal/repo"
	"github.com/adityaprs/klinik-auth/internal/service"
	"github.com/adityaprs/klinik-auth/internal/service/search"
)

const userIndex = "users"

func main() {
	cfg := config.Load()
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "JWT_REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)
	ctx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	store := &repo.GormRepo{DB: gdb}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
	} else {
		logger.Info("KAFKA_BROKERS unset, event publishing disabled")
	}

	var indexer service.ProfileIndexer
	userHTTP := &httpserver.UserHTTP{SearchIndex: userIndex}
	if cfg.ESURL != "" {
		client, err := es.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		indexer = &search.ESIndexer{ES: client, Index: userIndex}
		userHTTP.ES = client
	} else {
		logger.Info("ES_URL unset, user directory search disabled")
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	var pub service.Publisher
	if producer != nil {
		pub = producer
	}

	authSvc := &service.AuthService{
		Store:         store,
		JWTSecret:     cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Metrics:       collector,
		Producer:      pub,
		EventsTopic:   cfg.KafkaEventsTopic,
	}
	userSvc := &service.UserService{
		Store:       store,
		Producer:    pub,
		EventsTopic: cfg.KafkaEventsTopic,
		Indexer:     indexer,
	}
	userHTTP.Svc = userSvc

	// Seed the admin account before the server accepts requests.
	bootstrap := &service.AdminBootstrap{
		Store:       store,
		Email:       cfg.AdminEmail,
		Password:    cfg.AdminPassword,
		Name:        cfg.AdminName,
		Disabled:    cfg.DisableAdminSeed,
		Producer:    pub,
		EventsTopic: cfg.KafkaEventsTopic,
	}
	bootstrap.Run(ctx)

	var consumer *events.OCRConsumer
	if len(cfg.KafkaBrokers) > 0 {
		consumer = events.NewOCRConsumer(cfg.KafkaBrokers, cfg.KafkaOCRTopic, "klinik-auth", userSvc)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("ocr consumer stopped", "error", err)
			}
		}()
	}

	limiter := middleware.NewLoginRateLimiter(rate.Limit(10.0/60.0), 10)

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), logger)))
			return next(c)
		}
	})

	httpserver.Register(e, &httpserver.Deps{
		Auth:         &httpserver.AuthHTTP{Svc: authSvc},
		Users:        userHTTP,
		Guard:        middleware.NewAuthGuard(cfg.JWTSecret, cfg.RefreshSecret),
		LoginLimiter: limiter,
		Gatherer:     reg,
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	limiter.Stop()

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Printf("consumer close error: %v", err)
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	logger.Info("shutdown complete")
}
