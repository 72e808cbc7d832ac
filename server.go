package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/handlers"
	"github.com/hiflogistics/freight_backend/middlewares"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/workflow"
	"github.com/sirupsen/logrus"
)

func corsMiddleware() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if config.IsProduction() {
		corsConfig.AllowOrigins = config.CorsAllowedOrigins()
		if len(corsConfig.AllowOrigins) == 0 {
			// deny all unless an allowlist is configured
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", middlewares.CorrelationIdHeader, middlewares.ActorHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationIdHeader)
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return cors.New(corsConfig)
}

// rateLimitMiddleware limits per client IP once redis is connected. Requests
// pass through while redis is unavailable.
func rateLimitMiddleware() gin.HandlerFunc {
	enabled, limit, window := config.RateLimit()
	return func(c *gin.Context) {
		rdb := config.GetRedisDB()
		if !enabled || rdb == nil {
			c.Next()
			return
		}
		middlewares.NewRateLimiter(rdb, limit, window).Middleware()(c)
	}
}

func main() {
	port := config.Port()
	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Listen first; the readiness gate answers 503 until the database is up.
	r := handlers.NewRouter(logger, corsMiddleware(), rateLimitMiddleware())
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !config.SkipMigrations() {
		if err := models.MigrateTable(); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	if err := config.CheckOutboxMode(); err != nil {
		logger.WithFields(logrus.Fields{"field": "outbox"}).Fatal(err.Error())
	}
	workersCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if config.OutboxDispatcherEnabled() {
		topicCtx, cancelTopic := context.WithTimeout(workersCtx, 30*time.Second)
		if err := config.EnsurePubSubTopic(topicCtx); err != nil {
			config.LogError(logger, "main", "main", "ensure pubsub topic", nil, err)
		}
		cancelTopic()
		go workflow.NewOutboxDispatcher(db, logger, config.PubSubPublisher()).Run(workersCtx)
	}
	if config.OutboxDirectProcessing() {
		go workflow.NewDirectProcessor(db, logger).Run(workersCtx)
	}

	logger.WithFields(logrus.Fields{
		"field":             "http",
		"port":              port,
		"outbox_dispatcher": config.OutboxDispatcherEnabled(),
		"direct_processing": config.OutboxDirectProcessing(),
	}).Info("server started")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// stop workers before draining requests
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
