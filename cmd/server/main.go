package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/artfolio/backend/internal/cache"
	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/detection"
	"github.com/artfolio/backend/internal/email"
	"github.com/artfolio/backend/internal/handlers"
	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/metrics"
	"github.com/artfolio/backend/internal/middleware"
	"github.com/artfolio/backend/internal/search"
	"github.com/artfolio/backend/internal/storage"
	"github.com/artfolio/backend/internal/telemetry"
	"github.com/artfolio/backend/internal/util"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "artfolio-backend"

func main() {
	if err := godotenv.Load(); err != nil {
		// Not an error in production, env comes from the process there
		os.Stderr.WriteString("no .env file found, using system environment\n")
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("=== Artfolio backend starting ===")

	metrics.Initialize()

	tracerProvider, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  serviceName,
		Environment:  envOrDefault("ENVIRONMENT", "development"),
		OTLPEndpoint: envOrDefault("OTLP_ENDPOINT", "localhost:4318"),
		Enabled:      os.Getenv("TRACING_ENABLED") == "true",
		SamplingRate: envFloat("TRACING_SAMPLE_RATE", 1.0),
	})
	if err != nil {
		logger.FatalWithFields("Failed to initialize tracing", err)
	}
	if tracerProvider != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(ctx); err != nil {
				logger.WarnWithFields("Tracer shutdown failed", err)
			}
		}()
	}

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.FatalWithFields("JWT_SECRET environment variable is required", nil)
	}

	// The detection gate fronts two paid providers; its HTTP calls are
	// traced so provider latency shows up next to request spans.
	detectionCfg := detection.ConfigFromEnv()
	detectionCfg.HTTPClient = telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{
		ServiceName: "sightengine",
		Timeout:     30 * time.Second,
	})
	gate := detection.NewGate(detectionCfg)

	imageStore, err := storage.NewS3Storage(
		os.Getenv("AWS_REGION"),
		os.Getenv("AWS_BUCKET"),
		os.Getenv("CDN_BASE_URL"),
	)
	if err != nil {
		logger.FatalWithFields("Failed to initialize S3 storage", err)
	}
	if err := imageStore.CheckBucketAccess(context.Background()); err != nil {
		logger.WarnWithFields("S3 bucket access check failed, uploads will fail", err)
	}

	h := handlers.NewHandlers(gate, imageStore)

	// Redis, Elasticsearch and SES are optional; the API degrades
	// gracefully when any of them is absent
	redisClient, err := cache.NewRedisClient(
		envOrDefault("REDIS_HOST", "localhost"),
		envOrDefault("REDIS_PORT", "6379"),
		os.Getenv("REDIS_PASSWORD"),
	)
	if err != nil {
		logger.WarnWithFields("Redis unavailable, explore feed caching disabled", err)
	} else {
		h.SetRedisClient(redisClient)
		defer redisClient.Close()
	}

	searchClient, err := search.NewClient()
	if err != nil {
		logger.WarnWithFields("Elasticsearch unavailable, search endpoints disabled", err)
	} else {
		if err := searchClient.InitializeIndices(context.Background()); err != nil {
			logger.WarnWithFields("Failed to initialize search indices", err)
		}
		h.SetSearchClient(searchClient)

		reconciliation := search.NewReconciliationService(searchClient, 15*time.Minute)
		reconciliation.Start()
		defer reconciliation.Stop()
	}

	if fromEmail := os.Getenv("SES_FROM_EMAIL"); fromEmail != "" {
		emailService, err := email.NewEmailService(
			os.Getenv("AWS_REGION"),
			fromEmail,
			envOrDefault("SES_FROM_NAME", "Artfolio"),
			envOrDefault("APP_BASE_URL", "https://artfolio.app"),
		)
		if err != nil {
			logger.WarnWithFields("SES unavailable, email notifications disabled", err)
		} else {
			h.SetEmailService(emailService)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if tracerProvider != nil {
		r.Use(middleware.TracingMiddleware(serviceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitEnvList("CORS_ORIGINS", []string{"*"})
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		}
		if redisClient != nil {
			redisStatus := "ok"
			if err := redisClient.Ping(c.Request.Context()); err != nil {
				redisStatus = "unavailable"
			}
			status["redis"] = redisStatus
		}
		c.JSON(http.StatusOK, status)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit())
	{
		// Public browsing
		api.GET("/explore", h.Explore)
		api.GET("/search/works", middleware.RateLimitSearch(), h.SearchWorks)
		api.GET("/search/artists", middleware.RateLimitSearch(), h.SearchArtists)
		api.GET("/threads", h.ListThreads)
		api.GET("/threads/:slug", h.GetThread)
		api.GET("/works/:id", h.GetWork)
		api.GET("/works/:id/comments", h.GetComments)
		api.GET("/users/:id/works", h.ListUserWorks)

		authed := api.Group("")
		authed.Use(middleware.RequireAuth(jwtSecret))
		{
			// Pre-publish validation hits the detection providers directly
			validate := authed.Group("/validate")
			validate.Use(middleware.RateLimitDetection())
			{
				validate.POST("/image", h.ValidateImage)
				validate.POST("/text", h.ValidateText)
			}

			// Publishing also pays for detection calls
			authed.POST("/works", middleware.RateLimitDetection(), h.CreateWork)
			authed.POST("/works/:id/versions", middleware.RateLimitDetection(), h.UploadVersion)
			authed.DELETE("/works/:id", h.DeleteWork)

			authed.POST("/uploads", middleware.RateLimitUpload(), h.CreateUploadURL)

			authed.POST("/works/:id/comments", h.CreateComment)
			authed.PUT("/comments/:id", h.UpdateComment)
			authed.DELETE("/comments/:id", h.DeleteComment)

			authed.POST("/threads", h.CreateThread)

			notifications := authed.Group("/notifications")
			{
				notifications.GET("", h.GetNotifications)
				notifications.GET("/counts", h.GetNotificationCounts)
				notifications.POST("/seen", h.MarkNotificationsSeen)
				notifications.POST("/read", h.MarkAllNotificationsRead)
				notifications.POST("/:id/read", h.MarkNotificationRead)
			}
		}
	}

	port := envOrDefault("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("🎨 Artfolio backend listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("Server forced to shutdown", err)
	}

	logger.Log.Info("Server exited")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	return util.ParseFloat(os.Getenv(key), fallback)
}

func splitEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
