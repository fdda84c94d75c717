package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"membertrack/internal/attendance"
	"membertrack/internal/auth"
	"membertrack/internal/config"
	"membertrack/internal/httpapi"
	"membertrack/internal/httpmiddleware"
	"membertrack/internal/member"
	"membertrack/internal/storage"
	"membertrack/internal/store"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	if !redisClient.Healthy(context.Background()) {
		log.Printf("warning: redis not reachable, session revocation disabled")
	}

	// Cloud image store (nil when not configured; uploads then go to disk)
	var cloud *storage.CloudClient
	if cfg.CloudName != "" && cfg.CloudAPIKey != "" && cfg.CloudAPISecret != "" {
		cloud = storage.NewCloudClient(cfg.CloudName, cfg.CloudAPIKey, cfg.CloudAPISecret, cfg.CloudFolder)
		log.Println("cloud image store configured:", cfg.CloudName)
	} else {
		log.Println("cloud image store not configured, using local uploads directory")
	}
	uploader := storage.NewUploader(cloud, cfg.UploadDir)

	users := auth.NewUserStore(db.Client)
	sessions := auth.NewSessionRegistry(redisClient.Client)

	attendanceRepo := attendance.NewPGRepository(db.Client)
	memberRepo := member.NewPGRepository(db.Client)
	memberSvc := member.NewService(memberRepo, users, attendanceRepo)
	attendanceSvc := attendance.NewService(attendanceRepo, memberSvc)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS())
	if !cfg.DisableSecurityHeaders {
		r.Use(httpmiddleware.SecurityHeaders())
	}
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	api := httpapi.NewServer(cfg, memberSvc, attendanceSvc, uploader, users, sessions)
	api.Routes(r)

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
