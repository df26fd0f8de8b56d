package main

import (
	// Standard library
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	// External dependencies
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/houzhh15/devreport/cmd/server/internal/api"
	"github.com/houzhh15/devreport/cmd/server/internal/config"
	"github.com/houzhh15/devreport/cmd/server/internal/gitlog"
	"github.com/houzhh15/devreport/cmd/server/internal/middleware"
	"github.com/houzhh15/devreport/cmd/server/internal/notion"
	"github.com/houzhh15/devreport/cmd/server/internal/report"
	"github.com/houzhh15/devreport/pkg/logger"
)

func main() {
	logInstance, err := logger.Init(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("ENV"),
		File:        os.Getenv("LOG_FILE"),
		WithSource:  !strings.EqualFold(os.Getenv("ENV"), "production"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "report-server")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Wire the report service: MCP transport → sync engine → orchestration
	toolClient := notion.NewMCPClient(cfg.Notion.MCPServerURL, cfg.Notion.Token)
	syncClient := notion.NewSyncClient(toolClient, notion.PropertyMap{
		Title: cfg.Notion.PropTitle,
		Date:  cfg.Notion.PropDate,
		Hours: cfg.Notion.PropHours,
	})
	analyzer := gitlog.NewAnalyzer(cfg.Git.RepoDir)
	reportSvc := report.NewService(report.Config{
		WeeklyDatabaseID: cfg.Notion.WeeklyDBID,
		DailyDatabaseID:  cfg.Notion.DailyDBID,
	}, syncClient, analyzer)
	appLogger.Info("report service ready",
		"mcp_url", cfg.Notion.MCPServerURL, "repo_dir", cfg.Git.RepoDir)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	// Health and metrics endpoints
	startTime := time.Now()
	r.GET("/health", healthCheckHandler(cfg, startTime))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Report API
	apiV1 := r.Group("/api/v1")
	api.NewReportHandler(reportSvc).RegisterRoutes(apiV1)

	// Create HTTP server with graceful shutdown
	serverAddr := cfg.GetServerAddr()
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("server starting", "addr", serverAddr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}

func healthCheckHandler(cfg *config.Config, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"env":     cfg.Server.Env,
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": "1.0.0",
		})
	}
}
