package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"repopulse/internal/alerting"
	"repopulse/internal/collector"
	"repopulse/internal/config"
	cronrunner "repopulse/internal/cron"
	"repopulse/internal/db"
	"repopulse/internal/enrich"
	"repopulse/internal/handler"
	"repopulse/internal/health"
	"repopulse/internal/httpx"
	"repopulse/internal/logger"
	"repopulse/internal/metrics"
	"repopulse/internal/notifier"
	"repopulse/internal/pipeline"
	gormrepository "repopulse/internal/repository/gorm"
	"repopulse/internal/scoring"
)

func main() {
	cfgPath := os.Getenv("RP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("RP_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	rules, provenance := scoring.LoadRules(cfg.Scoring.RulesPath)
	if provenance.Source == "file" {
		logger.Info("score rules loaded", zap.String("path", provenance.Path))
	} else {
		logger.Warn("score rules fell back to defaults",
			zap.String("path", provenance.Path), zap.Error(provenance.Err))
	}

	store := gormrepository.New(dbConn.Gorm)
	tracker := &health.Tracker{
		Store:     store,
		Logger:    logger,
		Threshold: cfg.Health.RateLimitFailureThreshold,
	}

	fetchClient := httpx.New(cfg.Fetch.Timeout, cfg.Fetch.Retries, cfg.Fetch.Backoff, logger)
	githubClient := httpx.New(cfg.GitHub.Timeout, cfg.Fetch.Retries, cfg.Fetch.Backoff, logger)

	var collectors []collector.Collector
	if cfg.Sources.HackerNews.Enabled {
		collectors = append(collectors, &collector.HackerNews{
			Client:  fetchClient,
			Logger:  logger,
			Limit:   cfg.Sources.HackerNews.Limit,
			SrcTier: cfg.Sources.HackerNews.Tier,
			DryRun:  cfg.App.DryRun,
		})
	}
	if cfg.Sources.Reddit.Enabled {
		collectors = append(collectors, &collector.Reddit{
			Client:    fetchClient,
			Logger:    logger,
			Subreddit: cfg.Sources.Reddit.Subreddit,
			Limit:     cfg.Sources.Reddit.Limit,
			SrcTier:   cfg.Sources.Reddit.Tier,
			DryRun:    cfg.App.DryRun,
		})
	}

	m := metrics.New()
	passPipeline := &pipeline.Pipeline{
		Store:      store,
		Collectors: collectors,
		Health:     tracker,
		Enricher: &enrich.GitHub{
			Client:  githubClient,
			Logger:  logger,
			BaseURL: cfg.GitHub.BaseURL,
			Token:   cfg.GitHub.Token,
			DryRun:  cfg.App.DryRun,
		},
		Notifier: &notifier.Discord{
			Client:     fetchClient,
			Logger:     logger,
			WebhookURL: cfg.Discord.WebhookURL,
			DryRun:     cfg.App.DryRun,
		},
		Alerts:          &alerting.Engine{Store: store, Logger: logger, Config: cfg.Alert},
		Rules:           rules,
		Logger:          logger,
		Metrics:         m,
		Window:          time.Duration(cfg.Window.Hours) * time.Hour,
		ReenableOnStart: cfg.Health.ReenableOnStart,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	(&handler.HealthHandler{DB: dbConn}).Register(engine)
	(&handler.ReposHandler{Store: store}).Register(engine)
	(&handler.AlertsHandler{Store: store}).Register(engine)
	(&handler.SourcesHandler{Store: store}).Register(engine)
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runPass := func(ctx context.Context) {
		summary, err := passPipeline.Run(ctx)
		if err != nil {
			logger.Error("pass failed", zap.Error(err))
			return
		}
		logger.Info("pass summary",
			zap.Int("raw_events", summary.RawEvents),
			zap.Int("inserted_events", summary.InsertedEvents),
			zap.Int("repos", summary.Repos),
			zap.Int("snapshots", summary.SnapshotsWritten),
			zap.Int("alerts_sent", summary.AlertsSent))
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		if _, err := cronRunner.Add("pass", cfg.Cron.Pass, runPass); err != nil {
			logger.Fatal("cron register pass failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}
	if cfg.Cron.RunOnStart {
		go runPass(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
