package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iot"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/adapters/camera"
	"github.com/sitewatch/sitewatch/adapters/mqtt"
	"github.com/sitewatch/sitewatch/adapters/objectstore"
	"github.com/sitewatch/sitewatch/internal/api"
	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/identity"
	"github.com/sitewatch/sitewatch/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Local overrides for development; the real device gets its
	// environment from the supervisor.
	_ = godotenv.Load()

	cfg, err := config.LoadEdge()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal("loading AWS configuration", zap.Error(err))
	}

	// Prove the credential exchange works before anything else runs.
	creds := objectstore.NewTokenExchangeSource(awsCfg.Credentials, logger)
	if err := creds.Refresh(ctx); err != nil {
		logger.Fatal("credential exchange failed", zap.Error(err))
	}

	resolver := identity.NewResolver(iot.NewFromConfig(awsCfg), logger)
	id, err := resolver.Resolve(ctx, cfg.CompanyID, cfg.DeviceID, cfg.ThingName)
	if err != nil {
		logger.Fatal("resolving device identity", zap.Error(err))
	}

	// Initialize adapters
	store := objectstore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Bucket, logger)
	cam := camera.NewRTSPCamera(cfg.StreamURL, cfg.CaptureTimeout, cfg.MaxCaptureRetries, cfg.Retry.BackoffBase, logger)

	messenger, err := mqtt.NewClient(mqtt.Options{
		BrokerURL:      cfg.BrokerURL,
		ClientID:       fmt.Sprintf("%s-edge-%s", cfg.ClientIDPrefix, id.DeviceID),
		CACertPath:     cfg.CACertPath,
		ClientCertPath: cfg.ClientCertPath,
		ClientKeyPath:  cfg.ClientKeyPath,
		ConnectRetries: cfg.MQTTConnectRetries,
		BackoffBase:    cfg.Retry.BackoffBase,
		BackoffCap:     cfg.Retry.BackoffCap,
	}, logger)
	if err != nil {
		logger.Fatal("building mqtt client", zap.Error(err))
	}
	if err := messenger.Connect(ctx); err != nil {
		logger.Fatal("connecting to broker", zap.Error(err))
	}
	defer messenger.Disconnect()

	// Initialize usecase services
	pipeline := usecase.NewCapturePipeline(id, cam, store, messenger, cfg.UploadRetries, cfg.Retry, logger)
	if err := pipeline.Start(ctx); err != nil {
		logger.Fatal("subscribing to command topic", zap.Error(err))
	}

	// Admin surface
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	api.InitRoutes(e, pipeline, logger)

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the admin server", zap.Error(err))
		}
	}()

	logger.Info("edge agent started",
		zap.String("companyId", id.CompanyID),
		zap.String("deviceId", id.DeviceID),
		zap.String("commandTopic", id.CommandTopic()),
		zap.Int("port", cfg.HTTPPort))

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("edge agent is shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server forced to shutdown", zap.Error(err))
	}

	logger.Info("edge agent exited")
}
