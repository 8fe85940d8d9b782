package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iot"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/adapters/mqtt"
	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/identity"
	"github.com/sitewatch/sitewatch/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	_ = godotenv.Load()

	cfg, err := config.LoadIndicator()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The registry lookup is only needed when the identity is not in the
	// environment, so the AWS config stays optional here.
	var resolver *identity.Resolver
	if cfg.CompanyID != "" && cfg.DeviceID != "" {
		resolver = identity.NewResolver(nil, logger)
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			logger.Fatal("loading AWS configuration", zap.Error(err))
		}
		resolver = identity.NewResolver(iot.NewFromConfig(awsCfg), logger)
	}

	id, err := resolver.Resolve(ctx, cfg.CompanyID, cfg.DeviceID, cfg.ThingName)
	if err != nil {
		logger.Fatal("resolving device identity", zap.Error(err))
	}

	messenger, err := mqtt.NewClient(mqtt.Options{
		BrokerURL:      cfg.BrokerURL,
		ClientID:       fmt.Sprintf("%s-indicator-%s", cfg.ClientIDPrefix, id.DeviceID),
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

	service := usecase.NewIndicatorService(id, messenger, &usecase.LogDriver{Logger: logger}, logger)
	if err := service.Start(ctx); err != nil {
		logger.Fatal("subscribing to result topic", zap.Error(err))
	}

	logger.Info("result listener started",
		zap.String("companyId", id.CompanyID),
		zap.String("deviceId", id.DeviceID),
		zap.String("resultTopic", id.ResultTopic()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("result listener exited")
}
