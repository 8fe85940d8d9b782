package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/adapters/audit"
	"github.com/sitewatch/sitewatch/adapters/iotcore"
	"github.com/sitewatch/sitewatch/domain/entities"
	"github.com/sitewatch/sitewatch/domain/repositories"
	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/usecase"
)

// Response mirrors the API-gateway-style envelope callers of this function
// already expect.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

var (
	logger  *zap.Logger
	service *usecase.DispatchService
)

func init() {
	logger, _ = zap.NewProduction()

	cfg, err := config.LoadDispatcher()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Fatal("loading AWS configuration", zap.Error(err))
	}

	publisher := iotcore.NewPublisher(iotdataplane.NewFromConfig(awsCfg), logger)

	var auditStore repositories.ResultAuditStore
	if cfg.AuditTable != "" {
		auditStore = audit.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.AuditTable, logger)
	}

	service = usecase.NewDispatchService(publisher, auditStore, cfg, logger)
	logger.Info("result dispatcher cold start complete",
		zap.String("auditTable", cfg.AuditTable))
}

// HandleRequest publishes one analysis result back to its device. Invalid
// payloads get a 400 and publish exhaustion a 500; neither crashes the
// function, so a bad result is never redelivered.
func HandleRequest(ctx context.Context, msg entities.ResultMessage) (Response, error) {
	if err := service.Dispatch(ctx, &msg); err != nil {
		if err := msg.Validate(); err != nil {
			return Response{StatusCode: 400, Body: err.Error()}, nil
		}
		return Response{StatusCode: 500, Body: err.Error()}, nil
	}
	return Response{StatusCode: 200, Body: "dispatched"}, nil
}

func main() {
	defer logger.Sync()
	lambda.Start(HandleRequest)
}
