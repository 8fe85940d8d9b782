package main

import (
	"context"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/adapters/dispatch"
	"github.com/sitewatch/sitewatch/adapters/objectstore"
	"github.com/sitewatch/sitewatch/adapters/vision"
	"github.com/sitewatch/sitewatch/domain/repositories"
	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/usecase"
)

var (
	logger  *zap.Logger
	service *usecase.AnalysisService
)

// Cold start wiring. A failure here crashes the function deliberately:
// the next invocation gets a fresh container and another try.
func init() {
	logger, _ = zap.NewProduction()

	cfg, err := config.LoadAnalyzer()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Fatal("loading AWS configuration", zap.Error(err))
	}

	var model repositories.VisionModel
	switch cfg.ModelBackend {
	case "gemini":
		model, err = vision.NewGeminiModel(cfg.ModelID, cfg.MaxOutputTokens, cfg.ModelTimeout, logger)
		if err != nil {
			logger.Fatal("building gemini model", zap.Error(err))
		}
	default:
		model = vision.NewBedrockModel(bedrockruntime.NewFromConfig(awsCfg), cfg.ModelID, cfg.MaxOutputTokens, cfg.ModelTimeout, logger)
	}

	fetcher := objectstore.NewS3Store(s3.NewFromConfig(awsCfg), "", logger)
	forwarder := dispatch.NewLambdaForwarder(lambdasvc.NewFromConfig(awsCfg), cfg.DispatcherFunction, logger)

	service = usecase.NewAnalysisService(fetcher, model, forwarder, vision.PromptVersion, cfg, logger)
	logger.Info("analysis invoker cold start complete",
		zap.String("backend", cfg.ModelBackend),
		zap.String("modelId", cfg.ModelID))
}

// HandleRequest processes every record in a storage event. Failures are
// terminal per object: they are logged and the remaining records still run,
// so a poisoned upload never wedges the event source.
func HandleRequest(ctx context.Context, event events.S3Event) error {
	for _, record := range event.Records {
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			logger.Error("undecodable object key",
				zap.String("rawKey", record.S3.Object.Key),
				zap.Error(err))
			continue
		}
		if err := service.HandleObjectCreated(ctx, record.S3.Bucket.Name, key); err != nil {
			logger.Error("analysis failed",
				zap.String("bucket", record.S3.Bucket.Name),
				zap.String("key", key),
				zap.Error(err))
		}
	}
	return nil
}

func main() {
	defer logger.Sync()
	lambda.Start(HandleRequest)
}
