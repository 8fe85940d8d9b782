package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/domain/entities"
	"github.com/sitewatch/sitewatch/domain/repositories"
	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/retry"
)

// AnalysisService is the cloud stage activated by a storage-write event: it
// fetches the frame, invokes the vision model, parses the structured output,
// and forwards the result to the dispatcher. Invocations are stateless and
// may run concurrently for different devices.
type AnalysisService struct {
	fetcher       repositories.ObjectFetcher
	model         repositories.VisionModel
	forwarder     repositories.ResultForwarder
	promptVersion string
	cfg           config.AnalyzerConfig
	logger        *zap.Logger
}

// NewAnalysisService wires the analysis stage.
func NewAnalysisService(
	fetcher repositories.ObjectFetcher,
	model repositories.VisionModel,
	forwarder repositories.ResultForwarder,
	promptVersion string,
	cfg config.AnalyzerConfig,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		fetcher:       fetcher,
		model:         model,
		forwarder:     forwarder,
		promptVersion: promptVersion,
		cfg:           cfg,
		logger:        logger,
	}
}

// HandleObjectCreated processes one storage event. Every failure class is
// terminal for this invocation: fetch and parse failures are never retried,
// invoke and forward failures are retried with bounded backoff first.
func (s *AnalysisService) HandleObjectCreated(ctx context.Context, bucket, key string) error {
	if !strings.HasSuffix(strings.ToLower(key), ".jpg") {
		s.logger.Info("skipping non-jpg object", zap.String("key", key))
		return nil
	}

	identity, err := entities.IdentityFromKey(key)
	if err != nil {
		s.logger.Error("object key outside the device key scheme",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.String("failureClass", "bad-key"),
			zap.Error(err))
		return err
	}

	object, err := s.fetcher.Fetch(ctx, bucket, key)
	if err != nil {
		// Missing object or access denied: terminal, no partial result.
		s.logger.Error("object fetch failed",
			zap.String("companyId", identity.CompanyID),
			zap.String("deviceId", identity.DeviceID),
			zap.String("key", key),
			zap.String("failureClass", "fetch-failed"),
			zap.Error(err))
		return err
	}

	response, err := s.invokeModel(ctx, identity, object.Data)
	if err != nil {
		return err
	}

	analysis, err := entities.ParseAnalysis(response.Text)
	if err != nil {
		// The same input would reproduce a parse failure; log the raw
		// output for diagnosis and stop.
		var parseErr *entities.ParseError
		if errors.As(err, &parseErr) {
			s.logger.Error("model output parse failed",
				zap.String("companyId", identity.CompanyID),
				zap.String("deviceId", identity.DeviceID),
				zap.String("key", key),
				zap.String("failureClass", "parse-failed"),
				zap.String("reason", parseErr.Reason),
				zap.String("rawOutput", parseErr.Raw))
		} else {
			s.logger.Error("model output parse failed",
				zap.String("key", key),
				zap.String("failureClass", "parse-failed"),
				zap.Error(err))
		}
		return err
	}

	msg := &entities.ResultMessage{
		Analysis:   analysis,
		TokenUsage: response.Usage,
		Requester: entities.Requester{
			CompanyID: identity.CompanyID,
			DeviceID:  identity.DeviceID,
			Timestamp: object.LastModified.UTC().Format(time.RFC3339),
		},
		PromptVersion: s.promptVersion,
	}

	err = retry.Do(ctx, s.cfg.Retry.BackoffBase, s.cfg.Retry.BackoffCap, s.cfg.ForwardRetries, func() error {
		return s.forwarder.Forward(ctx, msg)
	})
	if err != nil {
		// No durable redelivery queue: an unforwardable result is lost.
		s.logger.Error("result lost, forwarding retries exhausted",
			zap.String("companyId", identity.CompanyID),
			zap.String("deviceId", identity.DeviceID),
			zap.String("key", key),
			zap.String("failureClass", "forward-exhausted"),
			zap.Error(err))
		return err
	}

	s.logger.Info("analysis complete",
		zap.String("companyId", identity.CompanyID),
		zap.String("deviceId", identity.DeviceID),
		zap.String("key", key),
		zap.Int("priority", analysis.Priority),
		zap.Int("totalTokens", response.Usage.TotalTokens))
	return nil
}

// invokeModel retries transient invocation failures (timeouts, throttling)
// with bounded backoff before surfacing an invocation failure.
func (s *AnalysisService) invokeModel(ctx context.Context, identity entities.DeviceIdentity, imageJPEG []byte) (*repositories.VisionResponse, error) {
	var response *repositories.VisionResponse
	attempt := 0
	err := retry.Do(ctx, s.cfg.Retry.BackoffBase, s.cfg.Retry.BackoffCap, s.cfg.ModelInvokeRetries, func() error {
		attempt++
		var invokeErr error
		response, invokeErr = s.model.Analyze(ctx, imageJPEG)
		if invokeErr != nil {
			s.logger.Warn("model invocation failed, will retry",
				zap.String("companyId", identity.CompanyID),
				zap.String("deviceId", identity.DeviceID),
				zap.Int("attempt", attempt),
				zap.Error(invokeErr))
		}
		return invokeErr
	})
	if err != nil {
		s.logger.Error("model invocation retries exhausted",
			zap.String("companyId", identity.CompanyID),
			zap.String("deviceId", identity.DeviceID),
			zap.String("failureClass", "invoke-exhausted"),
			zap.Error(err))
		return nil, err
	}
	return response, nil
}
