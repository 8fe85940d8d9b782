package usecase

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/domain/entities"
	"github.com/sitewatch/sitewatch/domain/repositories"
)

// IndicatorService is the optional edge result listener: it logs every
// delivered result and drives the local indicator from the priority. A
// malformed message or an out-of-range priority never crashes the listener.
type IndicatorService struct {
	identity  entities.DeviceIdentity
	messenger repositories.Messenger
	driver    repositories.IndicatorDriver
	logger    *zap.Logger
}

// NewIndicatorService wires the result listener. driver may be nil, in which
// case results are only logged.
func NewIndicatorService(
	identity entities.DeviceIdentity,
	messenger repositories.Messenger,
	driver repositories.IndicatorDriver,
	logger *zap.Logger,
) *IndicatorService {
	return &IndicatorService{
		identity:  identity,
		messenger: messenger,
		driver:    driver,
		logger:    logger,
	}
}

// Start subscribes to the device result topic.
func (s *IndicatorService) Start(ctx context.Context) error {
	return s.messenger.Subscribe(s.identity.ResultTopic(), s.HandleResult)
}

// HandleResult decodes one delivered result and maps its priority onto an
// indicator state.
func (s *IndicatorService) HandleResult(topic string, payload []byte) {
	var msg entities.ResultMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("result payload is not valid JSON",
			zap.String("topic", topic),
			zap.ByteString("payload", payload),
			zap.Error(err))
		return
	}

	indicator := entities.IndicatorForPriority(msg.Analysis.Priority)
	color := indicator.Color()

	s.logger.Info("result received",
		zap.String("topic", topic),
		zap.String("companyId", msg.Requester.CompanyID),
		zap.String("deviceId", msg.Requester.DeviceID),
		zap.Int("priority", msg.Analysis.Priority),
		zap.String("summary", msg.Analysis.Summary),
		zap.String("oshaReference", msg.Analysis.OSHAReference),
		zap.String("indicator", string(indicator)),
		zap.Uint8("r", color.R), zap.Uint8("g", color.G), zap.Uint8("b", color.B))

	if s.driver != nil {
		if err := s.driver.Show(msg.Analysis.Priority); err != nil {
			s.logger.Error("indicator driver failed",
				zap.String("indicator", string(indicator)),
				zap.Error(err))
		}
	}
}

// LogDriver is the default IndicatorDriver: it only logs the state change.
// Hardware drivers live outside the core.
type LogDriver struct {
	Logger *zap.Logger
}

// Show logs the indicator state for the given priority.
func (d *LogDriver) Show(priority int) error {
	indicator := entities.IndicatorForPriority(priority)
	color := indicator.Color()
	d.Logger.Info("indicator state",
		zap.Int("priority", priority),
		zap.String("indicator", string(indicator)),
		zap.Uint8("r", color.R), zap.Uint8("g", color.G), zap.Uint8("b", color.B))
	return nil
}
