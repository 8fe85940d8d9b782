package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/domain/entities"
	"github.com/sitewatch/sitewatch/domain/repositories"
	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/retry"
)

// DispatchService publishes finished results to the per-device result topic,
// escalating high priorities to the alert channel and recording an audit row
// when a store is configured. It stays available across failures: one bad or
// undeliverable result never takes the dispatcher down.
type DispatchService struct {
	publisher repositories.ResultPublisher
	audit     repositories.ResultAuditStore // nil disables auditing
	cfg       config.DispatcherConfig
	logger    *zap.Logger
}

// NewDispatchService wires the dispatch stage. audit may be nil.
func NewDispatchService(
	publisher repositories.ResultPublisher,
	audit repositories.ResultAuditStore,
	cfg config.DispatcherConfig,
	logger *zap.Logger,
) *DispatchService {
	return &DispatchService{publisher: publisher, audit: audit, cfg: cfg, logger: logger}
}

// Dispatch validates, audits, and publishes one result. Malformed messages
// are dropped with an error; publish exhaustion is logged and returned, never
// panicked.
func (s *DispatchService) Dispatch(ctx context.Context, msg *entities.ResultMessage) error {
	if err := msg.Validate(); err != nil {
		s.logger.Error("result message rejected",
			zap.String("companyId", msg.Requester.CompanyID),
			zap.String("deviceId", msg.Requester.DeviceID),
			zap.String("failureClass", "invalid-result"),
			zap.Error(err))
		return fmt.Errorf("invalid result message: %w", err)
	}

	identity := msg.Identity()

	if s.audit != nil {
		if err := s.audit.Record(ctx, msg); err != nil {
			// Auditing never blocks delivery.
			s.logger.Warn("audit record failed",
				zap.String("companyId", identity.CompanyID),
				zap.String("deviceId", identity.DeviceID),
				zap.Error(err))
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal result message: %w", err)
	}

	if err := s.publish(ctx, identity.ResultTopic(), payload, identity); err != nil {
		return err
	}

	if msg.Analysis.Priority >= s.cfg.EscalationThreshold {
		s.logger.Info("priority above escalation threshold",
			zap.String("companyId", identity.CompanyID),
			zap.String("deviceId", identity.DeviceID),
			zap.Int("priority", msg.Analysis.Priority),
			zap.Int("threshold", s.cfg.EscalationThreshold))
		if err := s.publish(ctx, identity.AlertTopic(), payload, identity); err != nil {
			// The primary delivery already succeeded; a lost escalation is
			// logged, not fatal.
			s.logger.Error("escalation publish failed",
				zap.String("topic", identity.AlertTopic()),
				zap.Error(err))
		}
	}

	return nil
}

func (s *DispatchService) publish(ctx context.Context, topic string, payload []byte, identity entities.DeviceIdentity) error {
	err := retry.Do(ctx, s.cfg.Retry.BackoffBase, s.cfg.Retry.BackoffCap, s.cfg.PublishRetries, func() error {
		return s.publisher.Publish(ctx, topic, payload)
	})
	if err != nil {
		s.logger.Error("publish retries exhausted",
			zap.String("companyId", identity.CompanyID),
			zap.String("deviceId", identity.DeviceID),
			zap.String("topic", topic),
			zap.String("failureClass", "publish-exhausted"),
			zap.Error(err))
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
