package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/domain/entities"
	"github.com/sitewatch/sitewatch/domain/repositories"
	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/retry"
)

// ErrBusy rejects a trigger that arrives while a capture is in flight. The
// trigger is not queued; resource use is bounded to one capture per device.
var ErrBusy = errors.New("capture already in flight")

// Trigger outcome statuses published on the device status topic.
const (
	StatusBusy             = "busy"
	StatusUploaded         = "uploaded"
	StatusCaptureExhausted = "capture-exhausted"
	StatusUploadFailed     = "upload-failed"
	StatusBadTrigger       = "bad-trigger"
)

// Outcome is the recorded result of the most recent trigger, exposed on the
// edge admin surface.
type Outcome struct {
	Correlation string    `json:"correlation"`
	Status      string    `json:"status"`
	Key         string    `json:"key,omitempty"`
	Error       string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}

type statusMessage struct {
	Status      string `json:"status"`
	Correlation string `json:"correlation,omitempty"`
	Key         string `json:"key,omitempty"`
}

// CapturePipeline is the edge trigger-to-upload flow: it listens on the
// device command topic, grabs one frame, and writes it to the object store
// under an identity-scoped key. One trigger is in flight at a time.
type CapturePipeline struct {
	identity  entities.DeviceIdentity
	camera    repositories.Camera
	store     repositories.ObjectWriter
	messenger repositories.Messenger

	uploadRetries int
	retryCfg      config.RetryConfig
	logger        *zap.Logger

	busy atomic.Bool

	mu          sync.Mutex
	lastOutcome *Outcome
}

// NewCapturePipeline wires the edge pipeline stages together.
func NewCapturePipeline(
	identity entities.DeviceIdentity,
	camera repositories.Camera,
	store repositories.ObjectWriter,
	messenger repositories.Messenger,
	uploadRetries int,
	retryCfg config.RetryConfig,
	logger *zap.Logger,
) *CapturePipeline {
	return &CapturePipeline{
		identity:      identity,
		camera:        camera,
		store:         store,
		messenger:     messenger,
		uploadRetries: uploadRetries,
		retryCfg:      retryCfg,
		logger:        logger,
	}
}

// Start subscribes to the device command topic. Each delivery runs the full
// capture-and-upload flow synchronously in the handler.
func (p *CapturePipeline) Start(ctx context.Context) error {
	topic := p.identity.CommandTopic()
	return p.messenger.Subscribe(topic, func(topic string, payload []byte) {
		if err := p.HandleTrigger(ctx, payload); err != nil {
			// Terminal outcomes are already logged and published with
			// their failure class; nothing propagates past the trigger.
			p.logger.Debug("trigger finished with failure", zap.Error(err))
		}
	})
}

// HandleTrigger runs one capture-and-upload cycle. A second trigger arriving
// while one is in flight returns ErrBusy and is never queued.
func (p *CapturePipeline) HandleTrigger(ctx context.Context, payload []byte) error {
	trigger, err := entities.DecodeTrigger(payload)
	if err != nil {
		// Malformed triggers are dropped, not retried.
		p.logger.Warn("trigger payload decode failed",
			zap.String("companyId", p.identity.CompanyID),
			zap.String("deviceId", p.identity.DeviceID),
			zap.String("failureClass", StatusBadTrigger),
			zap.Error(err))
		p.publishStatus(ctx, statusMessage{Status: StatusBadTrigger})
		return err
	}
	correlation := trigger.CorrelationID()

	if !p.busy.CompareAndSwap(false, true) {
		p.logger.Warn("trigger rejected, capture in flight",
			zap.String("companyId", p.identity.CompanyID),
			zap.String("deviceId", p.identity.DeviceID),
			zap.String("correlation", correlation))
		p.publishStatus(ctx, statusMessage{Status: StatusBusy, Correlation: correlation})
		return ErrBusy
	}
	defer p.busy.Store(false)

	p.logger.Info("trigger accepted",
		zap.String("companyId", p.identity.CompanyID),
		zap.String("deviceId", p.identity.DeviceID),
		zap.String("correlation", correlation))

	image, err := p.camera.Capture(ctx)
	if err != nil {
		p.logger.Error("capture exhausted",
			zap.String("companyId", p.identity.CompanyID),
			zap.String("deviceId", p.identity.DeviceID),
			zap.String("correlation", correlation),
			zap.String("failureClass", StatusCaptureExhausted),
			zap.Error(err))
		p.finish(ctx, Outcome{Correlation: correlation, Status: StatusCaptureExhausted, Error: err.Error()})
		return err
	}

	key := p.identity.ObjectKey(uuid.NewString())
	err = retry.Do(ctx, p.retryCfg.BackoffBase, p.retryCfg.BackoffCap, p.uploadRetries, func() error {
		return p.store.Put(ctx, key, image.Content, "image/jpeg")
	})
	if err != nil {
		p.logger.Error("upload failed",
			zap.String("companyId", p.identity.CompanyID),
			zap.String("deviceId", p.identity.DeviceID),
			zap.String("correlation", correlation),
			zap.String("key", key),
			zap.String("failureClass", StatusUploadFailed),
			zap.Error(err))
		p.finish(ctx, Outcome{Correlation: correlation, Status: StatusUploadFailed, Error: err.Error()})
		return err
	}

	// Ownership of the frame now rests with the storage substrate; the
	// storage event carries the key downstream.
	p.logger.Info("frame uploaded",
		zap.String("companyId", p.identity.CompanyID),
		zap.String("deviceId", p.identity.DeviceID),
		zap.String("correlation", correlation),
		zap.String("key", key),
		zap.Int("bytes", len(image.Content)))
	p.finish(ctx, Outcome{Correlation: correlation, Status: StatusUploaded, Key: key})
	return nil
}

// Busy reports whether a trigger is currently in flight.
func (p *CapturePipeline) Busy() bool {
	return p.busy.Load()
}

// LastOutcome returns the most recent trigger outcome, or nil before the
// first trigger.
func (p *CapturePipeline) LastOutcome() *Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastOutcome == nil {
		return nil
	}
	outcome := *p.lastOutcome
	return &outcome
}

// Identity returns the pipeline's scoping identity.
func (p *CapturePipeline) Identity() entities.DeviceIdentity {
	return p.identity
}

func (p *CapturePipeline) finish(ctx context.Context, outcome Outcome) {
	outcome.At = time.Now().UTC()
	p.mu.Lock()
	p.lastOutcome = &outcome
	p.mu.Unlock()

	p.publishStatus(ctx, statusMessage{
		Status:      outcome.Status,
		Correlation: outcome.Correlation,
		Key:         outcome.Key,
	})
}

// publishStatus is best-effort: a failed ack never fails the trigger.
func (p *CapturePipeline) publishStatus(ctx context.Context, msg statusMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("marshal status message", zap.Error(err))
		return
	}
	if err := p.messenger.Publish(ctx, p.identity.StatusTopic(), payload); err != nil {
		p.logger.Warn("status publish failed",
			zap.String("topic", p.identity.StatusTopic()),
			zap.Error(err))
	}
}
