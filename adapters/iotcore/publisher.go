// Package iotcore publishes dispatcher output to the IoT Core data plane.
package iotcore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"go.uber.org/zap"
)

// DataPlaneAPI is the slice of the IoT data plane client the adapter uses.
type DataPlaneAPI interface {
	Publish(ctx context.Context, params *iotdataplane.PublishInput, optFns ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error)
}

// Publisher sends one message per call at QoS 1. Retry policy belongs to the
// dispatcher.
type Publisher struct {
	client DataPlaneAPI
	logger *zap.Logger
}

// NewPublisher creates an IoT Core publisher.
func NewPublisher(client DataPlaneAPI, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Publish writes the payload to the given topic.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	_, err := p.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Qos:     1,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.logger.Info("result published",
		zap.String("topic", topic),
		zap.Int("bytes", len(payload)))
	return nil
}
