package repositories

import "context"

// MessageHandler consumes one inbound message. Handlers must tolerate
// duplicate deliveries: triggering is at-least-once.
type MessageHandler func(topic string, payload []byte)

// Messenger is the edge MQTT connection: per-device topic subscription and
// small status/ack publishes. Subscribe survives connection loss through the
// client's own reconnect; the initial connect is bounded and fatal on
// exhaustion.
type Messenger interface {
	Subscribe(topic string, handler MessageHandler) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Disconnect()
}

// ResultPublisher is the cloud-side publish capability used by the dispatch
// stage. Implementations do not retry; the dispatcher owns the retry policy.
type ResultPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// IndicatorDriver drives the local visual indicator. Hardware drivers live
// outside the core; the default implementation only logs.
type IndicatorDriver interface {
	Show(priority int) error
}
