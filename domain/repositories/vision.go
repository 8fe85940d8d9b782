package repositories

import (
	"context"

	"github.com/sitewatch/sitewatch/domain/entities"
)

// VisionResponse is the raw outcome of one model invocation: the textual
// output (expected, not guaranteed, to contain the analysis JSON) plus the
// token cost. Parsing is a separate, non-retryable step.
type VisionResponse struct {
	Text  string
	Usage entities.TokenUsage
}

// VisionModel abstracts any image analysis provider. Invocation failures
// (timeout, throttling) are transient and may be retried by the caller.
type VisionModel interface {
	Analyze(ctx context.Context, imageJPEG []byte) (*VisionResponse, error)
}

// ResultForwarder hands a finished result to the dispatch stage. Forwarding
// failures are retried with backoff by the caller; exhaustion loses the
// result (there is no durable redelivery queue).
type ResultForwarder interface {
	Forward(ctx context.Context, msg *entities.ResultMessage) error
}
