package camera

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sitewatch/sitewatch/domain/entities"
)

// MockCamera is a test double for the capture engine.
type MockCamera struct {
	Image []byte
	Err   error
	Delay time.Duration

	captures atomic.Int64
}

// Capture returns the configured image or error, after an optional delay to
// simulate a slow stream.
func (m *MockCamera) Capture(ctx context.Context) (*entities.CapturedImage, error) {
	m.captures.Add(1)

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &entities.CapturedImage{
		Content:    m.Image,
		SourceURI:  "mock://camera",
		CapturedAt: time.Now().UTC(),
	}, nil
}

// Captures reports how many times Capture was called.
func (m *MockCamera) Captures() int {
	return int(m.captures.Load())
}
