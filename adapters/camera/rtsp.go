// Package camera grabs still frames from an RTSP (or any OpenCV-readable)
// video source.
package camera

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/sitewatch/sitewatch/domain/entities"
)

// CaptureError reports retry exhaustion with the last cause. It is the
// "capture-exhausted" terminal outcome for a trigger.
type CaptureError struct {
	Attempts int
	Cause    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture-exhausted after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *CaptureError) Unwrap() error { return e.Cause }

// RTSPCamera opens the configured stream and reads one frame per capture.
// Each attempt gets its own stream handle, closed by the goroutine that
// reads from it.
type RTSPCamera struct {
	streamURL  string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	// grab performs one capture attempt. Replaceable in tests.
	grab func(ctx context.Context) (*entities.CapturedImage, error)
}

// NewRTSPCamera creates a capture engine for the given source. The stream URL
// may embed credentials; it is never logged verbatim.
func NewRTSPCamera(streamURL string, timeout time.Duration, maxRetries int, retryDelay time.Duration, logger *zap.Logger) *RTSPCamera {
	c := &RTSPCamera{
		streamURL:  streamURL,
		timeout:    timeout,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
	c.grab = c.captureOnce
	return c
}

// Capture reads until one complete frame is available or the per-attempt
// timeout elapses, retrying transient failures up to the configured bound.
func (c *RTSPCamera) Capture(ctx context.Context) (*entities.CapturedImage, error) {
	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		frame, err := c.grab(ctx)
		if err == nil {
			return frame, nil
		}
		lastErr = err

		c.logger.Warn("frame capture attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", attempts),
			zap.Error(err))

		if attempt < attempts {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = attempts
			}
		}
	}

	return nil, &CaptureError{Attempts: attempts, Cause: lastErr}
}

// captureOnce opens the stream and reads a single frame, bounded by the
// per-attempt timeout.
func (c *RTSPCamera) captureOnce(ctx context.Context) (*entities.CapturedImage, error) {
	type readResult struct {
		data []byte
		err  error
	}
	done := make(chan readResult, 1)

	// The goroutine owns the stream handle for its whole lifetime, so a
	// timed-out attempt abandons it and the handle is still closed only
	// after the blocking read returns.
	go func() {
		capture, err := gocv.OpenVideoCapture(c.streamURL)
		if err != nil {
			done <- readResult{err: fmt.Errorf("open stream: %w", err)}
			return
		}
		defer capture.Close()

		mat := gocv.NewMat()
		defer mat.Close()

		if ok := capture.Read(&mat); !ok || mat.Empty() {
			done <- readResult{err: fmt.Errorf("no complete frame available")}
			return
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
		if err != nil {
			done <- readResult{err: fmt.Errorf("encode frame: %w", err)}
			return
		}
		defer buf.Close()

		data := make([]byte, len(buf.GetBytes()))
		copy(data, buf.GetBytes())
		done <- readResult{data: data}
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case result := <-done:
		if result.err != nil {
			return nil, result.err
		}
		return &entities.CapturedImage{
			Content:    result.data,
			SourceURI:  c.streamURL,
			CapturedAt: time.Now().UTC(),
		}, nil
	case <-timer.C:
		return nil, fmt.Errorf("capture timed out after %s", c.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
