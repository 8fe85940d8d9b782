package repositories

import (
	"context"

	"github.com/sitewatch/sitewatch/domain/entities"
)

// Camera grabs a single still frame from the configured video source. An
// implementation owns its retry policy and must never leak a stream handle
// past one Capture call.
type Camera interface {
	Capture(ctx context.Context) (*entities.CapturedImage, error)
}
