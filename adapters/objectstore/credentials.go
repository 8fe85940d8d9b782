package objectstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"
)

// TokenExchangeSource wraps the platform credential provider (container
// credentials on a Greengrass-style deployment, the default chain elsewhere)
// behind the pipeline's fetch-or-fail contract.
type TokenExchangeSource struct {
	provider aws.CredentialsProvider
	logger   *zap.Logger
}

// NewTokenExchangeSource wraps an SDK credentials provider.
func NewTokenExchangeSource(provider aws.CredentialsProvider, logger *zap.Logger) *TokenExchangeSource {
	return &TokenExchangeSource{provider: provider, logger: logger}
}

// Refresh fetches a fresh set of short-lived credentials. Failure here at
// startup is fatal for the process.
func (t *TokenExchangeSource) Refresh(ctx context.Context) error {
	creds, err := t.provider.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("fetch short-lived credentials: %w", err)
	}

	t.logger.Info("short-lived credentials acquired",
		zap.String("source", creds.Source),
		zap.Bool("canExpire", creds.CanExpire),
		zap.Time("expires", creds.Expires))
	return nil
}
