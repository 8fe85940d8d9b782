package repositories

import (
	"context"

	"github.com/sitewatch/sitewatch/domain/entities"
)

// ObjectWriter is the edge-side view of the object store: a single durable
// write under an identity-scoped key.
type ObjectWriter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// ObjectFetcher is the cloud-side view: retrieve a stored frame named by a
// storage event.
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, key string) (*entities.StorageObject, error)
}

// CredentialSource is the opaque short-lived credential capability. Refresh
// fails when the token exchange is unavailable, which is fatal at startup.
type CredentialSource interface {
	Refresh(ctx context.Context) error
}
