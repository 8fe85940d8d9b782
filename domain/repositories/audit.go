package repositories

import (
	"context"

	"github.com/sitewatch/sitewatch/domain/entities"
)

// ResultAuditStore records every published result for later review. Audit
// failures are logged and never block delivery.
type ResultAuditStore interface {
	Record(ctx context.Context, msg *entities.ResultMessage) error
}
