package interfaces

import (
	"context"

	"github.com/expirehq/domain-monitor/internal/models"
)

type MonitorService interface {
	// RunCheckCycle sweeps all active domains in batches, verifying each one
	// and dispatching notifications on status transitions.
	RunCheckCycle(ctx context.Context) error

	// CheckDomain verifies a single domain immediately, outside the
	// scheduled cycle.
	CheckDomain(ctx context.Context, domain *models.Domain) (*VerificationResult, error)
}
