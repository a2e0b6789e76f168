package interfaces

import (
	"context"

	"github.com/expirehq/domain-monitor/internal/enum"
	"github.com/expirehq/domain-monitor/internal/models"
)

// VerificationResult is the outcome of one double-check verification run.
type VerificationResult struct {
	IsAvailable    bool              `json:"isAvailable"`
	ShouldNotify   bool              `json:"shouldNotify"`
	CheckLogs      []models.CheckLog `json:"checkLogs"`
	PreviousStatus enum.DomainStatus `json:"previousStatus"`
	NewStatus      enum.DomainStatus `json:"newStatus"`
}

type AvailabilityService interface {
	// VerifyDomain runs the two-probe confirmation protocol and mutates the
	// domain's status fields as a side effect. The returned check logs are
	// drafts; the caller persists them via SaveCheckLogs.
	VerifyDomain(ctx context.Context, domain *models.Domain) (*VerificationResult, error)

	// SaveCheckLogs persists the probe audit records for a domain.
	SaveCheckLogs(ctx context.Context, domainID uint64, checkLogs []models.CheckLog) error
}
