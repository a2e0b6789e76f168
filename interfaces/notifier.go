package interfaces

import (
	"context"

	"github.com/expirehq/domain-monitor/internal/models"
)

// NotificationResult reports the terminal outcome of a webhook delivery
// attempt, after retries are exhausted or a definitive response arrives.
type NotificationResult struct {
	Success    bool   `json:"success"`
	HTTPStatus *int   `json:"httpStatus"`
	Response   string `json:"response"`
	Error      string `json:"error"`
}

type NotifierService interface {
	// SendAvailableNotification announces that a domain became available.
	SendAvailableNotification(ctx context.Context, domain *models.Domain) NotificationResult

	// SendLostNotification announces that a watched domain was taken.
	SendLostNotification(ctx context.Context, domain *models.Domain) NotificationResult

	// SendTestNotification delivers a synthetic payload to validate the
	// webhook configuration end to end.
	SendTestNotification(ctx context.Context) NotificationResult
}
