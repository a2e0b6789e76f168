package errors

import "github.com/pkg/errors"

var (
	// domain errors
	ErrDomainNotFound      = errors.New("domain not found")
	ErrDomainAlreadyExists = errors.New("domain already exists")
	ErrTldNotSupported     = errors.New("domain TLD not supported")

	// notification errors
	ErrWebhookNotConfigured = errors.New("webhook URL is not configured")
)
