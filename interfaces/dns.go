package interfaces

import (
	"context"
)

// DNSCheckResult is the classified outcome of one resolver probe.
// Probe failures are folded into the classification and never surface
// as errors: exhausted transient failures degrade to available,
// unexpected failures degrade to unavailable.
type DNSCheckResult struct {
	Available      bool   `json:"available"`
	CheckMethod    string `json:"checkMethod"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
	Error          string `json:"error,omitempty"`
}

type DNSCheckerService interface {
	// CheckDomainAvailability resolves the domain's A records against the
	// given DNS server and classifies the outcome. Safe for concurrent use.
	CheckDomainAvailability(ctx context.Context, domain, server string) DNSCheckResult

	// ServerForTld returns the resolver to use for a given top-level label.
	ServerForTld(tld string) string

	ExtractTld(domain string) string
	IsSupportedTld(domain string) bool
}
