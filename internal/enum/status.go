package enum

// DomainStatus is the availability state of a tracked domain.
type DomainStatus string

const (
	DomainStatusAvailable   DomainStatus = "available"
	DomainStatusUnavailable DomainStatus = "unavailable"
	DomainStatusUnknown     DomainStatus = "unknown"
)

func (t DomainStatus) String() string {
	return string(t)
}

// CheckStatus is the outcome classification of a single resolver probe.
type CheckStatus string

const (
	CheckStatusAvailable   CheckStatus = "available"
	CheckStatusUnavailable CheckStatus = "unavailable"
	CheckStatusError       CheckStatus = "error"
)

func (t CheckStatus) String() string {
	return string(t)
}
