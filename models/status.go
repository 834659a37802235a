// models/status.go
package models

import "strings"

// Status is the lifecycle state of a tournament application.
type Status string

const (
	StatusPendingReview    Status = "Pending Review"
	StatusUnderReview      Status = "Under Review"
	StatusMoreInfoRequired Status = "More Info Required"
	StatusApproved         Status = "Approved"
	StatusRejected         Status = "Rejected"
)

var allStatuses = []Status{
	StatusPendingReview,
	StatusUnderReview,
	StatusMoreInfoRequired,
	StatusApproved,
	StatusRejected,
}

// AllStatuses returns the five statuses in conventional workflow order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus matches s against the known statuses. Surrounding whitespace is
// ignored, case is not.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range allStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s Status) Valid() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

// Notifies reports whether reaching this status informs the applicant.
func (s Status) Notifies() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusMoreInfoRequired:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }
