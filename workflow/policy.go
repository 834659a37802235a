package workflow

import "github.com/Ariffin97/portal-mpa-sub001/models"

// Policy tunes what ChangeStatus accepts.
type Policy struct {
	// MinRejectionReason and MinRequiredInfo are minimum lengths in
	// characters after trimming. Zero accepts any non-empty text.
	MinRejectionReason int
	MinRequiredInfo    int
	// Transitions lists the statuses reachable from each status. A nil table
	// allows every status to move to every status.
	Transitions map[models.Status][]models.Status
}

// ConventionalTransitions is the usual business flow. Each status may also
// be re-applied to itself so repeated requests stay harmless.
func ConventionalTransitions() map[models.Status][]models.Status {
	return map[models.Status][]models.Status{
		models.StatusPendingReview: {
			models.StatusPendingReview,
			models.StatusUnderReview,
		},
		models.StatusUnderReview: {
			models.StatusUnderReview,
			models.StatusMoreInfoRequired,
			models.StatusApproved,
			models.StatusRejected,
		},
		models.StatusMoreInfoRequired: {
			models.StatusMoreInfoRequired,
			models.StatusUnderReview,
		},
		models.StatusApproved: {models.StatusApproved},
		models.StatusRejected: {models.StatusRejected},
	}
}

// Permissive reports whether the policy skips transition checks.
func (p Policy) Permissive() bool { return p.Transitions == nil }

// Allows reports whether from may move to to.
func (p Policy) Allows(from, to models.Status) bool {
	if p.Permissive() {
		return true
	}
	for _, next := range p.Transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
