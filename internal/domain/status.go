// Status lifecycle of a tracked job:
//
//	found            ──► interested | ready_to_apply | rejected
//	interested       ──► ready_to_apply | rejected
//	ready_to_apply   ──► applied
//	applied          ──► follow_up_needed | interview | rejected
//	follow_up_needed ──► interview | rejected
//	interview        ──► offer | rejected
//
// offer and rejected are terminal.
package domain

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusFound          Status = "found"
	StatusInterested     Status = "interested"
	StatusReadyToApply   Status = "ready_to_apply"
	StatusApplied        Status = "applied"
	StatusFollowUpNeeded Status = "follow_up_needed"
	StatusInterview      Status = "interview"
	StatusOffer          Status = "offer"
	StatusRejected       Status = "rejected"
)

// AllStatuses in lifecycle order.
var AllStatuses = []Status{
	StatusFound,
	StatusInterested,
	StatusReadyToApply,
	StatusApplied,
	StatusFollowUpNeeded,
	StatusInterview,
	StatusOffer,
	StatusRejected,
}

var validTransitions = map[Status][]Status{
	StatusFound:          {StatusInterested, StatusReadyToApply, StatusRejected},
	StatusInterested:     {StatusReadyToApply, StatusRejected},
	StatusReadyToApply:   {StatusApplied},
	StatusApplied:        {StatusFollowUpNeeded, StatusInterview, StatusRejected},
	StatusFollowUpNeeded: {StatusInterview, StatusRejected},
	StatusInterview:      {StatusOffer, StatusRejected},
}

// ParseStatus accepts the canonical lowercase names; surrounding space and
// case are ignored.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsTransitionAllowed reports whether from → to is in the transition table.
func IsTransitionAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the states reachable from s in one step.
func NextStatuses(s Status) []Status {
	out := make([]Status, len(validTransitions[s]))
	copy(out, validTransitions[s])
	return out
}

// IsTerminal is true for states without outgoing transitions.
func IsTerminal(s Status) bool { return len(validTransitions[s]) == 0 }

// IsResponse is true when moving into to means the employer answered an application.
func IsResponse(from, to Status) bool {
	if from != StatusApplied && from != StatusFollowUpNeeded {
		return false
	}
	return to == StatusInterview || to == StatusRejected
}
