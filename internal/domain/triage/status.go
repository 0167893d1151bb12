package triage

import (
	"fmt"
	"strings"
)

// Status is the review state shared by an application and its triage record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReview   Status = "review"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var allowedStatuses = map[Status]struct{}{
	StatusPending:  {},
	StatusReview:   {},
	StatusApproved: {},
	StatusRejected: {},
}

// ParseStatus trims and lowercases raw before validating it.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := allowedStatuses[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// Tier is the review-priority band derived from the score.
type Tier string

const (
	TierStandard Tier = "standard"
	TierReview   Tier = "review"
	TierPriority Tier = "priority"
)

const (
	priorityThreshold = 35
	reviewThreshold   = 20
)

func TierForScore(score int) Tier {
	switch {
	case score >= priorityThreshold:
		return TierPriority
	case score >= reviewThreshold:
		return TierReview
	default:
		return TierStandard
	}
}

// ParseTier falls back to standard for anything unrecognised.
func ParseTier(raw string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierPriority:
		return TierPriority
	case TierReview:
		return TierReview
	default:
		return TierStandard
	}
}
