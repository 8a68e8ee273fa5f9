package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an ad.
type Status string

const (
	StatusPending  Status = "pending_verification"
	StatusActive   Status = "active"
	StatusSold     Status = "sold"
	StatusExpired  Status = "expired"
	StatusRejected Status = "rejected"
)

// Verification is the moderation outcome stored next to Status.
type Verification string

const (
	VerificationInReview Verification = "in_review"
	VerificationVerified Verification = "verified"
	VerificationRejected Verification = "rejected"
)

// Transition names every status change the system knows about.
type Transition string

const (
	TransitionApprove  Transition = "approve"
	TransitionReject   Transition = "reject"
	TransitionMarkSold Transition = "mark_sold"
	TransitionExpire   Transition = "expire"
	TransitionPurge    Transition = "purge"
)

const (
	PublishWindow = 7 * 24 * time.Hour
	PurgeGrace    = 14 * 24 * time.Hour
)

// Rule describes one row of the transition table. An empty FromVerification
// matches any verification value. An empty To means the row is deleted.
type Rule struct {
	From             Status
	FromVerification Verification
	To               Status
	ToVerification   Verification
}

var transitions = map[Transition]Rule{
	TransitionApprove: {
		From:             StatusPending,
		FromVerification: VerificationInReview,
		To:               StatusActive,
		ToVerification:   VerificationVerified,
	},
	TransitionReject: {
		From:             StatusPending,
		FromVerification: VerificationInReview,
		To:               StatusRejected,
		ToVerification:   VerificationRejected,
	},
	TransitionMarkSold: {
		From:             StatusActive,
		FromVerification: VerificationVerified,
		To:               StatusSold,
		ToVerification:   VerificationVerified,
	},
	TransitionExpire: {
		From:             StatusActive,
		FromVerification: VerificationVerified,
		To:               StatusExpired,
		ToVerification:   VerificationVerified,
	},
	TransitionPurge: {
		From: StatusExpired,
	},
}

var statuses = map[Status]struct{}{
	StatusPending:  {},
	StatusActive:   {},
	StatusSold:     {},
	StatusExpired:  {},
	StatusRejected: {},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statuses[st]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	for _, r := range transitions {
		if r.From == s {
			return false
		}
	}
	return true
}

// RuleFor returns the table row for t.
func RuleFor(t Transition) (Rule, error) {
	r, ok := transitions[t]
	if !ok {
		return Rule{}, fmt.Errorf("%w: unknown transition %q", ErrInvalidTransition, t)
	}
	return r, nil
}

// Next validates t against the current state and returns the resulting state.
func Next(t Transition, status Status, verification Verification) (Status, Verification, error) {
	r, err := RuleFor(t)
	if err != nil {
		return "", "", err
	}
	if status != r.From {
		return "", "", fmt.Errorf("%w: cannot %s an ad in status %s", ErrInvalidTransition, t, status)
	}
	if r.FromVerification != "" && verification != r.FromVerification {
		return "", "", fmt.Errorf("%w: cannot %s an ad with verification %s", ErrInvalidTransition, t, verification)
	}
	return r.To, r.ToVerification, nil
}
