package entity

import (
	"time"

	"github.com/google/uuid"
)

// BidStatus represents the lifecycle state of a bid.
type BidStatus string

const (
	// BidDraft is the initial, mutable state. Only DRAFT bids may be deleted.
	BidDraft BidStatus = "DRAFT"
	// BidSubmitted means the bid has been formally entered before the deadline.
	BidSubmitted BidStatus = "SUBMITTED"
	// BidUnderReview means an officer is scoring the bid.
	BidUnderReview BidStatus = "UNDER_REVIEW"
	// BidAccepted is the terminal winning state.
	BidAccepted BidStatus = "ACCEPTED"
	// BidRejected is a terminal losing state.
	BidRejected BidStatus = "REJECTED"
	// BidWithdrawn is the terminal state reached when a supplier pulls out.
	BidWithdrawn BidStatus = "WITHDRAWN"
)

// IsValid checks if the BidStatus is a valid value.
func (s BidStatus) IsValid() bool {
	switch s {
	case BidDraft, BidSubmitted, BidUnderReview, BidAccepted, BidRejected, BidWithdrawn:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave this state.
func (s BidStatus) IsTerminal() bool {
	switch s {
	case BidAccepted, BidRejected, BidWithdrawn:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the edge s -> next exists in the bid state
// machine: DRAFT -> SUBMITTED -> UNDER_REVIEW -> {ACCEPTED | REJECTED}, with
// SUBMITTED also allowed to move straight to WITHDRAWN or REJECTED.
func (s BidStatus) CanTransitionTo(next BidStatus) bool {
	switch s {
	case BidDraft:
		return next == BidSubmitted
	case BidSubmitted:
		return next == BidUnderReview || next == BidWithdrawn || next == BidRejected
	case BidUnderReview:
		return next == BidAccepted || next == BidRejected
	default:
		return false
	}
}

// Bid is a supplier organization's proposal against exactly one tender.
// At most one bid may exist per (tender, organization) pair; the persistence
// layer backs this invariant with a composite unique constraint.
type Bid struct {
	ID             uuid.UUID  // The unique identifier for the bid.
	TenderID       uuid.UUID  // The tender this bid answers.
	OrganizationID uuid.UUID  // The supplier organization that owns the bid.
	SubmittedBy    uuid.UUID  // Account of the supplier who entered the bid.
	Amount         float64    // Proposed contract amount.
	Proposal       string     // Free-text proposal.
	Status         BidStatus  // Current lifecycle state.
	TechnicalScore *float64   // Set during evaluation.
	FinancialScore *float64   // Set during evaluation.
	SubmittedAt    *time.Time // Stamped on the SUBMITTED transition.
	CreatedAt      time.Time  // Timestamp of creation.
	UpdatedAt      time.Time  // Timestamp of the last modification.
}

// Editable reports whether the bid content may still change: only DRAFT or
// SUBMITTED bids are editable, and only before the tender deadline (checked by
// the caller against the tender).
func (b *Bid) Editable() bool {
	return b.Status == BidDraft || b.Status == BidSubmitted
}
