package entity

import (
	"time"

	"github.com/google/uuid"
)

// TenderStatus represents the lifecycle state of a tender.
// Transitions only ever move forward; there is no edge back to DRAFT.
type TenderStatus string

const (
	// TenderDraft is the initial, mutable state. Only DRAFT tenders may be updated or deleted.
	TenderDraft TenderStatus = "DRAFT"
	// TenderPublished is the open-for-bidding state. Published tenders are immutable.
	TenderPublished TenderStatus = "PUBLISHED"
	// TenderCancelled is a terminal state reachable from PUBLISHED.
	TenderCancelled TenderStatus = "CANCELLED"
	// TenderEvaluated means bidding has closed and bids are being scored.
	TenderEvaluated TenderStatus = "EVALUATED"
	// TenderAwarded is the terminal state once a winning bid has been selected.
	TenderAwarded TenderStatus = "AWARDED"
)

// IsValid checks if the TenderStatus is a valid value.
func (s TenderStatus) IsValid() bool {
	switch s {
	case TenderDraft, TenderPublished, TenderCancelled, TenderEvaluated, TenderAwarded:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the forward edge s -> next exists in the
// tender state machine: DRAFT -> PUBLISHED -> {CANCELLED | EVALUATED -> AWARDED}.
func (s TenderStatus) CanTransitionTo(next TenderStatus) bool {
	switch s {
	case TenderDraft:
		return next == TenderPublished
	case TenderPublished:
		return next == TenderCancelled || next == TenderEvaluated
	case TenderEvaluated:
		return next == TenderAwarded
	default:
		return false
	}
}

// TenderCategory classifies what is being procured.
type TenderCategory string

const (
	CategoryGoods       TenderCategory = "goods"
	CategoryServices    TenderCategory = "services"
	CategoryWorks       TenderCategory = "works"
	CategoryConsultancy TenderCategory = "consultancy"
)

// IsValid checks if the TenderCategory is a valid value.
func (c TenderCategory) IsValid() bool {
	switch c {
	case CategoryGoods, CategoryServices, CategoryWorks, CategoryConsultancy:
		return true
	default:
		return false
	}
}

// OpeningDateOffset is the fixed interval between the submission deadline and
// the public bid-opening date.
const OpeningDateOffset = 24 * time.Hour

// MinDeadlineLead is the minimum interval between tender creation and its
// submission deadline.
const MinDeadlineLead = 7 * 24 * time.Hour

// Tender is a procurement request published by a government agency.
// It is owned by the procurement officer who created it; nobody else may
// mutate it, and mutation is only legal per the state machine above.
type Tender struct {
	ID                  uuid.UUID      // The unique identifier for the tender.
	Title               string         // Short human-readable title.
	Description         string         // Full description of the procurement.
	Category            TenderCategory // goods, services, works or consultancy.
	EstimatedValue      float64        // Estimated contract value.
	SubmissionDeadline  time.Time      // Bids must be created before this instant.
	OpeningDate         time.Time      // Derived: SubmissionDeadline + OpeningDateOffset.
	ProcurementMethod   string         // e.g. "open", "restricted", "direct".
	EligibilityCriteria string         // Structured JSON document describing who may bid.
	EvaluationCriteria  string         // Structured JSON document describing scoring.
	Terms               string         // Contractual terms text.
	Status              TenderStatus   // Current lifecycle state.
	CreatedBy           uuid.UUID      // Account of the owning procurement officer.
	OrganizationID      uuid.UUID      // The procuring agency.
	PublishedAt         *time.Time     // Set atomically with the PUBLISHED transition.
	AwardedBidID        *uuid.UUID     // Winning bid, set on the AWARDED transition.
	CreatedAt           time.Time      // Timestamp of creation.
	UpdatedAt           time.Time      // Timestamp of the last modification.
}

// IsOpenForBids reports whether a bid may be created against this tender at
// the given instant: the tender must be published with a deadline in the future.
func (t *Tender) IsOpenForBids(now time.Time) bool {
	return t.Status == TenderPublished && now.Before(t.SubmissionDeadline)
}

// DeadlinePassed reports whether the submission deadline lies at or before now.
func (t *Tender) DeadlinePassed(now time.Time) bool {
	return !now.Before(t.SubmissionDeadline)
}
