package usecase

import (
	"context"

	"github.com/google/uuid"

	"procura/internal/domain/entity"
)

// --- Input DTOs ---

// CreateBidInput defines the data required to open a draft bid.
type CreateBidInput struct {
	Actor    Actor
	TenderID uuid.UUID
	Amount   float64
	Proposal string
}

// UpdateBidInput carries replacement content for an editable bid.
// Nil pointers leave the corresponding field untouched.
type UpdateBidInput struct {
	Actor    Actor
	BidID    uuid.UUID
	Amount   *float64
	Proposal *string
}

// EvaluateBidInput records scores for a bid under review.
type EvaluateBidInput struct {
	Actor          Actor
	BidID          uuid.UUID
	TechnicalScore float64
	FinancialScore float64
}

// BidUsecase defines the interface for bid lifecycle operations.
type BidUsecase interface {
	// CreateBid opens a DRAFT bid against a published tender whose deadline
	// has not passed. At most one bid per organization per tender.
	CreateBid(ctx context.Context, input *CreateBidInput) (*entity.Bid, error)

	// SubmitBid performs the DRAFT -> SUBMITTED transition before the deadline.
	SubmitBid(ctx context.Context, actor Actor, bidID uuid.UUID) (*entity.Bid, error)

	// UpdateBid replaces content of a DRAFT or SUBMITTED bid before the deadline.
	UpdateBid(ctx context.Context, input *UpdateBidInput) (*entity.Bid, error)

	// WithdrawBid performs the SUBMITTED -> WITHDRAWN transition.
	WithdrawBid(ctx context.Context, actor Actor, bidID uuid.UUID) (*entity.Bid, error)

	// EvaluateBid records technical and financial scores on an UNDER_REVIEW
	// bid of the actor's own tender.
	EvaluateBid(ctx context.Context, input *EvaluateBidInput) (*entity.Bid, error)

	// DeleteBid removes a DRAFT bid.
	DeleteBid(ctx context.Context, actor Actor, bidID uuid.UUID) error

	// GetBid retrieves one bid, subject to ownership visibility rules.
	GetBid(ctx context.Context, actor Actor, bidID uuid.UUID) (*entity.Bid, error)

	// ListTenderBids retrieves all bids of a tender for its owner or an auditor.
	ListTenderBids(ctx context.Context, actor Actor, tenderID uuid.UUID) ([]*entity.Bid, error)

	// ListOwnBids retrieves the actor organization's own bids.
	ListOwnBids(ctx context.Context, actor Actor) ([]*entity.Bid, error)
}
