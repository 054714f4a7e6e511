package repository

import (
	"context"
	"errors"

	"procura/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for bid persistence.
var (
	// ErrBidNotFound is returned when a bid is not found.
	ErrBidNotFound = errors.New("bid not found")
	// ErrDuplicateBid is returned when the (tender, organization) unique
	// constraint is violated. The constraint closes the race window between an
	// application-level existence check and the insert.
	ErrDuplicateBid = errors.New("organization already has a bid for this tender")
)

// BidRepository defines the standard operations for bid persistence.
type BidRepository interface {
	// Create persists a new bid. Returns ErrDuplicateBid when the submitting
	// organization already has a bid for the tender.
	Create(ctx context.Context, bid *entity.Bid) error

	// FindByID retrieves a single bid by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error)

	// Update persists all mutable fields of a bid.
	Update(ctx context.Context, bid *entity.Bid) error

	// Delete removes a bid. The use case layer only calls this for DRAFT bids.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByTender retrieves all bids against a tender, newest first.
	ListByTender(ctx context.Context, tenderID uuid.UUID) ([]*entity.Bid, error)

	// ListByTenderAndOrganization retrieves the bids one organization holds
	// against a tender. At most one element given the unique constraint.
	ListByTenderAndOrganization(ctx context.Context, tenderID, orgID uuid.UUID) ([]*entity.Bid, error)

	// ListByOrganization retrieves all bids owned by an organization.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*entity.Bid, error)
}
