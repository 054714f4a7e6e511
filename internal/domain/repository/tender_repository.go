package repository

import (
	"context"
	"errors"

	"procura/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrTenderNotFound is returned when a tender is not found.
var ErrTenderNotFound = errors.New("tender not found")

// TenderFilter narrows List results. Zero values mean "no restriction".
type TenderFilter struct {
	Statuses  []entity.TenderStatus // Restrict to these lifecycle states.
	CreatedBy uuid.UUID             // Restrict to tenders created by this account.
	Category  entity.TenderCategory // Restrict to one procurement category.
	Limit     int
	Offset    int
}

// TenderRepository defines the standard operations for tender persistence.
type TenderRepository interface {
	// Create persists a new tender.
	Create(ctx context.Context, tender *entity.Tender) error

	// FindByID retrieves a single tender by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Tender, error)

	// Update persists all mutable fields of a tender. Multi-field transitions
	// (status + timestamp) are applied in one store operation.
	Update(ctx context.Context, tender *entity.Tender) error

	// Delete removes a tender. The use case layer only calls this for DRAFT tenders.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves tenders matching the filter, newest first.
	List(ctx context.Context, filter TenderFilter) ([]*entity.Tender, error)
}
