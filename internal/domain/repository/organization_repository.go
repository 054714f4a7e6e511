package repository

import (
	"context"
	"errors"

	"procura/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrOrganizationNotFound is returned when an organization is not found.
var ErrOrganizationNotFound = errors.New("organization not found")

// OrganizationRepository defines the standard operations for organization persistence.
type OrganizationRepository interface {
	// Create persists a new organization.
	Create(ctx context.Context, org *entity.Organization) error

	// FindByID retrieves a single organization by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Organization, error)

	// FindByName retrieves a single organization by its legal name.
	FindByName(ctx context.Context, name string) (*entity.Organization, error)
}
