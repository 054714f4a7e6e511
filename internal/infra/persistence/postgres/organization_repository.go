package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"procura/internal/domain/entity"
	domainerrors "procura/internal/domain/errors"
	"procura/internal/domain/repository"
	"procura/internal/infra/persistence/model"
)

// organizationRepository implements the domain.OrganizationRepository interface.
type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository is the constructor for organizationRepository.
func NewOrganizationRepository(db *gorm.DB) repository.OrganizationRepository {
	return &organizationRepository{db: db}
}

// Create persists a new organization.
func (repo *organizationRepository) Create(ctx context.Context, org *entity.Organization) error {
	orgM := fromOrganizationDomain(org)

	if err := repo.db.WithContext(ctx).Create(orgM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("organization already registered")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create organization")
	}

	org.ID = orgM.ID
	org.CreatedAt = orgM.CreatedAt
	org.UpdatedAt = orgM.UpdatedAt

	return nil
}

// FindByID retrieves a single organization by its unique ID.
func (repo *organizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Organization, error) {
	orgM := new(model.OrganizationModel)
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(orgM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOrganizationNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toOrganizationDomain(orgM), nil
}

// FindByName retrieves a single organization by its legal name.
func (repo *organizationRepository) FindByName(ctx context.Context, name string) (*entity.Organization, error) {
	orgM := new(model.OrganizationModel)
	if err := repo.db.WithContext(ctx).
		Where("name = ?", name).
		First(orgM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOrganizationNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toOrganizationDomain(orgM), nil
}

// --- Mapper Functions ---

func toOrganizationDomain(data *model.OrganizationModel) *entity.Organization {
	if data == nil {
		return nil
	}

	return &entity.Organization{
		ID:                 data.ID,
		Name:               data.Name,
		RegistrationNumber: data.RegistrationNumber,
		Type:               entity.OrganizationType(data.Type),
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
	}
}

func fromOrganizationDomain(data *entity.Organization) *model.OrganizationModel {
	if data == nil {
		return nil
	}

	return &model.OrganizationModel{
		ID:                 data.ID,
		Name:               data.Name,
		RegistrationNumber: data.RegistrationNumber,
		Type:               string(data.Type),
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
	}
}
