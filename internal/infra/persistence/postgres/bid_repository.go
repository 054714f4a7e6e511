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

// bidRepository implements the domain.BidRepository interface.
type bidRepository struct {
	db *gorm.DB
}

// NewBidRepository is the constructor for bidRepository.
func NewBidRepository(db *gorm.DB) repository.BidRepository {
	return &bidRepository{db: db}
}

// Create persists a new bid. The composite unique index on
// (tender_id, organization_id) is the authoritative one-bid-per-organization
// check; a concurrent duplicate insert surfaces here as ErrDuplicateBid.
func (repo *bidRepository) Create(ctx context.Context, bid *entity.Bid) error {
	bidM := fromBidDomain(bid)

	if err := repo.db.WithContext(ctx).Create(bidM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateBid
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrTenderNotFound.WrapMessage("invalid tender reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create bid")
	}

	bid.ID = bidM.ID
	bid.CreatedAt = bidM.CreatedAt
	bid.UpdatedAt = bidM.UpdatedAt

	return nil
}

// FindByID retrieves a single bid by its unique ID.
func (repo *bidRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	bidM := new(model.BidModel)
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(bidM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBidNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toBidDomain(bidM), nil
}

// Update persists all mutable fields of a bid.
func (repo *bidRepository) Update(ctx context.Context, bid *entity.Bid) error {
	bidM := fromBidDomain(bid)

	result := repo.db.WithContext(ctx).
		Model(&model.BidModel{}).
		Where("id = ?", bid.ID).
		Select("*").
		Omit("id", "created_at", "tender_id", "organization_id").
		Updates(bidM)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update bid")
	}
	if result.RowsAffected == 0 {
		return repository.ErrBidNotFound
	}

	return nil
}

// Delete removes a bid. The use case layer only calls this for DRAFT bids.
func (repo *bidRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.BidModel{})
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrBidNotFound
	}

	return nil
}

// ListByTender retrieves all bids against a tender, newest first.
func (repo *bidRepository) ListByTender(ctx context.Context, tenderID uuid.UUID) ([]*entity.Bid, error) {
	var bidModels []*model.BidModel
	if err := repo.db.WithContext(ctx).
		Where("tender_id = ?", tenderID).
		Order("created_at DESC").
		Find(&bidModels).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	return toBidDomainSlice(bidModels), nil
}

// ListByTenderAndOrganization retrieves the bids one organization holds
// against a tender. At most one element given the unique constraint.
func (repo *bidRepository) ListByTenderAndOrganization(ctx context.Context, tenderID, orgID uuid.UUID) ([]*entity.Bid, error) {
	var bidModels []*model.BidModel
	if err := repo.db.WithContext(ctx).
		Where("tender_id = ? AND organization_id = ?", tenderID, orgID).
		Find(&bidModels).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	return toBidDomainSlice(bidModels), nil
}

// ListByOrganization retrieves all bids owned by an organization.
func (repo *bidRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*entity.Bid, error) {
	var bidModels []*model.BidModel
	if err := repo.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&bidModels).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	return toBidDomainSlice(bidModels), nil
}

// --- Mapper Functions ---

func toBidDomainSlice(models []*model.BidModel) []*entity.Bid {
	bids := make([]*entity.Bid, 0, len(models))
	for _, bidM := range models {
		bids = append(bids, toBidDomain(bidM))
	}

	return bids
}

func toBidDomain(data *model.BidModel) *entity.Bid {
	if data == nil {
		return nil
	}

	return &entity.Bid{
		ID:             data.ID,
		TenderID:       data.TenderID,
		OrganizationID: data.OrganizationID,
		SubmittedBy:    data.SubmittedBy,
		Amount:         data.Amount,
		Proposal:       data.Proposal,
		Status:         entity.BidStatus(data.Status),
		TechnicalScore: data.TechnicalScore,
		FinancialScore: data.FinancialScore,
		SubmittedAt:    data.SubmittedAt,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
}

func fromBidDomain(data *entity.Bid) *model.BidModel {
	if data == nil {
		return nil
	}

	return &model.BidModel{
		ID:             data.ID,
		TenderID:       data.TenderID,
		OrganizationID: data.OrganizationID,
		SubmittedBy:    data.SubmittedBy,
		Amount:         data.Amount,
		Proposal:       data.Proposal,
		Status:         string(data.Status),
		TechnicalScore: data.TechnicalScore,
		FinancialScore: data.FinancialScore,
		SubmittedAt:    data.SubmittedAt,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
}
