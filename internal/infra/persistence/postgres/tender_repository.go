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

// tenderRepository implements the domain.TenderRepository interface.
type tenderRepository struct {
	db *gorm.DB
}

// NewTenderRepository is the constructor for tenderRepository.
func NewTenderRepository(db *gorm.DB) repository.TenderRepository {
	return &tenderRepository{db: db}
}

// Create persists a new tender.
func (repo *tenderRepository) Create(ctx context.Context, tender *entity.Tender) error {
	tenderM := fromTenderDomain(tender)

	if err := repo.db.WithContext(ctx).Create(tenderM).Error; err != nil {
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required tender information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create tender")
	}

	tender.ID = tenderM.ID
	tender.CreatedAt = tenderM.CreatedAt
	tender.UpdatedAt = tenderM.UpdatedAt

	return nil
}

// FindByID retrieves a single tender by its unique ID.
func (repo *tenderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Tender, error) {
	tenderM := new(model.TenderModel)
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(tenderM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTenderNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toTenderDomain(tenderM), nil
}

// Update persists all mutable fields of a tender. Status transitions carry
// their timestamps in the same UPDATE so they land atomically.
func (repo *tenderRepository) Update(ctx context.Context, tender *entity.Tender) error {
	tenderM := fromTenderDomain(tender)

	result := repo.db.WithContext(ctx).
		Model(&model.TenderModel{}).
		Where("id = ?", tender.ID).
		Select("*").
		Omit("id", "created_at", "created_by").
		Updates(tenderM)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update tender")
	}
	if result.RowsAffected == 0 {
		return repository.ErrTenderNotFound
	}

	return nil
}

// Delete removes a tender. The use case layer only calls this for DRAFT tenders.
func (repo *tenderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.TenderModel{})
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrTenderNotFound
	}

	return nil
}

// List retrieves tenders matching the filter, newest first.
func (repo *tenderRepository) List(ctx context.Context, filter repository.TenderFilter) ([]*entity.Tender, error) {
	query := repo.db.WithContext(ctx).Model(&model.TenderModel{})

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.CreatedBy != uuid.Nil {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", string(filter.Category))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var tenderModels []*model.TenderModel
	if err := query.Order("created_at DESC").Find(&tenderModels).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	tenders := make([]*entity.Tender, 0, len(tenderModels))
	for _, tenderM := range tenderModels {
		tenders = append(tenders, toTenderDomain(tenderM))
	}

	return tenders, nil
}

// --- Mapper Functions ---

func toTenderDomain(data *model.TenderModel) *entity.Tender {
	if data == nil {
		return nil
	}

	return &entity.Tender{
		ID:                  data.ID,
		Title:               data.Title,
		Description:         data.Description,
		Category:            entity.TenderCategory(data.Category),
		EstimatedValue:      data.EstimatedValue,
		SubmissionDeadline:  data.SubmissionDeadline,
		OpeningDate:         data.OpeningDate,
		ProcurementMethod:   data.ProcurementMethod,
		EligibilityCriteria: data.EligibilityCriteria,
		EvaluationCriteria:  data.EvaluationCriteria,
		Terms:               data.Terms,
		Status:              entity.TenderStatus(data.Status),
		CreatedBy:           data.CreatedBy,
		OrganizationID:      data.OrganizationID,
		PublishedAt:         data.PublishedAt,
		AwardedBidID:        data.AwardedBidID,
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}
}

func fromTenderDomain(data *entity.Tender) *model.TenderModel {
	if data == nil {
		return nil
	}

	return &model.TenderModel{
		ID:                  data.ID,
		Title:               data.Title,
		Description:         data.Description,
		Category:            string(data.Category),
		EstimatedValue:      data.EstimatedValue,
		SubmissionDeadline:  data.SubmissionDeadline,
		OpeningDate:         data.OpeningDate,
		ProcurementMethod:   data.ProcurementMethod,
		EligibilityCriteria: data.EligibilityCriteria,
		EvaluationCriteria:  data.EvaluationCriteria,
		Terms:               data.Terms,
		Status:              string(data.Status),
		CreatedBy:           data.CreatedBy,
		OrganizationID:      data.OrganizationID,
		PublishedAt:         data.PublishedAt,
		AwardedBidID:        data.AwardedBidID,
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}
}
