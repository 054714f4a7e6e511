package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"procura/config"
	deliverycontext "procura/internal/delivery/context"
	"procura/internal/domain/entity"
	domainerrors "procura/internal/domain/errors"
	"procura/internal/domain/policy"
	"procura/internal/domain/repository"
	"procura/internal/usecase"
)

// tenderService implements the TenderUsecase interface.
type tenderService struct {
	txManager       repository.TransactionManager
	tenderRepo      repository.TenderRepository
	bidRepo         repository.BidRepository
	minDeadlineLead time.Duration
	logger          *slog.Logger
}

// TenderServiceParams holds dependencies for tenderService, injected by Fx.
type TenderServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	TenderRepo repository.TenderRepository
	BidRepo    repository.BidRepository
	Config     *config.Config
	Logger     *slog.Logger
}

// NewTenderService is the constructor for tenderService.
func NewTenderService(params TenderServiceParams) usecase.TenderUsecase {
	minDeadlineLead := entity.MinDeadlineLead
	if params.Config != nil && params.Config.Tender != nil && params.Config.Tender.MinDeadlineLead > 0 {
		minDeadlineLead = params.Config.Tender.MinDeadlineLead
	}

	return &tenderService{
		txManager:       params.TxManager,
		tenderRepo:      params.TenderRepo,
		bidRepo:         params.BidRepo,
		minDeadlineLead: minDeadlineLead,
		logger:          params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *tenderService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateTender opens a new tender in DRAFT state.
func (srv *tenderService) CreateTender(ctx context.Context, input *usecase.CreateTenderInput) (*entity.Tender, error) {
	srv.log(ctx).Info("Creating tender", slog.Any("accountID", input.Actor.AccountID), slog.String("title", input.Title))

	if !policy.CanCreateTender(input.Actor.Role) {
		return nil, errors.Wrap(domainerrors.ErrForbidden, "role may not create tenders")
	}
	if input.Actor.OrganizationID == nil {
		return nil, errors.Wrap(domainerrors.ErrNoOrganization, "tender creation requires an agency")
	}
	if !input.Category.IsValid() {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "unknown tender category")
	}
	if err := srv.checkDeadlineLead(input.SubmissionDeadline, time.Now()); err != nil {
		return nil, err
	}

	tender := &entity.Tender{
		Title:               input.Title,
		Description:         input.Description,
		Category:            input.Category,
		EstimatedValue:      input.EstimatedValue,
		SubmissionDeadline:  input.SubmissionDeadline,
		OpeningDate:         input.SubmissionDeadline.Add(entity.OpeningDateOffset),
		ProcurementMethod:   input.ProcurementMethod,
		EligibilityCriteria: input.EligibilityCriteria,
		EvaluationCriteria:  input.EvaluationCriteria,
		Terms:               input.Terms,
		Status:              entity.TenderDraft,
		CreatedBy:           input.Actor.AccountID,
		OrganizationID:      *input.Actor.OrganizationID,
	}

	if err := srv.tenderRepo.Create(ctx, tender); err != nil {
		srv.log(ctx).Error("Failed to create tender", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create tender")
	}

	srv.log(ctx).Debug("Tender created", slog.Any("tenderID", tender.ID))

	return tender, nil
}

// checkDeadlineLead enforces the minimum interval between now and the
// submission deadline.
func (srv *tenderService) checkDeadlineLead(deadline, now time.Time) error {
	if deadline.Before(now.Add(srv.minDeadlineLead)) {
		return errors.Wrap(domainerrors.ErrTenderDeadlineTooSoon, "submission deadline too soon")
	}

	return nil
}

// UpdateTender replaces content fields of a DRAFT tender. Published tenders
// are immutable in every field.
func (srv *tenderService) UpdateTender(ctx context.Context, input *usecase.UpdateTenderInput) (*entity.Tender, error) {
	srv.log(ctx).Debug("Updating tender", slog.Any("tenderID", input.TenderID))

	tender, err := srv.loadManagedTender(ctx, input.Actor, input.TenderID)
	if err != nil {
		return nil, err
	}

	if tender.Status != entity.TenderDraft {
		return nil, errors.Wrap(domainerrors.ErrTenderInvalidState, "only draft tenders may be updated")
	}

	if input.Title != nil {
		tender.Title = *input.Title
	}
	if input.Description != nil {
		tender.Description = *input.Description
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, errors.Wrap(domainerrors.ErrValidationFailed, "unknown tender category")
		}
		tender.Category = *input.Category
	}
	if input.EstimatedValue != nil {
		tender.EstimatedValue = *input.EstimatedValue
	}
	if input.SubmissionDeadline != nil {
		if err := srv.checkDeadlineLead(*input.SubmissionDeadline, time.Now()); err != nil {
			return nil, err
		}
		tender.SubmissionDeadline = *input.SubmissionDeadline
		tender.OpeningDate = input.SubmissionDeadline.Add(entity.OpeningDateOffset)
	}
	if input.ProcurementMethod != nil {
		tender.ProcurementMethod = *input.ProcurementMethod
	}
	if input.EligibilityCriteria != nil {
		tender.EligibilityCriteria = *input.EligibilityCriteria
	}
	if input.EvaluationCriteria != nil {
		tender.EvaluationCriteria = *input.EvaluationCriteria
	}
	if input.Terms != nil {
		tender.Terms = *input.Terms
	}

	if err := srv.tenderRepo.Update(ctx, tender); err != nil {
		return nil, errors.Wrap(err, "failed to update tender")
	}

	return tender, nil
}

// PublishTender performs the DRAFT -> PUBLISHED transition. The status change,
// PublishedAt stamp and derived opening date land in one store write.
func (srv *tenderService) PublishTender(ctx context.Context, actor usecase.Actor, tenderID uuid.UUID) (*entity.Tender, error) {
	srv.log(ctx).Info("Publishing tender", slog.Any("tenderID", tenderID))

	tender, err := srv.loadManagedTender(ctx, actor, tenderID)
	if err != nil {
		return nil, err
	}

	if !tender.Status.CanTransitionTo(entity.TenderPublished) {
		return nil, errors.Wrap(domainerrors.ErrTenderInvalidState, "tender cannot be published from its current state")
	}

	now := time.Now()
	if err := srv.checkDeadlineLead(tender.SubmissionDeadline, now); err != nil {
		return nil, err
	}

	tender.Status = entity.TenderPublished
	tender.PublishedAt = &now
	tender.OpeningDate = tender.SubmissionDeadline.Add(entity.OpeningDateOffset)

	if err := srv.tenderRepo.Update(ctx, tender); err != nil {
		return nil, errors.Wrap(err, "failed to publish tender")
	}

	srv.log(ctx).Info("Tender published", slog.Any("tenderID", tender.ID))

	return tender, nil
}

// CancelTender performs the PUBLISHED -> CANCELLED transition.
func (srv *tenderService) CancelTender(ctx context.Context, actor usecase.Actor, tenderID uuid.UUID) (*entity.Tender, error) {
	srv.log(ctx).Info("Cancelling tender", slog.Any("tenderID", tenderID))

	tender, err := srv.loadManagedTender(ctx, actor, tenderID)
	if err != nil {
		return nil, err
	}

	if !tender.Status.CanTransitionTo(entity.TenderCancelled) {
		return nil, errors.Wrap(domainerrors.ErrTenderInvalidState, "tender cannot be cancelled from its current state")
	}

	tender.Status = entity.TenderCancelled

	if err := srv.tenderRepo.Update(ctx, tender); err != nil {
		return nil, errors.Wrap(err, "failed to cancel tender")
	}

	return tender, nil
}

// CloseForEvaluation performs the PUBLISHED -> EVALUATED transition once the
// submission deadline has passed. Every SUBMITTED bid moves to UNDER_REVIEW in
// the same transaction, so a crash can never leave the tender evaluated with
// bids still pending.
func (srv *tenderService) CloseForEvaluation(ctx context.Context, actor usecase.Actor, tenderID uuid.UUID) (*entity.Tender, error) {
	srv.log(ctx).Info("Closing tender for evaluation", slog.Any("tenderID", tenderID))

	var closed *entity.Tender
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tenderRepo := repoFactory.TenderRepo()
		bidRepo := repoFactory.BidRepo()

		tender, err := srv.findTender(ctx, tenderRepo, tenderID)
		if err != nil {
			return err
		}
		if !policy.CanManageTender(actor.Role, actor.AccountID, tender) {
			return errors.Wrap(domainerrors.ErrForbidden, "account may not manage this tender")
		}
		if !tender.Status.CanTransitionTo(entity.TenderEvaluated) {
			return errors.Wrap(domainerrors.ErrTenderInvalidState, "tender cannot move to evaluation from its current state")
		}
		if !tender.DeadlinePassed(time.Now()) {
			return errors.Wrap(domainerrors.ErrTenderInvalidState, "submission deadline has not passed yet")
		}

		tender.Status = entity.TenderEvaluated
		if err := tenderRepo.Update(ctx, tender); err != nil {
			return errors.Wrap(err, "failed to close tender for evaluation")
		}

		bids, err := bidRepo.ListByTender(ctx, tenderID)
		if err != nil {
			return errors.Wrap(err, "failed to list bids for evaluation")
		}
		for _, bid := range bids {
			if bid.Status != entity.BidSubmitted {
				continue
			}
			bid.Status = entity.BidUnderReview
			if err := bidRepo.Update(ctx, bid); err != nil {
				return errors.Wrap(err, "failed to move bid under review")
			}
		}

		closed = tender

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to close tender for evaluation", slog.Any("tenderID", tenderID), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Info("Tender closed for evaluation", slog.Any("tenderID", tenderID))

	return closed, nil
}

// AwardTender performs the EVALUATED -> AWARDED transition. The winning bid
// becomes ACCEPTED and every other UNDER_REVIEW bid becomes REJECTED, all in
// one transaction.
func (srv *tenderService) AwardTender(ctx context.Context, input *usecase.AwardTenderInput) (*entity.Tender, error) {
	srv.log(ctx).Info("Awarding tender", slog.Any("tenderID", input.TenderID), slog.Any("bidID", input.BidID))

	var awarded *entity.Tender
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tenderRepo := repoFactory.TenderRepo()
		bidRepo := repoFactory.BidRepo()

		tender, err := srv.findTender(ctx, tenderRepo, input.TenderID)
		if err != nil {
			return err
		}
		if !policy.CanManageTender(input.Actor.Role, input.Actor.AccountID, tender) {
			return errors.Wrap(domainerrors.ErrForbidden, "account may not manage this tender")
		}
		if !tender.Status.CanTransitionTo(entity.TenderAwarded) {
			return errors.Wrap(domainerrors.ErrTenderInvalidState, "tender cannot be awarded from its current state")
		}

		winner, err := bidRepo.FindByID(ctx, input.BidID)
		if err != nil {
			if errors.Is(err, repository.ErrBidNotFound) {
				return errors.Wrap(domainerrors.ErrBidNotFound, "winning bid not found")
			}

			return errors.Wrap(err, "failed to load winning bid")
		}
		if winner.TenderID != tender.ID {
			return errors.Wrap(domainerrors.ErrValidationFailed, "bid does not belong to this tender")
		}
		if !winner.Status.CanTransitionTo(entity.BidAccepted) {
			return errors.Wrap(domainerrors.ErrBidInvalidState, "bid cannot be accepted from its current state")
		}

		winner.Status = entity.BidAccepted
		if err := bidRepo.Update(ctx, winner); err != nil {
			return errors.Wrap(err, "failed to accept winning bid")
		}

		bids, err := bidRepo.ListByTender(ctx, tender.ID)
		if err != nil {
			return errors.Wrap(err, "failed to list bids for award")
		}
		for _, bid := range bids {
			if bid.ID == winner.ID || bid.Status != entity.BidUnderReview {
				continue
			}
			bid.Status = entity.BidRejected
			if err := bidRepo.Update(ctx, bid); err != nil {
				return errors.Wrap(err, "failed to reject losing bid")
			}
		}

		tender.Status = entity.TenderAwarded
		tender.AwardedBidID = &winner.ID
		if err := tenderRepo.Update(ctx, tender); err != nil {
			return errors.Wrap(err, "failed to award tender")
		}

		awarded = tender

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to award tender", slog.Any("tenderID", input.TenderID), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Info("Tender awarded", slog.Any("tenderID", input.TenderID), slog.Any("bidID", input.BidID))

	return awarded, nil
}

// DeleteTender removes a DRAFT tender.
func (srv *tenderService) DeleteTender(ctx context.Context, actor usecase.Actor, tenderID uuid.UUID) error {
	srv.log(ctx).Info("Deleting tender", slog.Any("tenderID", tenderID))

	tender, err := srv.loadManagedTender(ctx, actor, tenderID)
	if err != nil {
		return err
	}

	if tender.Status != entity.TenderDraft {
		return errors.Wrap(domainerrors.ErrTenderInvalidState, "only draft tenders may be deleted")
	}

	if err := srv.tenderRepo.Delete(ctx, tenderID); err != nil {
		return errors.Wrap(err, "failed to delete tender")
	}

	return nil
}

// GetTender retrieves one tender, subject to draft visibility rules.
func (srv *tenderService) GetTender(ctx context.Context, actor usecase.Actor, tenderID uuid.UUID) (*entity.Tender, error) {
	tender, err := srv.findTender(ctx, srv.tenderRepo, tenderID)
	if err != nil {
		return nil, err
	}

	// Drafts are hidden, not forbidden: outsiders cannot probe their existence.
	if !policy.CanViewTender(actor.Role, actor.AccountID, tender) {
		return nil, errors.Wrap(domainerrors.ErrTenderNotFound, "tender lookup failed")
	}

	return tender, nil
}

// ListTenders retrieves tenders visible to the actor.
func (srv *tenderService) ListTenders(ctx context.Context, input *usecase.ListTendersInput) ([]*entity.Tender, error) {
	filter := repository.TenderFilter{
		Statuses: input.Statuses,
		Category: input.Category,
		Limit:    input.Limit,
		Offset:   input.Offset,
	}

	if input.MineOnly {
		filter.CreatedBy = input.Actor.AccountID
	}

	// Roles without draft visibility are pinned to public states.
	if !policy.CanSeeDraftTenders(input.Actor.Role) {
		filter.Statuses = withoutDraftStatuses(filter.Statuses)
	}

	tenders, err := srv.tenderRepo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tenders")
	}

	// Officers may list drafts, but only their own.
	visible := make([]*entity.Tender, 0, len(tenders))
	for _, tender := range tenders {
		if policy.CanViewTender(input.Actor.Role, input.Actor.AccountID, tender) {
			visible = append(visible, tender)
		}
	}

	return visible, nil
}

// withoutDraftStatuses narrows a status filter to public lifecycle states.
func withoutDraftStatuses(statuses []entity.TenderStatus) []entity.TenderStatus {
	if len(statuses) == 0 {
		return []entity.TenderStatus{
			entity.TenderPublished,
			entity.TenderCancelled,
			entity.TenderEvaluated,
			entity.TenderAwarded,
		}
	}

	public := make([]entity.TenderStatus, 0, len(statuses))
	for _, status := range statuses {
		if status != entity.TenderDraft {
			public = append(public, status)
		}
	}
	if len(public) == 0 {
		// Only drafts were requested; return an impossible filter rather than
		// silently widening it.
		return []entity.TenderStatus{entity.TenderPublished}
	}

	return public
}

// findTender loads a tender and translates the not-found error.
func (srv *tenderService) findTender(ctx context.Context, tenderRepo repository.TenderRepository, tenderID uuid.UUID) (*entity.Tender, error) {
	tender, err := tenderRepo.FindByID(ctx, tenderID)
	if err != nil {
		if errors.Is(err, repository.ErrTenderNotFound) {
			return nil, errors.Wrap(domainerrors.ErrTenderNotFound, "tender lookup failed")
		}

		return nil, errors.Wrap(err, "failed to load tender")
	}

	return tender, nil
}

// loadManagedTender loads a tender and verifies the actor may manage it.
func (srv *tenderService) loadManagedTender(ctx context.Context, actor usecase.Actor, tenderID uuid.UUID) (*entity.Tender, error) {
	tender, err := srv.findTender(ctx, srv.tenderRepo, tenderID)
	if err != nil {
		return nil, err
	}

	if !policy.CanManageTender(actor.Role, actor.AccountID, tender) {
		return nil, errors.Wrap(domainerrors.ErrForbidden, "account may not manage this tender")
	}

	return tender, nil
}
