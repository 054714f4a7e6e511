package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "procura/internal/delivery/context"
	"procura/internal/domain/entity"
	domainerrors "procura/internal/domain/errors"
	"procura/internal/domain/policy"
	"procura/internal/domain/repository"
	"procura/internal/usecase"
)

// bidService implements the BidUsecase interface.
type bidService struct {
	bidRepo    repository.BidRepository
	tenderRepo repository.TenderRepository
	logger     *slog.Logger
}

// BidServiceParams holds dependencies for bidService, injected by Fx.
type BidServiceParams struct {
	fx.In

	BidRepo    repository.BidRepository
	TenderRepo repository.TenderRepository
	Logger     *slog.Logger
}

// NewBidService is the constructor for bidService.
func NewBidService(params BidServiceParams) usecase.BidUsecase {
	return &bidService{
		bidRepo:    params.BidRepo,
		tenderRepo: params.TenderRepo,
		logger:     params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *bidService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateBid opens a DRAFT bid against a published tender. The one-bid-per-
// organization rule is enforced by the composite unique constraint in the
// store; a lost race surfaces here as ErrDuplicateBid, never as a second row.
func (srv *bidService) CreateBid(ctx context.Context, input *usecase.CreateBidInput) (*entity.Bid, error) {
	srv.log(ctx).Info("Creating bid", slog.Any("tenderID", input.TenderID), slog.Any("accountID", input.Actor.AccountID))

	if !policy.CanCreateBid(input.Actor.Role) {
		return nil, errors.Wrap(domainerrors.ErrForbidden, "role may not place bids")
	}
	if input.Actor.OrganizationID == nil {
		return nil, errors.Wrap(domainerrors.ErrNoOrganization, "bid creation failed")
	}

	tender, err := srv.findTender(ctx, input.TenderID)
	if err != nil {
		return nil, err
	}
	if err := srv.checkOpenForBids(tender, time.Now()); err != nil {
		return nil, err
	}

	bid := &entity.Bid{
		TenderID:       tender.ID,
		OrganizationID: *input.Actor.OrganizationID,
		SubmittedBy:    input.Actor.AccountID,
		Amount:         input.Amount,
		Proposal:       input.Proposal,
		Status:         entity.BidDraft,
	}

	if err := srv.bidRepo.Create(ctx, bid); err != nil {
		if errors.Is(err, repository.ErrDuplicateBid) {
			return nil, errors.Wrap(domainerrors.ErrDuplicateBid, "bid creation failed")
		}
		if errors.Is(err, repository.ErrTenderNotFound) {
			return nil, errors.Wrap(domainerrors.ErrTenderNotFound, "bid creation failed")
		}

		return nil, errors.Wrap(err, "failed to create bid")
	}

	srv.log(ctx).Debug("Bid created", slog.Any("bidID", bid.ID))

	return bid, nil
}

// SubmitBid performs the DRAFT -> SUBMITTED transition, stamping SubmittedAt.
func (srv *bidService) SubmitBid(ctx context.Context, actor usecase.Actor, bidID uuid.UUID) (*entity.Bid, error) {
	srv.log(ctx).Info("Submitting bid", slog.Any("bidID", bidID))

	bid, tender, err := srv.loadManagedBid(ctx, actor, bidID)
	if err != nil {
		return nil, err
	}

	if !bid.Status.CanTransitionTo(entity.BidSubmitted) {
		return nil, errors.Wrap(domainerrors.ErrBidInvalidState, "bid cannot be submitted from its current state")
	}

	now := time.Now()
	if tender.DeadlinePassed(now) {
		return nil, errors.Wrap(domainerrors.ErrTenderDeadlinePassed, "bid submission failed")
	}

	bid.Status = entity.BidSubmitted
	bid.SubmittedAt = &now

	if err := srv.bidRepo.Update(ctx, bid); err != nil {
		return nil, errors.Wrap(err, "failed to submit bid")
	}

	srv.log(ctx).Info("Bid submitted", slog.Any("bidID", bid.ID))

	return bid, nil
}

// UpdateBid replaces content of a DRAFT or SUBMITTED bid before the deadline.
func (srv *bidService) UpdateBid(ctx context.Context, input *usecase.UpdateBidInput) (*entity.Bid, error) {
	srv.log(ctx).Debug("Updating bid", slog.Any("bidID", input.BidID))

	bid, tender, err := srv.loadManagedBid(ctx, input.Actor, input.BidID)
	if err != nil {
		return nil, err
	}

	if !bid.Editable() {
		return nil, errors.Wrap(domainerrors.ErrBidInvalidState, "bid is no longer editable")
	}
	if tender.DeadlinePassed(time.Now()) {
		return nil, errors.Wrap(domainerrors.ErrTenderDeadlinePassed, "bid update failed")
	}

	if input.Amount != nil {
		bid.Amount = *input.Amount
	}
	if input.Proposal != nil {
		bid.Proposal = *input.Proposal
	}

	if err := srv.bidRepo.Update(ctx, bid); err != nil {
		return nil, errors.Wrap(err, "failed to update bid")
	}

	return bid, nil
}

// WithdrawBid performs the SUBMITTED -> WITHDRAWN transition. Withdrawal is
// terminal; the unique constraint still holds the slot, so a withdrawn
// organization cannot re-bid on the same tender.
func (srv *bidService) WithdrawBid(ctx context.Context, actor usecase.Actor, bidID uuid.UUID) (*entity.Bid, error) {
	srv.log(ctx).Info("Withdrawing bid", slog.Any("bidID", bidID))

	bid, _, err := srv.loadManagedBid(ctx, actor, bidID)
	if err != nil {
		return nil, err
	}

	if !bid.Status.CanTransitionTo(entity.BidWithdrawn) {
		return nil, errors.Wrap(domainerrors.ErrBidInvalidState, "bid cannot be withdrawn from its current state")
	}

	bid.Status = entity.BidWithdrawn

	if err := srv.bidRepo.Update(ctx, bid); err != nil {
		return nil, errors.Wrap(err, "failed to withdraw bid")
	}

	return bid, nil
}

// EvaluateBid records technical and financial scores on an UNDER_REVIEW bid.
// Scoring does not change the bid's state; acceptance and rejection happen on
// the award.
func (srv *bidService) EvaluateBid(ctx context.Context, input *usecase.EvaluateBidInput) (*entity.Bid, error) {
	srv.log(ctx).Info("Evaluating bid", slog.Any("bidID", input.BidID))

	bid, err := srv.findBid(ctx, input.BidID)
	if err != nil {
		return nil, err
	}
	tender, err := srv.findTender(ctx, bid.TenderID)
	if err != nil {
		return nil, err
	}

	if !policy.CanEvaluateBids(input.Actor.Role, input.Actor.AccountID, tender) {
		return nil, errors.Wrap(domainerrors.ErrForbidden, "account may not evaluate bids on this tender")
	}
	if bid.Status != entity.BidUnderReview {
		return nil, errors.Wrap(domainerrors.ErrBidInvalidState, "only bids under review may be scored")
	}

	technical := input.TechnicalScore
	financial := input.FinancialScore
	bid.TechnicalScore = &technical
	bid.FinancialScore = &financial

	if err := srv.bidRepo.Update(ctx, bid); err != nil {
		return nil, errors.Wrap(err, "failed to record bid scores")
	}

	return bid, nil
}

// DeleteBid removes a DRAFT bid, freeing the organization's slot on the tender.
func (srv *bidService) DeleteBid(ctx context.Context, actor usecase.Actor, bidID uuid.UUID) error {
	srv.log(ctx).Info("Deleting bid", slog.Any("bidID", bidID))

	bid, _, err := srv.loadManagedBid(ctx, actor, bidID)
	if err != nil {
		return err
	}

	if bid.Status != entity.BidDraft {
		return errors.Wrap(domainerrors.ErrBidInvalidState, "only draft bids may be deleted")
	}

	if err := srv.bidRepo.Delete(ctx, bidID); err != nil {
		return errors.Wrap(err, "failed to delete bid")
	}

	return nil
}

// GetBid retrieves one bid, subject to ownership visibility rules.
func (srv *bidService) GetBid(ctx context.Context, actor usecase.Actor, bidID uuid.UUID) (*entity.Bid, error) {
	bid, err := srv.findBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	tender, err := srv.findTender(ctx, bid.TenderID)
	if err != nil {
		return nil, err
	}

	// Bids outside the actor's sight are hidden, not forbidden.
	if !policy.CanViewBid(actor.Role, actor.AccountID, actor.OrganizationID, bid, tender) {
		return nil, errors.Wrap(domainerrors.ErrBidNotFound, "bid lookup failed")
	}

	return bid, nil
}

// ListTenderBids retrieves all bids of a tender for its owner or an auditor.
func (srv *bidService) ListTenderBids(ctx context.Context, actor usecase.Actor, tenderID uuid.UUID) ([]*entity.Bid, error) {
	tender, err := srv.findTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	if !policy.CanListTenderBids(actor.Role, actor.AccountID, tender) {
		return nil, errors.Wrap(domainerrors.ErrForbidden, "account may not list bids of this tender")
	}

	bids, err := srv.bidRepo.ListByTender(ctx, tenderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tender bids")
	}

	return bids, nil
}

// ListOwnBids retrieves the actor organization's own bids.
func (srv *bidService) ListOwnBids(ctx context.Context, actor usecase.Actor) ([]*entity.Bid, error) {
	if actor.OrganizationID == nil {
		return nil, errors.Wrap(domainerrors.ErrNoOrganization, "bid listing failed")
	}

	bids, err := srv.bidRepo.ListByOrganization(ctx, *actor.OrganizationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list own bids")
	}

	return bids, nil
}

// findBid loads a bid and translates the not-found error.
func (srv *bidService) findBid(ctx context.Context, bidID uuid.UUID) (*entity.Bid, error) {
	bid, err := srv.bidRepo.FindByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, repository.ErrBidNotFound) {
			return nil, errors.Wrap(domainerrors.ErrBidNotFound, "bid lookup failed")
		}

		return nil, errors.Wrap(err, "failed to load bid")
	}

	return bid, nil
}

// findTender loads a tender and translates the not-found error.
func (srv *bidService) findTender(ctx context.Context, tenderID uuid.UUID) (*entity.Tender, error) {
	tender, err := srv.tenderRepo.FindByID(ctx, tenderID)
	if err != nil {
		if errors.Is(err, repository.ErrTenderNotFound) {
			return nil, errors.Wrap(domainerrors.ErrTenderNotFound, "tender lookup failed")
		}

		return nil, errors.Wrap(err, "failed to load tender")
	}

	return tender, nil
}

// checkOpenForBids verifies the tender accepts new bids at the given instant.
func (srv *bidService) checkOpenForBids(tender *entity.Tender, now time.Time) error {
	if tender.Status != entity.TenderPublished {
		return errors.Wrap(domainerrors.ErrTenderInvalidState, "tender is not open for bidding")
	}
	if tender.DeadlinePassed(now) {
		return errors.Wrap(domainerrors.ErrTenderDeadlinePassed, "tender is no longer open for bidding")
	}

	return nil
}

// loadManagedBid loads a bid with its tender and verifies the actor's
// organization owns the bid.
func (srv *bidService) loadManagedBid(ctx context.Context, actor usecase.Actor, bidID uuid.UUID) (*entity.Bid, *entity.Tender, error) {
	bid, err := srv.findBid(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}

	if !policy.CanManageBid(actor.Role, actor.OrganizationID, bid) {
		return nil, nil, errors.Wrap(domainerrors.ErrForbidden, "account may not manage this bid")
	}

	tender, err := srv.findTender(ctx, bid.TenderID)
	if err != nil {
		return nil, nil, err
	}

	return bid, tender, nil
}
