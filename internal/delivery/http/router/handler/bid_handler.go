package handler

import (
	"context"
	"log/slog"
	"net/http"

	"procura/internal/delivery/http/middleware"
	"procura/internal/delivery/http/response"
	"procura/internal/domain/entity"
	"procura/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// BidHandler holds dependencies for bid lifecycle handlers.
type BidHandler struct {
	uc     usecase.BidUsecase
	logger *slog.Logger
}

// NewBidHandler is the constructor for BidHandler, injected by Fx.
func NewBidHandler(uc usecase.BidUsecase, logger *slog.Logger) *BidHandler {
	return &BidHandler{uc: uc, logger: logger}
}

type createBidRequest struct {
	Amount   float64 `json:"amount" validate:"gt=0"`
	Proposal string  `json:"proposal"`
}

// Create opens a draft bid against the tender in the path.
func (h *BidHandler) Create(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	tenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid tender ID")
	}

	var req createBidRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid bid input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	bid, err := h.uc.CreateBid(c.Request().Context(), &usecase.CreateBidInput{
		Actor:    actor,
		TenderID: tenderID,
		Amount:   req.Amount,
		Proposal: req.Proposal,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, bid, "Bid created successfully")
}

// Submit performs the DRAFT -> SUBMITTED transition.
func (h *BidHandler) Submit(c echo.Context) error {
	return h.transition(c, h.uc.SubmitBid, "Bid submitted successfully")
}

// Withdraw performs the SUBMITTED -> WITHDRAWN transition.
func (h *BidHandler) Withdraw(c echo.Context) error {
	return h.transition(c, h.uc.WithdrawBid, "Bid withdrawn successfully")
}

// transition runs one of the single-argument lifecycle operations.
func (h *BidHandler) transition(
	c echo.Context,
	op func(ctx context.Context, actor usecase.Actor, bidID uuid.UUID) (*entity.Bid, error),
	message string,
) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid bid ID")
	}

	bid, err := op(c.Request().Context(), actor, bidID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, bid, message)
}

type updateBidRequest struct {
	Amount   *float64 `json:"amount"`
	Proposal *string  `json:"proposal"`
}

// Update replaces content of an editable bid.
func (h *BidHandler) Update(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid bid ID")
	}

	var req updateBidRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid bid input")
	}

	bid, err := h.uc.UpdateBid(c.Request().Context(), &usecase.UpdateBidInput{
		Actor:    actor,
		BidID:    bidID,
		Amount:   req.Amount,
		Proposal: req.Proposal,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, bid, "Bid updated successfully")
}

type evaluateBidRequest struct {
	TechnicalScore float64 `json:"technicalScore" validate:"gte=0,lte=100"`
	FinancialScore float64 `json:"financialScore" validate:"gte=0,lte=100"`
}

// Evaluate records scores on a bid under review.
func (h *BidHandler) Evaluate(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid bid ID")
	}

	var req evaluateBidRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid evaluation input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	bid, err := h.uc.EvaluateBid(c.Request().Context(), &usecase.EvaluateBidInput{
		Actor:          actor,
		BidID:          bidID,
		TechnicalScore: req.TechnicalScore,
		FinancialScore: req.FinancialScore,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, bid, "Bid evaluated successfully")
}

// Delete removes a draft bid.
func (h *BidHandler) Delete(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid bid ID")
	}

	if err := h.uc.DeleteBid(c.Request().Context(), actor, bidID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Bid deleted successfully")
}

// Get retrieves one bid.
func (h *BidHandler) Get(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid bid ID")
	}

	bid, err := h.uc.GetBid(c.Request().Context(), actor, bidID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, bid, "")
}

// ListByTender retrieves all bids of the tender in the path.
func (h *BidHandler) ListByTender(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	tenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid tender ID")
	}

	bids, err := h.uc.ListTenderBids(c.Request().Context(), actor, tenderID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, bids, "")
}

// ListOwn retrieves the calling organization's own bids.
func (h *BidHandler) ListOwn(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	bids, err := h.uc.ListOwnBids(c.Request().Context(), actor)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, bids, "")
}
