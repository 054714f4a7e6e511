package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"procura/internal/delivery/http/middleware"
	"procura/internal/delivery/http/response"
	"procura/internal/domain/entity"
	"procura/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// TenderHandler holds dependencies for tender lifecycle handlers.
type TenderHandler struct {
	uc     usecase.TenderUsecase
	logger *slog.Logger
}

// NewTenderHandler is the constructor for TenderHandler, injected by Fx.
func NewTenderHandler(uc usecase.TenderUsecase, logger *slog.Logger) *TenderHandler {
	return &TenderHandler{uc: uc, logger: logger}
}

type createTenderRequest struct {
	Title               string    `json:"title" validate:"required"`
	Description         string    `json:"description"`
	Category            string    `json:"category" validate:"required"`
	EstimatedValue      float64   `json:"estimatedValue" validate:"gte=0"`
	SubmissionDeadline  time.Time `json:"submissionDeadline" validate:"required"`
	ProcurementMethod   string    `json:"procurementMethod"`
	EligibilityCriteria string    `json:"eligibilityCriteria"`
	EvaluationCriteria  string    `json:"evaluationCriteria"`
	Terms               string    `json:"terms"`
}

// Create opens a new draft tender.
func (h *TenderHandler) Create(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	var req createTenderRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid tender input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tender, err := h.uc.CreateTender(c.Request().Context(), &usecase.CreateTenderInput{
		Actor:               actor,
		Title:               req.Title,
		Description:         req.Description,
		Category:            entity.TenderCategory(req.Category),
		EstimatedValue:      req.EstimatedValue,
		SubmissionDeadline:  req.SubmissionDeadline,
		ProcurementMethod:   req.ProcurementMethod,
		EligibilityCriteria: req.EligibilityCriteria,
		EvaluationCriteria:  req.EvaluationCriteria,
		Terms:               req.Terms,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, tender, "Tender created successfully")
}

type updateTenderRequest struct {
	Title               *string    `json:"title"`
	Description         *string    `json:"description"`
	Category            *string    `json:"category"`
	EstimatedValue      *float64   `json:"estimatedValue"`
	SubmissionDeadline  *time.Time `json:"submissionDeadline"`
	ProcurementMethod   *string    `json:"procurementMethod"`
	EligibilityCriteria *string    `json:"eligibilityCriteria"`
	EvaluationCriteria  *string    `json:"evaluationCriteria"`
	Terms               *string    `json:"terms"`
}

// Update replaces content fields of a draft tender.
func (h *TenderHandler) Update(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	tenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid tender ID")
	}

	var req updateTenderRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid tender input")
	}

	input := &usecase.UpdateTenderInput{
		Actor:               actor,
		TenderID:            tenderID,
		Title:               req.Title,
		Description:         req.Description,
		EstimatedValue:      req.EstimatedValue,
		SubmissionDeadline:  req.SubmissionDeadline,
		ProcurementMethod:   req.ProcurementMethod,
		EligibilityCriteria: req.EligibilityCriteria,
		EvaluationCriteria:  req.EvaluationCriteria,
		Terms:               req.Terms,
	}
	if req.Category != nil {
		category := entity.TenderCategory(*req.Category)
		input.Category = &category
	}

	tender, err := h.uc.UpdateTender(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tender, "Tender updated successfully")
}

// Publish performs the DRAFT -> PUBLISHED transition.
func (h *TenderHandler) Publish(c echo.Context) error {
	return h.transition(c, h.uc.PublishTender, "Tender published successfully")
}

// Cancel performs the PUBLISHED -> CANCELLED transition.
func (h *TenderHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.uc.CancelTender, "Tender cancelled successfully")
}

// Close performs the PUBLISHED -> EVALUATED transition.
func (h *TenderHandler) Close(c echo.Context) error {
	return h.transition(c, h.uc.CloseForEvaluation, "Tender closed for evaluation")
}

// transition runs one of the single-argument lifecycle operations.
func (h *TenderHandler) transition(
	c echo.Context,
	op func(ctx context.Context, actor usecase.Actor, tenderID uuid.UUID) (*entity.Tender, error),
	message string,
) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	tenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid tender ID")
	}

	tender, err := op(c.Request().Context(), actor, tenderID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tender, message)
}

type awardTenderRequest struct {
	BidID uuid.UUID `json:"bidId" validate:"required"`
}

// Award performs the EVALUATED -> AWARDED transition.
func (h *TenderHandler) Award(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	tenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid tender ID")
	}

	var req awardTenderRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid award input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tender, err := h.uc.AwardTender(c.Request().Context(), &usecase.AwardTenderInput{
		Actor:    actor,
		TenderID: tenderID,
		BidID:    req.BidID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tender, "Tender awarded successfully")
}

// Delete removes a draft tender.
func (h *TenderHandler) Delete(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	tenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid tender ID")
	}

	if err := h.uc.DeleteTender(c.Request().Context(), actor, tenderID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Tender deleted successfully")
}

// Get retrieves one tender.
func (h *TenderHandler) Get(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	tenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid tender ID")
	}

	tender, err := h.uc.GetTender(c.Request().Context(), actor, tenderID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tender, "")
}

// List retrieves tenders visible to the caller. Filters come from query
// parameters: status (comma separated), category, mine, limit, offset.
func (h *TenderHandler) List(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	input := &usecase.ListTendersInput{
		Actor:    actor,
		Category: entity.TenderCategory(c.QueryParam("category")),
		MineOnly: c.QueryParam("mine") == "true",
	}

	if statusParam := c.QueryParam("status"); statusParam != "" {
		for _, s := range strings.Split(statusParam, ",") {
			status := entity.TenderStatus(strings.ToUpper(strings.TrimSpace(s)))
			if status.IsValid() {
				input.Statuses = append(input.Statuses, status)
			}
		}
	}
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if limit, err := strconv.Atoi(limitParam); err == nil {
			input.Limit = limit
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if offset, err := strconv.Atoi(offsetParam); err == nil {
			input.Offset = offset
		}
	}

	tenders, err := h.uc.ListTenders(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tenders, "")
}
