package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"procura/internal/domain/entity"
)

// Actor identifies the authenticated account performing an operation,
// as established by the delivery layer from the access token.
type Actor struct {
	AccountID      uuid.UUID
	Role           entity.Role
	OrganizationID *uuid.UUID
}

// --- Input DTOs ---

// CreateTenderInput defines the data required to open a new draft tender.
type CreateTenderInput struct {
	Actor               Actor
	Title               string
	Description         string
	Category            entity.TenderCategory
	EstimatedValue      float64
	SubmissionDeadline  time.Time
	ProcurementMethod   string
	EligibilityCriteria string
	EvaluationCriteria  string
	Terms               string
}

// UpdateTenderInput carries replacement content for a DRAFT tender.
// Nil pointers leave the corresponding field untouched.
type UpdateTenderInput struct {
	Actor               Actor
	TenderID            uuid.UUID
	Title               *string
	Description         *string
	Category            *entity.TenderCategory
	EstimatedValue      *float64
	SubmissionDeadline  *time.Time
	ProcurementMethod   *string
	EligibilityCriteria *string
	EvaluationCriteria  *string
	Terms               *string
}

// AwardTenderInput selects the winning bid of an evaluated tender.
type AwardTenderInput struct {
	Actor    Actor
	TenderID uuid.UUID
	BidID    uuid.UUID
}

// ListTendersInput narrows the tender listing.
type ListTendersInput struct {
	Actor    Actor
	Statuses []entity.TenderStatus
	Category entity.TenderCategory
	MineOnly bool // Restrict to tenders created by the actor.
	Limit    int
	Offset   int
}

// TenderUsecase defines the interface for tender lifecycle operations.
type TenderUsecase interface {
	// CreateTender opens a new tender in DRAFT state. The submission deadline
	// must lie at least the configured lead time in the future.
	CreateTender(ctx context.Context, input *CreateTenderInput) (*entity.Tender, error)

	// UpdateTender replaces content fields of a DRAFT tender. Published
	// tenders are immutable.
	UpdateTender(ctx context.Context, input *UpdateTenderInput) (*entity.Tender, error)

	// PublishTender performs the DRAFT -> PUBLISHED transition, stamping
	// PublishedAt and deriving the opening date in the same store write.
	PublishTender(ctx context.Context, actor Actor, tenderID uuid.UUID) (*entity.Tender, error)

	// CancelTender performs the PUBLISHED -> CANCELLED transition.
	CancelTender(ctx context.Context, actor Actor, tenderID uuid.UUID) (*entity.Tender, error)

	// CloseForEvaluation performs the PUBLISHED -> EVALUATED transition once
	// the submission deadline has passed, moving all SUBMITTED bids to
	// UNDER_REVIEW in the same transaction.
	CloseForEvaluation(ctx context.Context, actor Actor, tenderID uuid.UUID) (*entity.Tender, error)

	// AwardTender performs the EVALUATED -> AWARDED transition: the chosen bid
	// becomes ACCEPTED and every other UNDER_REVIEW bid becomes REJECTED,
	// atomically.
	AwardTender(ctx context.Context, input *AwardTenderInput) (*entity.Tender, error)

	// DeleteTender removes a DRAFT tender.
	DeleteTender(ctx context.Context, actor Actor, tenderID uuid.UUID) error

	// GetTender retrieves one tender, subject to draft visibility rules.
	GetTender(ctx context.Context, actor Actor, tenderID uuid.UUID) (*entity.Tender, error)

	// ListTenders retrieves tenders visible to the actor.
	ListTenders(ctx context.Context, input *ListTendersInput) ([]*entity.Tender, error)
}
