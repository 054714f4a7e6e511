package model

import (
	"time"

	"github.com/google/uuid"
)

// BidModel mirrors the 'bids' table. The composite unique index enforces at
// most one bid per organization per tender at the database level.
type BidModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	TenderID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bids_tender_organization"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bids_tender_organization"`
	SubmittedBy    uuid.UUID `gorm:"type:uuid;not null"`
	Status         string    `gorm:"type:varchar(20);not null;index"`
	Amount         float64   `gorm:"type:numeric(18,2);not null"`
	Proposal       string    `gorm:"type:text"`
	TechnicalScore *float64  `gorm:"type:numeric(5,2)"`
	FinancialScore *float64  `gorm:"type:numeric(5,2)"`
	SubmittedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (BidModel) TableName() string {
	return "bids"
}
