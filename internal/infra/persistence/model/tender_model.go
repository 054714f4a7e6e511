package model

import (
	"time"

	"github.com/google/uuid"
)

// TenderModel mirrors the 'tenders' table.
type TenderModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Title               string    `gorm:"type:varchar(255);not null"`
	Description         string    `gorm:"type:text"`
	Category            string    `gorm:"type:varchar(50);not null"`
	EstimatedValue      float64   `gorm:"type:numeric(18,2);not null"`
	SubmissionDeadline  time.Time `gorm:"not null"`
	OpeningDate         time.Time `gorm:"not null"`
	ProcurementMethod   string    `gorm:"type:varchar(50)"`
	EligibilityCriteria string    `gorm:"type:jsonb"`
	EvaluationCriteria  string    `gorm:"type:jsonb"`
	Terms               string    `gorm:"type:text"`
	Status              string    `gorm:"type:varchar(20);not null;index"`
	CreatedBy           uuid.UUID `gorm:"type:uuid;not null;index"`
	OrganizationID      uuid.UUID `gorm:"type:uuid;not null;index"`
	PublishedAt         *time.Time
	AwardedBidID        *uuid.UUID `gorm:"type:uuid"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Bids []BidModel `gorm:"foreignKey:TenderID"`
}

// TableName explicitly sets the table name for GORM.
func (TenderModel) TableName() string {
	return "tenders"
}
