package model

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationModel mirrors the 'organizations' table.
type OrganizationModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Name               string    `gorm:"type:varchar(255);unique;not null"`
	RegistrationNumber string    `gorm:"type:varchar(100);unique;not null"`
	Type               string    `gorm:"type:varchar(50);not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName explicitly sets the table name for GORM.
func (OrganizationModel) TableName() string {
	return "organizations"
}
