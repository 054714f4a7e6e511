package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountModel mirrors the 'accounts' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type AccountModel struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Email                 string     `gorm:"type:varchar(255);unique;not null"`
	FullName              string     `gorm:"type:varchar(100);not null"`
	PasswordHash          string     `gorm:"type:varchar(255);not null"`
	Role                  string     `gorm:"type:varchar(50);not null"`
	OrganizationID        *uuid.UUID `gorm:"type:uuid;index"`
	IsActive              bool       `gorm:"not null;default:true"`
	EmailVerified         bool       `gorm:"not null;default:false"`
	MFAEnabled            bool       `gorm:"not null;default:false"`
	MFASecret             string     `gorm:"type:varchar(255)"`
	FailedLoginAttempts   int        `gorm:"not null;default:0"`
	LockedUntil           *time.Time
	LastLoginAt           *time.Time
	VerificationToken     string `gorm:"type:varchar(255);index"`
	VerificationExpiresAt *time.Time
	ResetTokenHash        string `gorm:"type:varchar(255);index"`
	ResetExpiresAt        *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Organization  *OrganizationModel  `gorm:"foreignKey:OrganizationID"`
	RefreshTokens []RefreshTokenModel `gorm:"foreignKey:AccountID"`
}

// TableName explicitly sets the table name for GORM.
func (AccountModel) TableName() string {
	return "accounts"
}
