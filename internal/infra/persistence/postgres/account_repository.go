// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"procura/internal/domain/entity"
	domainerrors "procura/internal/domain/errors"
	"procura/internal/domain/repository"
	"procura/internal/infra/persistence/model"
)

// accountRepository implements the domain.AccountRepository interface.
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository is the constructor for accountRepository.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// Create persists a new account. The unique constraint on accounts.email is
// the authoritative duplicate check.
func (repo *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	accountM := fromAccountDomain(account)

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateEmail
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrAccountCreationFailed.WrapMessage("missing required account information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create account")
	}

	// Update the entity with generated values
	account.ID = accountM.ID
	account.CreatedAt = accountM.CreatedAt
	account.UpdatedAt = accountM.UpdatedAt

	return nil
}

// FindByID retrieves a single account by its unique ID.
func (repo *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	accountM := new(model.AccountModel)
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toAccountDomain(accountM), nil
}

// FindByEmail retrieves a single account by its email address.
func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	accountM := new(model.AccountModel)
	if err := repo.db.WithContext(ctx).
		Where("email = ?", email).
		First(accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toAccountDomain(accountM), nil
}

// FindByVerificationToken retrieves the account holding the given email-verification token.
func (repo *accountRepository) FindByVerificationToken(ctx context.Context, token string) (*entity.Account, error) {
	accountM := new(model.AccountModel)
	if err := repo.db.WithContext(ctx).
		Where("verification_token = ? AND verification_token <> ''", token).
		First(accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toAccountDomain(accountM), nil
}

// FindByResetTokenHash retrieves the account holding the given hashed password-reset token.
func (repo *accountRepository) FindByResetTokenHash(ctx context.Context, tokenHash string) (*entity.Account, error) {
	accountM := new(model.AccountModel)
	if err := repo.db.WithContext(ctx).
		Where("reset_token_hash = ? AND reset_token_hash <> ''", tokenHash).
		First(accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toAccountDomain(accountM), nil
}

// Update persists all mutable fields of an existing account.
func (repo *accountRepository) Update(ctx context.Context, account *entity.Account) error {
	accountM := fromAccountDomain(account)

	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", account.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(accountM)
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return repository.ErrDuplicateEmail
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update account")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	return nil
}

// IncrementFailedLogins atomically increments the failed-login counter via a
// single UPDATE expression and returns the new value. Two concurrent failed
// attempts must both be counted.
func (repo *accountRepository) IncrementFailedLogins(ctx context.Context, id uuid.UUID) (int, error) {
	var attempts int
	err := repo.db.WithContext(ctx).
		Raw(`UPDATE accounts
			SET failed_login_attempts = failed_login_attempts + 1, updated_at = now()
			WHERE id = ?
			RETURNING failed_login_attempts`, id).
		Scan(&attempts).Error
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return attempts, nil
}

// SetLockout records the lockout deadline for an account.
func (repo *accountRepository) SetLockout(ctx context.Context, id uuid.UUID, until time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", id).
		Update("locked_until", until)
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	return nil
}

// ClearLoginFailures resets the failure counter and lockout in one update.
func (repo *accountRepository) ClearLoginFailures(ctx context.Context, id uuid.UUID, lastLoginAt time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_attempts": 0,
			"locked_until":          nil,
			"last_login_at":         lastLoginAt,
		})
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toAccountDomain converts a GORM AccountModel to a domain Account entity.
func toAccountDomain(data *model.AccountModel) *entity.Account {
	if data == nil {
		return nil
	}

	return &entity.Account{
		ID:                    data.ID,
		Email:                 data.Email,
		FullName:              data.FullName,
		PasswordHash:          data.PasswordHash,
		Role:                  entity.Role(data.Role),
		OrganizationID:        data.OrganizationID,
		IsActive:              data.IsActive,
		EmailVerified:         data.EmailVerified,
		MFAEnabled:            data.MFAEnabled,
		MFASecret:             data.MFASecret,
		FailedLoginAttempts:   data.FailedLoginAttempts,
		LockedUntil:           data.LockedUntil,
		LastLoginAt:           data.LastLoginAt,
		VerificationToken:     data.VerificationToken,
		VerificationExpiresAt: data.VerificationExpiresAt,
		ResetTokenHash:        data.ResetTokenHash,
		ResetExpiresAt:        data.ResetExpiresAt,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}
}

// fromAccountDomain converts a domain Account entity to a GORM AccountModel.
func fromAccountDomain(data *entity.Account) *model.AccountModel {
	if data == nil {
		return nil
	}

	return &model.AccountModel{
		ID:                    data.ID,
		Email:                 data.Email,
		FullName:              data.FullName,
		PasswordHash:          data.PasswordHash,
		Role:                  data.Role.String(),
		OrganizationID:        data.OrganizationID,
		IsActive:              data.IsActive,
		EmailVerified:         data.EmailVerified,
		MFAEnabled:            data.MFAEnabled,
		MFASecret:             data.MFASecret,
		FailedLoginAttempts:   data.FailedLoginAttempts,
		LockedUntil:           data.LockedUntil,
		LastLoginAt:           data.LastLoginAt,
		VerificationToken:     data.VerificationToken,
		VerificationExpiresAt: data.VerificationExpiresAt,
		ResetTokenHash:        data.ResetTokenHash,
		ResetExpiresAt:        data.ResetExpiresAt,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}
}
