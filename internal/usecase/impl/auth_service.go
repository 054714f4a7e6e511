// Package impl contains the implementation of the application's business logic.
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
	"procura/internal/domain/repository"
	"procura/internal/domain/service"
	"procura/internal/usecase"
	"procura/internal/util"
)

const (
	defaultMaxFailedLogins = 5
	defaultLockoutDuration = 15 * time.Minute
	defaultVerificationTTL = 24 * time.Hour

	verificationTokenBytes = 32
	resetTokenBytes        = 32
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager        repository.TransactionManager
	accountRepo      repository.AccountRepository
	refreshTokenRepo repository.RefreshTokenRepository
	hasher           service.PasswordHasher
	tokenService     service.TokenService
	mailPublisher    service.MailPublisher
	maxFailedLogins  int
	lockoutDuration  time.Duration
	verificationTTL  time.Duration
	resetTTL         time.Duration
	logger           *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager        repository.TransactionManager
	AccountRepo      repository.AccountRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Hasher           service.PasswordHasher
	TokenService     service.TokenService
	MailPublisher    service.MailPublisher
	Config           *config.Config
	Logger           *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	maxFailedLogins := defaultMaxFailedLogins
	lockoutDuration := defaultLockoutDuration
	verificationTTL := defaultVerificationTTL
	resetTTL := util.DefaultTokenTTL

	if params.Config != nil && params.Config.Auth != nil {
		if params.Config.Auth.MaxFailedLogins > 0 {
			maxFailedLogins = params.Config.Auth.MaxFailedLogins
		}
		if params.Config.Auth.LockoutDuration != "" {
			lockoutDuration = util.ParseTTL(params.Config.Auth.LockoutDuration)
		}
		if params.Config.Auth.VerificationTTL != "" {
			verificationTTL = util.ParseTTL(params.Config.Auth.VerificationTTL)
		}
		if params.Config.Auth.ResetTTL != "" {
			resetTTL = util.ParseTTL(params.Config.Auth.ResetTTL)
		}
	}

	return &authService{
		txManager:        params.TxManager,
		accountRepo:      params.AccountRepo,
		refreshTokenRepo: params.RefreshTokenRepo,
		hasher:           params.Hasher,
		tokenService:     params.TokenService,
		mailPublisher:    params.MailPublisher,
		maxFailedLogins:  maxFailedLogins,
		lockoutDuration:  lockoutDuration,
		verificationTTL:  verificationTTL,
		resetTTL:         resetTTL,
		logger:           params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete account registration process.
// The account starts unverified; it receives session credentials immediately
// but cannot log in again until the email is verified.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.Any("role", input.Role), slog.String("email", input.Email))

	if !input.Role.IsValid() || input.Role == entity.RoleAdmin {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "role not available for self registration")
	}

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		srv.log(ctx).Warn("Password validation failed during registration", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "password does not meet security requirements")
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, "failed to hash password during registration")
	}

	verificationToken, err := util.GenerateToken(verificationTokenBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate verification token")
	}
	verificationExpiry := time.Now().Add(srv.verificationTTL)

	var registeredAccount *entity.Account
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()

		orgID, err := srv.resolveOrganization(ctx, repoFactory, input)
		if err != nil {
			return err
		}

		newAccount := &entity.Account{
			Email:                 input.Email,
			FullName:              input.FullName,
			PasswordHash:          hashedPassword,
			Role:                  input.Role,
			OrganizationID:        orgID,
			IsActive:              true,
			VerificationToken:     verificationToken,
			VerificationExpiresAt: &verificationExpiry,
		}

		if err := accountRepo.Create(ctx, newAccount); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return errors.Wrap(domainerrors.ErrEmailAlreadyExists, "registration failed")
			}

			return errors.Wrap(err, "failed to create account during registration")
		}

		registeredAccount = newAccount

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	srv.publishMail(ctx, service.MailKindVerification, registeredAccount.Email, verificationToken)

	accessToken, refreshToken, err := srv.issueSession(ctx, registeredAccount)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("accountID", registeredAccount.ID))

	return &usecase.RegisterOutput{
		Account:      registeredAccount,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// resolveOrganization finds or creates the organization the account acts for.
// Citizens and auditors register without one.
func (srv *authService) resolveOrganization(ctx context.Context, repoFactory repository.RepositoryFactory, input *usecase.RegisterInput) (*uuid.UUID, error) {
	needsOrg := input.Role == entity.RoleSupplier || input.Role == entity.RoleProcurementOfficer
	if !needsOrg {
		return nil, nil
	}
	if input.OrganizationName == "" {
		return nil, errors.Wrap(domainerrors.ErrNoOrganization, "organization name is required for this role")
	}

	orgRepo := repoFactory.OrganizationRepo()

	org, err := orgRepo.FindByName(ctx, input.OrganizationName)
	if err == nil {
		return &org.ID, nil
	}
	if !errors.Is(err, repository.ErrOrganizationNotFound) {
		return nil, errors.Wrap(err, "failed to look up organization")
	}

	orgType := entity.OrgTypeSupplier
	if input.Role == entity.RoleProcurementOfficer {
		orgType = entity.OrgTypeGovernmentAgency
	}

	registrationNumber, err := util.GenerateRegistrationNumber()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate registration number")
	}

	newOrg := &entity.Organization{
		Name:               input.OrganizationName,
		RegistrationNumber: registrationNumber,
		Type:               orgType,
	}
	if err := orgRepo.Create(ctx, newOrg); err != nil {
		return nil, errors.Wrap(err, "failed to create organization during registration")
	}

	return &newOrg.ID, nil
}

// Login orchestrates the account login process, including lockout accounting
// and the MFA challenge hand-off.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("email", input.Email))

	account, err := srv.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to load account for login")
	}

	if err := srv.checkLoginEligibility(ctx, account); err != nil {
		return nil, err
	}

	// Check password outside any transaction (bcrypt is CPU-bound).
	if !srv.hasher.Check(input.Password, account.PasswordHash) {
		srv.registerFailedAttempt(ctx, account.ID)

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	if !account.EmailVerified {
		return nil, errors.Wrap(domainerrors.ErrEmailNotVerified, "login failed")
	}

	// MFA-enabled accounts get no credentials here; the client must complete
	// the TOTP challenge via the dedicated verification operation.
	if account.MFAEnabled {
		srv.log(ctx).Debug("MFA challenge required", slog.Any("accountID", account.ID))

		return &usecase.LoginOutput{Account: account, MFARequired: true}, nil
	}

	if err := srv.accountRepo.ClearLoginFailures(ctx, account.ID, time.Now()); err != nil {
		return nil, errors.Wrap(err, "failed to clear login failures")
	}

	accessToken, refreshToken, err := srv.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("Logged in successfully", slog.Any("accountID", account.ID))

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      account,
	}, nil
}

// checkLoginEligibility rejects deactivated and locked accounts before any
// credential material is examined.
func (srv *authService) checkLoginEligibility(ctx context.Context, account *entity.Account) error {
	if !account.IsActive {
		srv.log(ctx).Warn("Login attempt on inactive account", slog.Any("accountID", account.ID))

		return errors.Wrap(domainerrors.ErrAccountInactive, "login failed")
	}
	if account.IsLocked(time.Now()) {
		srv.log(ctx).Warn("Login attempt on locked account", slog.Any("accountID", account.ID))

		return errors.Wrap(lockedError(account), "login failed")
	}

	return nil
}

// lockedError carries the unlock time so the caller knows when to retry.
func lockedError(account *entity.Account) error {
	return domainerrors.ErrAccountLocked.WithDetails("帳號鎖定至 " + account.LockedUntil.UTC().Format(time.RFC3339))
}

// registerFailedAttempt counts one failed credential check and applies the
// lockout when the threshold is reached. The increment is a single atomic
// UPDATE so concurrent failures are all counted.
func (srv *authService) registerFailedAttempt(ctx context.Context, accountID uuid.UUID) {
	attempts, err := srv.accountRepo.IncrementFailedLogins(ctx, accountID)
	if err != nil {
		srv.log(ctx).Error("Failed to record failed login attempt", slog.Any("accountID", accountID), slog.Any("error", err))

		return
	}

	if attempts >= srv.maxFailedLogins {
		until := time.Now().Add(srv.lockoutDuration)
		if err := srv.accountRepo.SetLockout(ctx, accountID, until); err != nil {
			srv.log(ctx).Error("Failed to set lockout", slog.Any("accountID", accountID), slog.Any("error", err))

			return
		}
		srv.log(ctx).Warn("Account locked after repeated failures",
			slog.Any("accountID", accountID),
			slog.Int("attempts", attempts),
			slog.Time("until", until),
		)
	}
}

// VerifyEmail consumes a verification token and marks the account verified.
func (srv *authService) VerifyEmail(ctx context.Context, input *usecase.VerifyEmailInput) error {
	srv.log(ctx).Debug("Verifying email")

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()

		account, err := accountRepo.FindByVerificationToken(ctx, input.Token)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return errors.Wrap(domainerrors.ErrVerificationTokenInvalid, "verification failed")
			}

			return errors.Wrap(err, "failed to look up verification token")
		}

		if account.VerificationExpiresAt == nil || time.Now().After(*account.VerificationExpiresAt) {
			return errors.Wrap(domainerrors.ErrVerificationTokenInvalid, "verification token expired")
		}

		account.EmailVerified = true
		account.VerificationToken = ""
		account.VerificationExpiresAt = nil

		if err := accountRepo.Update(ctx, account); err != nil {
			return errors.Wrap(err, "failed to mark email verified")
		}

		srv.log(ctx).Info("Email verified", slog.Any("accountID", account.ID))

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Email verification failed", slog.Any("error", err))

		return err
	}

	return nil
}

// ResendVerification issues a fresh verification token. The response never
// reveals whether the email exists.
func (srv *authService) ResendVerification(ctx context.Context, input *usecase.ResendVerificationInput) error {
	srv.log(ctx).Debug("Resending verification email")

	account, err := srv.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// Do not leak account existence.
			return nil
		}

		return errors.Wrap(err, "failed to load account for verification resend")
	}
	if account.EmailVerified {
		return nil
	}

	token, err := util.GenerateToken(verificationTokenBytes)
	if err != nil {
		return errors.Wrap(err, "failed to generate verification token")
	}
	expiry := time.Now().Add(srv.verificationTTL)

	account.VerificationToken = token
	account.VerificationExpiresAt = &expiry

	if err := srv.accountRepo.Update(ctx, account); err != nil {
		return errors.Wrap(err, "failed to store new verification token")
	}

	srv.publishMail(ctx, service.MailKindVerification, account.Email, token)

	return nil
}

// ForgotPassword starts a password reset. Only a SHA-256 hash of the token is
// stored; the response never reveals whether the email exists.
func (srv *authService) ForgotPassword(ctx context.Context, input *usecase.ForgotPasswordInput) error {
	srv.log(ctx).Debug("Starting password reset")

	account, err := srv.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// Do not leak account existence.
			return nil
		}

		return errors.Wrap(err, "failed to load account for password reset")
	}

	rawToken, err := util.GenerateToken(resetTokenBytes)
	if err != nil {
		return errors.Wrap(err, "failed to generate reset token")
	}
	expiry := time.Now().Add(srv.resetTTL)

	account.ResetTokenHash = srv.tokenService.HashToken(rawToken)
	account.ResetExpiresAt = &expiry

	if err := srv.accountRepo.Update(ctx, account); err != nil {
		return errors.Wrap(err, "failed to store reset token")
	}

	srv.publishMail(ctx, service.MailKindPasswordReset, account.Email, rawToken)

	return nil
}

// ResetPassword consumes a reset token, replaces the password and revokes
// every active session of the account.
func (srv *authService) ResetPassword(ctx context.Context, input *usecase.ResetPasswordInput) error {
	srv.log(ctx).Debug("Completing password reset")

	if err := srv.hasher.ValidatePasswordStrength(input.NewPassword); err != nil {
		return errors.Wrap(err, "new password does not meet security requirements")
	}

	hashedPassword, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(domainerrors.ErrPasswordHashFailed, "failed to hash new password")
	}

	tokenHash := srv.tokenService.HashToken(input.Token)

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()
		refreshRepo := repoFactory.RefreshTokenRepo()

		account, err := accountRepo.FindByResetTokenHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return errors.Wrap(domainerrors.ErrResetTokenInvalid, "password reset failed")
			}

			return errors.Wrap(err, "failed to look up reset token")
		}

		if account.ResetExpiresAt == nil || time.Now().After(*account.ResetExpiresAt) {
			return errors.Wrap(domainerrors.ErrResetTokenInvalid, "reset token expired")
		}

		account.PasswordHash = hashedPassword
		account.ResetTokenHash = ""
		account.ResetExpiresAt = nil
		account.FailedLoginAttempts = 0
		account.LockedUntil = nil
		// Losing the password may mean losing the authenticator too.
		account.MFAEnabled = false
		account.MFASecret = ""

		if err := accountRepo.Update(ctx, account); err != nil {
			return errors.Wrap(err, "failed to update password")
		}

		// A password reset invalidates every session.
		if err := refreshRepo.DeleteRefreshTokensByAccountID(ctx, account.ID); err != nil {
			return errors.Wrap(err, "failed to revoke sessions after password reset")
		}

		srv.log(ctx).Info("Password reset completed", slog.Any("accountID", account.ID))

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Password reset failed", slog.Any("error", err))

		return err
	}

	return nil
}

// ChangePassword replaces the password of an authenticated account and
// revokes every active session.
func (srv *authService) ChangePassword(ctx context.Context, input *usecase.ChangePasswordInput) error {
	srv.log(ctx).Debug("Changing password", slog.Any("accountID", input.AccountID))

	account, err := srv.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return errors.Wrap(domainerrors.ErrAccountNotFound, "change password failed")
		}

		return errors.Wrap(err, "failed to load account for password change")
	}

	if !srv.hasher.Check(input.CurrentPassword, account.PasswordHash) {
		return errors.Wrap(domainerrors.ErrInvalidCredentials, "current password mismatch")
	}

	if err := srv.hasher.ValidatePasswordStrength(input.NewPassword); err != nil {
		return errors.Wrap(err, "new password does not meet security requirements")
	}

	hashedPassword, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(domainerrors.ErrPasswordHashFailed, "failed to hash new password")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()
		refreshRepo := repoFactory.RefreshTokenRepo()

		account.PasswordHash = hashedPassword
		if err := accountRepo.Update(ctx, account); err != nil {
			return errors.Wrap(err, "failed to update password")
		}

		if err := refreshRepo.DeleteRefreshTokensByAccountID(ctx, account.ID); err != nil {
			return errors.Wrap(err, "failed to revoke sessions after password change")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute password change transaction", slog.Any("accountID", input.AccountID), slog.Any("error", err))

		return err
	}

	srv.log(ctx).Info("Password changed", slog.Any("accountID", input.AccountID))

	return nil
}

// RefreshToken exchanges a refresh token for a fresh token pair. The
// presented token is consumed in the same transaction that records its
// replacement, so each refresh token works exactly once.
func (srv *authService) RefreshToken(ctx context.Context, input *usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error) {
	srv.log(ctx).Debug("Rotating refresh token")

	claims, err := srv.tokenService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "invalid refresh token")
	}

	var newAccessToken, newRefreshToken string

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()
		refreshRepo := repoFactory.RefreshTokenRepo()

		tokenHash := srv.tokenService.HashToken(input.RefreshToken)

		stored, err := refreshRepo.FindRefreshTokenByHash(ctx, tokenHash)
		if err != nil {
			return errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "refresh token not found or expired")
		}

		// Consume the presented token; rotation means it never works twice.
		if err := refreshRepo.DeleteRefreshToken(ctx, stored.ID); err != nil {
			return errors.Wrap(err, "failed to consume refresh token")
		}

		account, err := accountRepo.FindByID(ctx, claims.AccountID)
		if err != nil {
			return errors.Wrap(err, "failed to find account for refresh")
		}
		if !account.IsActive {
			return errors.Wrap(domainerrors.ErrAccountInactive, "refresh failed")
		}

		newAccessToken, newRefreshToken, err = srv.tokenService.GenerateTokens(account.ID, account.Role.String())
		if err != nil {
			return errors.Wrap(err, "failed to generate new tokens")
		}

		return srv.storeRefreshToken(ctx, refreshRepo, account.ID, newRefreshToken)
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to rotate refresh token", slog.Any("error", err))

		return nil, err
	}

	return &usecase.RefreshTokenOutput{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// Logout ends the session identified by the presented refresh token. Logging
// out an already-dead session is not an error.
func (srv *authService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	srv.log(ctx).Info("Attempting to log out")

	tokenHash := srv.tokenService.HashToken(input.RefreshToken)

	if err := srv.refreshTokenRepo.DeleteRefreshTokenByHash(ctx, tokenHash); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil
		}
		srv.log(ctx).Error("Failed to delete refresh token", slog.Any("error", err))

		return errors.Wrap(err, "failed to delete refresh token")
	}
	srv.log(ctx).Info("Successfully logged out")

	return nil
}

// LogoutAllDevices invalidates every session of the account.
func (srv *authService) LogoutAllDevices(ctx context.Context, accountID uuid.UUID) error {
	srv.log(ctx).Info("Attempting to log out from all devices", slog.Any("accountID", accountID))

	if err := srv.refreshTokenRepo.DeleteRefreshTokensByAccountID(ctx, accountID); err != nil {
		srv.log(ctx).Error("Failed to delete all refresh tokens", slog.Any("error", err), slog.Any("accountID", accountID))

		return errors.Wrap(err, "failed to delete all refresh tokens")
	}
	srv.log(ctx).Info("Successfully logged out from all devices", slog.Any("accountID", accountID))

	return nil
}

// GetProfile retrieves the account's own profile.
func (srv *authService) GetProfile(ctx context.Context, accountID uuid.UUID) (*entity.Account, error) {
	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, errors.Wrap(domainerrors.ErrAccountNotFound, "profile lookup failed")
		}

		return nil, errors.Wrap(err, "failed to load profile")
	}

	return account, nil
}

// UpdateProfile updates mutable profile fields.
func (srv *authService) UpdateProfile(ctx context.Context, input *usecase.UpdateProfileInput) (*entity.Account, error) {
	srv.log(ctx).Debug("Updating profile", slog.Any("accountID", input.AccountID))

	account, err := srv.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, errors.Wrap(domainerrors.ErrAccountNotFound, "profile update failed")
		}

		return nil, errors.Wrap(err, "failed to load account for profile update")
	}

	if input.FullName != "" {
		account.FullName = input.FullName
	}

	if err := srv.accountRepo.Update(ctx, account); err != nil {
		return nil, errors.Wrap(err, "failed to update profile")
	}

	return account, nil
}

// GetActiveSessions retrieves all active sessions for an account.
func (srv *authService) GetActiveSessions(ctx context.Context, accountID uuid.UUID) ([]*entity.RefreshToken, error) {
	srv.log(ctx).Debug("Getting active sessions", slog.Any("accountID", accountID))

	sessions, err := srv.refreshTokenRepo.FindRefreshTokensByAccountID(ctx, accountID)
	if err != nil {
		srv.log(ctx).Error("Failed to get active sessions", slog.Any("error", err), slog.Any("accountID", accountID))

		return nil, errors.Wrap(err, "failed to get active sessions")
	}

	return sessions, nil
}

// RevokeSession revokes a specific session by refresh token ID after
// verifying the session belongs to the calling account.
func (srv *authService) RevokeSession(ctx context.Context, accountID, tokenID uuid.UUID) error {
	srv.log(ctx).Info("Attempting to revoke session", slog.Any("accountID", accountID), slog.Any("tokenID", tokenID))

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		refreshRepo := repoFactory.RefreshTokenRepo()

		sessions, err := refreshRepo.FindRefreshTokensByAccountID(ctx, accountID)
		if err != nil {
			return errors.Wrap(err, "failed to list sessions")
		}

		owned := false
		for _, session := range sessions {
			if session.ID == tokenID {
				owned = true

				break
			}
		}
		if !owned {
			return errors.Wrap(domainerrors.ErrForbidden, "session does not belong to account")
		}

		if err := refreshRepo.DeleteRefreshToken(ctx, tokenID); err != nil {
			return errors.Wrap(err, "failed to delete refresh token")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to revoke session", slog.Any("error", err), slog.Any("accountID", accountID), slog.Any("tokenID", tokenID))

		return err
	}
	srv.log(ctx).Info("Successfully revoked session", slog.Any("accountID", accountID), slog.Any("tokenID", tokenID))

	return nil
}

// issueSession generates a token pair and persists the refresh token hash.
func (srv *authService) issueSession(ctx context.Context, account *entity.Account) (string, string, error) {
	accessToken, refreshToken, err := srv.tokenService.GenerateTokens(account.ID, account.Role.String())
	if err != nil {
		return "", "", errors.Wrap(err, "failed to generate tokens")
	}

	if err := srv.storeRefreshToken(ctx, srv.refreshTokenRepo, account.ID, refreshToken); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// storeRefreshToken stores the hash of a refresh token in the database.
func (srv *authService) storeRefreshToken(ctx context.Context, refreshRepo repository.RefreshTokenRepository, accountID uuid.UUID, refreshTokenString string) error {
	newRefreshToken := &entity.RefreshToken{
		AccountID: accountID,
		TokenHash: srv.tokenService.HashToken(refreshTokenString),
		ExpiresAt: time.Now().Add(srv.tokenService.GetRefreshTokenDuration()),
	}

	if err := refreshRepo.CreateRefreshToken(ctx, newRefreshToken); err != nil {
		return errors.Wrap(err, "failed to store refresh token")
	}

	return nil
}

// publishMail enqueues an email event. Delivery is fire-and-forget; the
// request must not fail because the mail pipeline is down.
func (srv *authService) publishMail(ctx context.Context, kind, recipient, token string) {
	event := &service.MailEvent{
		Kind:      kind,
		Recipient: recipient,
		Token:     token,
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
	}

	if err := srv.mailPublisher.PublishMailEvent(ctx, event); err != nil {
		srv.log(ctx).Error("Failed to publish mail event",
			slog.String("kind", kind),
			slog.Any("error", err),
		)
	}
}
