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

// mfaService implements the MFAUsecase interface.
type mfaService struct {
	txManager        repository.TransactionManager
	accountRepo      repository.AccountRepository
	refreshTokenRepo repository.RefreshTokenRepository
	hasher           service.PasswordHasher
	tokenService     service.TokenService
	totpService      service.TOTPService
	qrcodeService    service.QRCodeService
	maxFailedLogins  int
	lockoutDuration  time.Duration
	logger           *slog.Logger
}

// MFAServiceParams holds dependencies for mfaService, injected by Fx.
type MFAServiceParams struct {
	fx.In

	TxManager        repository.TransactionManager
	AccountRepo      repository.AccountRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Hasher           service.PasswordHasher
	TokenService     service.TokenService
	TOTPService      service.TOTPService
	QRCodeService    service.QRCodeService
	Config           *config.Config
	Logger           *slog.Logger
}

// NewMFAService is the constructor for mfaService.
func NewMFAService(params MFAServiceParams) usecase.MFAUsecase {
	maxFailedLogins := defaultMaxFailedLogins
	lockoutDuration := defaultLockoutDuration

	if params.Config != nil && params.Config.Auth != nil {
		if params.Config.Auth.MaxFailedLogins > 0 {
			maxFailedLogins = params.Config.Auth.MaxFailedLogins
		}
		if params.Config.Auth.LockoutDuration != "" {
			lockoutDuration = util.ParseTTL(params.Config.Auth.LockoutDuration)
		}
	}

	return &mfaService{
		txManager:        params.TxManager,
		accountRepo:      params.AccountRepo,
		refreshTokenRepo: params.RefreshTokenRepo,
		hasher:           params.Hasher,
		tokenService:     params.TokenService,
		totpService:      params.TOTPService,
		qrcodeService:    params.QRCodeService,
		maxFailedLogins:  maxFailedLogins,
		lockoutDuration:  lockoutDuration,
		logger:           params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *mfaService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SetupMFA provisions a fresh TOTP secret for the account. The secret is
// stored immediately but MFA stays disabled until a code is confirmed, so an
// abandoned setup never locks the account holder out.
func (srv *mfaService) SetupMFA(ctx context.Context, accountID uuid.UUID) (*usecase.SetupMFAOutput, error) {
	srv.log(ctx).Info("Starting MFA setup", slog.Any("accountID", accountID))

	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, errors.Wrap(domainerrors.ErrAccountNotFound, "MFA setup failed")
		}

		return nil, errors.Wrap(err, "failed to load account for MFA setup")
	}

	if account.MFAEnabled {
		return nil, errors.Wrap(domainerrors.ErrMFAAlreadyEnabled, "MFA setup failed")
	}

	key, err := srv.totpService.GenerateKey(account.Email)
	if err != nil {
		srv.log(ctx).Error("Failed to generate TOTP key", slog.Any("accountID", accountID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrMFASetupFailed, "failed to generate TOTP key")
	}

	// Re-running setup replaces any earlier unconfirmed secret.
	account.MFASecret = key.Secret
	if err := srv.accountRepo.Update(ctx, account); err != nil {
		return nil, errors.Wrap(err, "failed to store TOTP secret")
	}

	qrPNG, err := srv.qrcodeService.GenerateProvisioningQR(key.URI)
	if err != nil {
		srv.log(ctx).Error("Failed to render provisioning QR code", slog.Any("accountID", accountID), slog.Any("error", err))

		// Best effort: the caller never saw the secret, so do not leave it behind.
		account.MFASecret = ""
		if clearErr := srv.accountRepo.Update(ctx, account); clearErr != nil {
			srv.log(ctx).Error("Failed to clear orphaned TOTP secret", slog.Any("accountID", accountID), slog.Any("error", clearErr))
		}

		return nil, errors.Wrap(domainerrors.ErrMFASetupFailed, "failed to render provisioning QR code")
	}

	return &usecase.SetupMFAOutput{
		Secret: key.Secret,
		URI:    key.URI,
		QRCode: qrPNG,
	}, nil
}

// ConfirmSetup activates MFA once the account holder proves possession of the
// secret. Only enrollment passes through here; login challenges use VerifyLogin.
func (srv *mfaService) ConfirmSetup(ctx context.Context, input *usecase.ConfirmMFASetupInput) error {
	srv.log(ctx).Debug("Confirming MFA setup", slog.Any("accountID", input.AccountID))

	account, err := srv.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return errors.Wrap(domainerrors.ErrAccountNotFound, "MFA confirmation failed")
		}

		return errors.Wrap(err, "failed to load account for MFA confirmation")
	}

	if account.MFAEnabled {
		return errors.Wrap(domainerrors.ErrMFAAlreadyEnabled, "MFA confirmation failed")
	}
	if account.MFASecret == "" {
		return errors.Wrap(domainerrors.ErrMFANotEnabled, "MFA setup has not been started")
	}

	if !srv.totpService.Verify(account.MFASecret, input.Code, time.Now()) {
		return errors.Wrap(domainerrors.ErrMFACodeInvalid, "MFA confirmation failed")
	}

	account.MFAEnabled = true
	if err := srv.accountRepo.Update(ctx, account); err != nil {
		return errors.Wrap(err, "failed to activate MFA")
	}

	srv.log(ctx).Info("MFA enabled", slog.Any("accountID", account.ID))

	return nil
}

// VerifyLogin completes a pending MFA login challenge. Password and TOTP code
// are checked together; a failure of either counts toward the lockout
// threshold exactly like a plain failed login.
func (srv *mfaService) VerifyLogin(ctx context.Context, input *usecase.VerifyMFALoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Verifying MFA login", slog.String("email", input.Email))

	account, err := srv.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "MFA login failed")
		}

		return nil, errors.Wrap(err, "failed to load account for MFA login")
	}

	if !account.IsActive {
		return nil, errors.Wrap(domainerrors.ErrAccountInactive, "MFA login failed")
	}
	if account.IsLocked(time.Now()) {
		return nil, errors.Wrap(lockedError(account), "MFA login failed")
	}
	if !account.MFAEnabled {
		return nil, errors.Wrap(domainerrors.ErrMFANotEnabled, "MFA login failed")
	}

	if !srv.hasher.Check(input.Password, account.PasswordHash) {
		srv.registerFailedAttempt(ctx, account.ID)

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "MFA login failed")
	}

	if !srv.totpService.Verify(account.MFASecret, input.Code, time.Now()) {
		srv.registerFailedAttempt(ctx, account.ID)

		return nil, errors.Wrap(domainerrors.ErrMFACodeInvalid, "MFA login failed")
	}

	if !account.EmailVerified {
		return nil, errors.Wrap(domainerrors.ErrEmailNotVerified, "MFA login failed")
	}

	if err := srv.accountRepo.ClearLoginFailures(ctx, account.ID, time.Now()); err != nil {
		return nil, errors.Wrap(err, "failed to clear login failures")
	}

	accessToken, refreshToken, err := srv.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("MFA login completed", slog.Any("accountID", account.ID))

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      account,
	}, nil
}

// DisableMFA removes the shared secret after the account holder
// re-authenticates with both password and a valid code.
func (srv *mfaService) DisableMFA(ctx context.Context, input *usecase.DisableMFAInput) error {
	srv.log(ctx).Info("Disabling MFA", slog.Any("accountID", input.AccountID))

	account, err := srv.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return errors.Wrap(domainerrors.ErrAccountNotFound, "MFA disable failed")
		}

		return errors.Wrap(err, "failed to load account for MFA disable")
	}

	if !account.MFAEnabled {
		return errors.Wrap(domainerrors.ErrMFANotEnabled, "MFA disable failed")
	}

	if !srv.hasher.Check(input.Password, account.PasswordHash) {
		return errors.Wrap(domainerrors.ErrInvalidCredentials, "MFA disable failed")
	}
	if !srv.totpService.Verify(account.MFASecret, input.Code, time.Now()) {
		return errors.Wrap(domainerrors.ErrMFACodeInvalid, "MFA disable failed")
	}

	account.MFAEnabled = false
	account.MFASecret = ""

	if err := srv.accountRepo.Update(ctx, account); err != nil {
		return errors.Wrap(err, "failed to disable MFA")
	}

	srv.log(ctx).Info("MFA disabled", slog.Any("accountID", account.ID))

	return nil
}

// registerFailedAttempt counts one failed challenge and applies the lockout
// when the threshold is reached.
func (srv *mfaService) registerFailedAttempt(ctx context.Context, accountID uuid.UUID) {
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

// issueSession generates a token pair and persists the refresh token hash.
func (srv *mfaService) issueSession(ctx context.Context, account *entity.Account) (string, string, error) {
	accessToken, refreshToken, err := srv.tokenService.GenerateTokens(account.ID, account.Role.String())
	if err != nil {
		return "", "", errors.Wrap(err, "failed to generate tokens")
	}

	newRefreshToken := &entity.RefreshToken{
		AccountID: account.ID,
		TokenHash: srv.tokenService.HashToken(refreshToken),
		ExpiresAt: time.Now().Add(srv.tokenService.GetRefreshTokenDuration()),
	}

	if err := srv.refreshTokenRepo.CreateRefreshToken(ctx, newRefreshToken); err != nil {
		return "", "", errors.Wrap(err, "failed to store refresh token")
	}

	return accessToken, refreshToken, nil
}
