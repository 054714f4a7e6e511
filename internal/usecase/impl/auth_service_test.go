package impl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procura/config"
	"procura/internal/domain/entity"
	domainerrors "procura/internal/domain/errors"
	"procura/internal/domain/service"
	"procura/internal/usecase"
)

type authFixture struct {
	svc           usecase.AuthUsecase
	accounts      *fakeAccountRepo
	organizations *fakeOrganizationRepo
	refreshTokens *fakeRefreshTokenRepo
	tokens        *fakeTokenService
	publisher     *fakeMailPublisher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	accounts := newFakeAccountRepo()
	organizations := newFakeOrganizationRepo()
	refreshTokens := newFakeRefreshTokenRepo()
	tokens := newFakeTokenService()
	publisher := &fakeMailPublisher{}

	factory := &fakeRepoFactory{
		accountRepo:      accounts,
		organizationRepo: organizations,
		refreshTokenRepo: refreshTokens,
		tenderRepo:       newFakeTenderRepo(),
		bidRepo:          newFakeBidRepo(),
	}

	svc := NewAuthService(AuthServiceParams{
		TxManager:        &fakeTxManager{factory: factory},
		AccountRepo:      accounts,
		RefreshTokenRepo: refreshTokens,
		Hasher:           fakePasswordHasher{},
		TokenService:     tokens,
		MailPublisher:    publisher,
		Config: &config.Config{
			Auth: &config.AuthConfig{
				MaxFailedLogins: 5,
				LockoutDuration: "15m",
				VerificationTTL: "24h",
				ResetTTL:        "10m",
			},
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return &authFixture{
		svc:           svc,
		accounts:      accounts,
		organizations: organizations,
		refreshTokens: refreshTokens,
		tokens:        tokens,
		publisher:     publisher,
	}
}

func (f *authFixture) register(t *testing.T, email string, role entity.Role, orgName string) *usecase.RegisterOutput {
	t.Helper()

	out, err := f.svc.Register(context.Background(), &usecase.RegisterInput{
		Email:            email,
		Password:         "Sup3rSecret",
		FullName:         "Test Person",
		Role:             role,
		OrganizationName: orgName,
	})
	require.NoError(t, err)

	return out
}

func (f *authFixture) verify(t *testing.T, email string) {
	t.Helper()

	account, err := f.accounts.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NoError(t, f.svc.VerifyEmail(context.Background(), &usecase.VerifyEmailInput{
		Token: account.VerificationToken,
	}))
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates unverified account with session and mail event", func(t *testing.T) {
		f := newAuthFixture(t)

		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		assert.NotEmpty(t, out.AccessToken)
		assert.NotEmpty(t, out.RefreshToken)
		assert.False(t, out.Account.EmailVerified)
		assert.NotEmpty(t, out.Account.VerificationToken)

		events := f.publisher.published()
		require.Len(t, events, 1)
		assert.Equal(t, service.MailKindVerification, events[0].Kind)
		assert.Equal(t, "citizen@example.com", events[0].Recipient)
		assert.Equal(t, out.Account.VerificationToken, events[0].Token)
	})

	t.Run("supplier registration creates its organization", func(t *testing.T) {
		f := newAuthFixture(t)

		out := f.register(t, "supplier@example.com", entity.RoleSupplier, "Acme Works")

		require.NotNil(t, out.Account.OrganizationID)
		org, err := f.organizations.FindByID(ctx, *out.Account.OrganizationID)
		require.NoError(t, err)
		assert.Equal(t, entity.OrgTypeSupplier, org.Type)
		assert.NotEmpty(t, org.RegistrationNumber)
	})

	t.Run("second supplier joins the existing organization", func(t *testing.T) {
		f := newAuthFixture(t)

		first := f.register(t, "one@acme.com", entity.RoleSupplier, "Acme Works")
		second := f.register(t, "two@acme.com", entity.RoleSupplier, "Acme Works")

		require.NotNil(t, second.Account.OrganizationID)
		assert.Equal(t, *first.Account.OrganizationID, *second.Account.OrganizationID)
	})

	t.Run("supplier without organization name is rejected", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.Register(ctx, &usecase.RegisterInput{
			Email:    "supplier@example.com",
			Password: "Sup3rSecret",
			FullName: "Test Person",
			Role:     entity.RoleSupplier,
		})
		assert.ErrorIs(t, err, domainerrors.ErrNoOrganization)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		f := newAuthFixture(t)

		f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		_, err := f.svc.Register(ctx, &usecase.RegisterInput{
			Email:    "citizen@example.com",
			Password: "Sup3rSecret",
			FullName: "Someone Else",
			Role:     entity.RoleCitizen,
		})
		assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyExists)
	})

	t.Run("weak password is rejected", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.Register(ctx, &usecase.RegisterInput{
			Email:    "citizen@example.com",
			Password: "weak",
			FullName: "Test Person",
			Role:     entity.RoleCitizen,
		})
		assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)
	})

	t.Run("admin self registration is rejected", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.Register(ctx, &usecase.RegisterInput{
			Email:    "admin@example.com",
			Password: "Sup3rSecret",
			FullName: "Test Person",
			Role:     entity.RoleAdmin,
		})
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("verified account logs in and gets tokens", func(t *testing.T) {
		f := newAuthFixture(t)
		f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		f.verify(t, "citizen@example.com")

		out, err := f.svc.Login(ctx, &usecase.LoginInput{
			Email:    "citizen@example.com",
			Password: "Sup3rSecret",
		})
		require.NoError(t, err)
		assert.False(t, out.MFARequired)
		assert.NotEmpty(t, out.AccessToken)
		assert.NotEmpty(t, out.RefreshToken)
	})

	t.Run("unknown email reports invalid credentials", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.Login(ctx, &usecase.LoginInput{Email: "nobody@example.com", Password: "Sup3rSecret"})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("unverified account cannot log in", func(t *testing.T) {
		f := newAuthFixture(t)
		f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		_, err := f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "Sup3rSecret"})
		assert.ErrorIs(t, err, domainerrors.ErrEmailNotVerified)
	})

	t.Run("fifth consecutive failure locks the account", func(t *testing.T) {
		f := newAuthFixture(t)
		f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		f.verify(t, "citizen@example.com")

		for i := 0; i < 5; i++ {
			_, err := f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "WrongPass1"})
			assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
		}

		// Even the correct password is refused while the lockout holds, and
		// the response tells the caller when the lock expires.
		_, err := f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "Sup3rSecret"})
		assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)

		var appErr domainerrors.AppError
		require.ErrorAs(t, err, &appErr)
		unlockAt, parseErr := time.Parse(time.RFC3339, strings.TrimPrefix(appErr.Details(), "帳號鎖定至 "))
		require.NoError(t, parseErr)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), unlockAt, time.Minute)
	})

	t.Run("successful login resets the failure counter", func(t *testing.T) {
		f := newAuthFixture(t)
		f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		f.verify(t, "citizen@example.com")

		for i := 0; i < 4; i++ {
			_, _ = f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "WrongPass1"})
		}

		_, err := f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "Sup3rSecret"})
		require.NoError(t, err)

		account, err := f.accounts.FindByEmail(ctx, "citizen@example.com")
		require.NoError(t, err)
		assert.Zero(t, account.FailedLoginAttempts)
		assert.NotNil(t, account.LastLoginAt)
	})

	t.Run("mfa-enabled account gets a challenge instead of tokens", func(t *testing.T) {
		f := newAuthFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		f.verify(t, "citizen@example.com")

		account, err := f.accounts.FindByID(ctx, out.Account.ID)
		require.NoError(t, err)
		account.MFAEnabled = true
		account.MFASecret = "FAKESECRET"
		require.NoError(t, f.accounts.Update(ctx, account))

		loginOut, err := f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "Sup3rSecret"})
		require.NoError(t, err)
		assert.True(t, loginOut.MFARequired)
		assert.Empty(t, loginOut.AccessToken)
		assert.Empty(t, loginOut.RefreshToken)
	})

	t.Run("deactivated account cannot log in", func(t *testing.T) {
		f := newAuthFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		f.verify(t, "citizen@example.com")

		account, err := f.accounts.FindByID(ctx, out.Account.ID)
		require.NoError(t, err)
		account.IsActive = false
		require.NoError(t, f.accounts.Update(ctx, account))

		_, err = f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "Sup3rSecret"})
		assert.ErrorIs(t, err, domainerrors.ErrAccountInactive)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("consuming the token marks the account verified", func(t *testing.T) {
		f := newAuthFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		require.NoError(t, f.svc.VerifyEmail(ctx, &usecase.VerifyEmailInput{Token: out.Account.VerificationToken}))

		account, err := f.accounts.FindByID(ctx, out.Account.ID)
		require.NoError(t, err)
		assert.True(t, account.EmailVerified)
		assert.Empty(t, account.VerificationToken)

		// The token is single-use.
		err = f.svc.VerifyEmail(ctx, &usecase.VerifyEmailInput{Token: out.Account.VerificationToken})
		assert.ErrorIs(t, err, domainerrors.ErrVerificationTokenInvalid)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		account, err := f.accounts.FindByID(ctx, out.Account.ID)
		require.NoError(t, err)
		expired := time.Now().Add(-time.Minute)
		account.VerificationExpiresAt = &expired
		require.NoError(t, f.accounts.Update(ctx, account))

		err = f.svc.VerifyEmail(ctx, &usecase.VerifyEmailInput{Token: out.Account.VerificationToken})
		assert.ErrorIs(t, err, domainerrors.ErrVerificationTokenInvalid)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		f := newAuthFixture(t)

		err := f.svc.VerifyEmail(ctx, &usecase.VerifyEmailInput{Token: "no-such-token"})
		assert.ErrorIs(t, err, domainerrors.ErrVerificationTokenInvalid)
	})
}

func TestAuthService_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("forgot password is silent for unknown emails", func(t *testing.T) {
		f := newAuthFixture(t)

		require.NoError(t, f.svc.ForgotPassword(ctx, &usecase.ForgotPasswordInput{Email: "nobody@example.com"}))
		assert.Empty(t, f.publisher.published())
	})

	t.Run("reset flow replaces the password and revokes sessions", func(t *testing.T) {
		f := newAuthFixture(t)
		f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		f.verify(t, "citizen@example.com")

		_, err := f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "Sup3rSecret"})
		require.NoError(t, err)
		require.Positive(t, f.refreshTokens.count())

		require.NoError(t, f.svc.ForgotPassword(ctx, &usecase.ForgotPasswordInput{Email: "citizen@example.com"}))

		events := f.publisher.published()
		resetEvent := events[len(events)-1]
		require.Equal(t, service.MailKindPasswordReset, resetEvent.Kind)

		require.NoError(t, f.svc.ResetPassword(ctx, &usecase.ResetPasswordInput{
			Token:       resetEvent.Token,
			NewPassword: "N3wSecret2",
		}))

		// Every session died with the reset, and MFA was force-disabled.
		assert.Zero(t, f.refreshTokens.count())
		account, err := f.accounts.FindByEmail(ctx, "citizen@example.com")
		require.NoError(t, err)
		assert.False(t, account.MFAEnabled)
		assert.Empty(t, account.MFASecret)

		// Only the new password works now.
		_, err = f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "Sup3rSecret"})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
		_, err = f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "N3wSecret2"})
		assert.NoError(t, err)
	})

	t.Run("reset token is single-use", func(t *testing.T) {
		f := newAuthFixture(t)
		f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		f.verify(t, "citizen@example.com")

		require.NoError(t, f.svc.ForgotPassword(ctx, &usecase.ForgotPasswordInput{Email: "citizen@example.com"}))
		events := f.publisher.published()
		token := events[len(events)-1].Token

		require.NoError(t, f.svc.ResetPassword(ctx, &usecase.ResetPasswordInput{Token: token, NewPassword: "N3wSecret2"}))

		err := f.svc.ResetPassword(ctx, &usecase.ResetPasswordInput{Token: token, NewPassword: "An0therPass"})
		assert.ErrorIs(t, err, domainerrors.ErrResetTokenInvalid)
	})

	t.Run("reset clears an active lockout", func(t *testing.T) {
		f := newAuthFixture(t)
		f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		f.verify(t, "citizen@example.com")

		for i := 0; i < 5; i++ {
			_, _ = f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "WrongPass1"})
		}

		require.NoError(t, f.svc.ForgotPassword(ctx, &usecase.ForgotPasswordInput{Email: "citizen@example.com"}))
		events := f.publisher.published()
		token := events[len(events)-1].Token

		require.NoError(t, f.svc.ResetPassword(ctx, &usecase.ResetPasswordInput{Token: token, NewPassword: "N3wSecret2"}))

		_, err := f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "N3wSecret2"})
		assert.NoError(t, err)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("requires the current password", func(t *testing.T) {
		f := newAuthFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		err := f.svc.ChangePassword(ctx, &usecase.ChangePasswordInput{
			AccountID:       out.Account.ID,
			CurrentPassword: "WrongPass1",
			NewPassword:     "N3wSecret2",
		})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("change revokes all sessions", func(t *testing.T) {
		f := newAuthFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		require.Positive(t, f.refreshTokens.count())

		require.NoError(t, f.svc.ChangePassword(ctx, &usecase.ChangePasswordInput{
			AccountID:       out.Account.ID,
			CurrentPassword: "Sup3rSecret",
			NewPassword:     "N3wSecret2",
		}))

		assert.Zero(t, f.refreshTokens.count())
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("exchange rotates the refresh token", func(t *testing.T) {
		f := newAuthFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		exchanged, err := f.svc.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: out.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, exchanged.AccessToken)
		assert.NotEqual(t, out.RefreshToken, exchanged.RefreshToken)

		// The consumed token never works again.
		_, err = f.svc.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: out.RefreshToken})
		assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)

		// The replacement does.
		_, err = f.svc.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: exchanged.RefreshToken})
		assert.NoError(t, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: "garbage"})
		assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
	})
}

func TestAuthService_Sessions(t *testing.T) {
	ctx := context.Background()

	t.Run("logout is idempotent", func(t *testing.T) {
		f := newAuthFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		require.NoError(t, f.svc.Logout(ctx, &usecase.LogoutInput{RefreshToken: out.RefreshToken}))
		require.NoError(t, f.svc.Logout(ctx, &usecase.LogoutInput{RefreshToken: out.RefreshToken}))
		assert.Zero(t, f.refreshTokens.count())
	})

	t.Run("logout all devices clears every session", func(t *testing.T) {
		f := newAuthFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		f.verify(t, "citizen@example.com")
		_, err := f.svc.Login(ctx, &usecase.LoginInput{Email: "citizen@example.com", Password: "Sup3rSecret"})
		require.NoError(t, err)
		require.Equal(t, 2, f.refreshTokens.count())

		require.NoError(t, f.svc.LogoutAllDevices(ctx, out.Account.ID))
		assert.Zero(t, f.refreshTokens.count())
	})

	t.Run("revoking another account's session is forbidden", func(t *testing.T) {
		f := newAuthFixture(t)
		alice := f.register(t, "alice@example.com", entity.RoleCitizen, "")
		bob := f.register(t, "bob@example.com", entity.RoleCitizen, "")

		bobSessions, err := f.svc.GetActiveSessions(ctx, bob.Account.ID)
		require.NoError(t, err)
		require.Len(t, bobSessions, 1)

		err = f.svc.RevokeSession(ctx, alice.Account.ID, bobSessions[0].ID)
		assert.ErrorIs(t, err, domainerrors.ErrForbidden)

		// Bob can revoke his own.
		require.NoError(t, f.svc.RevokeSession(ctx, bob.Account.ID, bobSessions[0].ID))
	})
}

func TestAuthService_Profile(t *testing.T) {
	ctx := context.Background()

	f := newAuthFixture(t)
	out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

	profile, err := f.svc.GetProfile(ctx, out.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Person", profile.FullName)

	updated, err := f.svc.UpdateProfile(ctx, &usecase.UpdateProfileInput{
		AccountID: out.Account.ID,
		FullName:  "Renamed Person",
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Person", updated.FullName)
}
