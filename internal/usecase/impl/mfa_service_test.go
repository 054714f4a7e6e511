package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procura/config"
	"procura/internal/domain/entity"
	domainerrors "procura/internal/domain/errors"
	"procura/internal/domain/service"
	"procura/internal/usecase"
)

type mfaFixture struct {
	authFixture

	mfa usecase.MFAUsecase
}

func newMFAFixture(t *testing.T) *mfaFixture {
	t.Helper()

	return newMFAFixtureWithQR(t, fakeQRCodeService{})
}

func newMFAFixtureWithQR(t *testing.T, qr service.QRCodeService) *mfaFixture {
	t.Helper()

	auth := newAuthFixture(t)

	factory := &fakeRepoFactory{
		accountRepo:      auth.accounts,
		organizationRepo: auth.organizations,
		refreshTokenRepo: auth.refreshTokens,
		tenderRepo:       newFakeTenderRepo(),
		bidRepo:          newFakeBidRepo(),
	}

	mfa := NewMFAService(MFAServiceParams{
		TxManager:        &fakeTxManager{factory: factory},
		AccountRepo:      auth.accounts,
		RefreshTokenRepo: auth.refreshTokens,
		Hasher:           fakePasswordHasher{},
		TokenService:     auth.tokens,
		TOTPService:      fakeTOTPService{},
		QRCodeService:    qr,
		Config: &config.Config{
			Auth: &config.AuthConfig{
				MaxFailedLogins: 5,
				LockoutDuration: "15m",
			},
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return &mfaFixture{authFixture: *auth, mfa: mfa}
}

func TestMFAService_SetupAndConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("setup provisions a secret without enabling mfa", func(t *testing.T) {
		f := newMFAFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		setup, err := f.mfa.SetupMFA(ctx, out.Account.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, setup.Secret)
		assert.Contains(t, setup.URI, "otpauth://totp/")
		assert.NotEmpty(t, setup.QRCode)

		account, err := f.accounts.FindByID(ctx, out.Account.ID)
		require.NoError(t, err)
		assert.False(t, account.MFAEnabled)
		assert.Equal(t, setup.Secret, account.MFASecret)
	})

	t.Run("confirming a valid code enables mfa", func(t *testing.T) {
		f := newMFAFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		_, err := f.mfa.SetupMFA(ctx, out.Account.ID)
		require.NoError(t, err)

		require.NoError(t, f.mfa.ConfirmSetup(ctx, &usecase.ConfirmMFASetupInput{
			AccountID: out.Account.ID,
			Code:      fakeValidTOTPCode,
		}))

		account, err := f.accounts.FindByID(ctx, out.Account.ID)
		require.NoError(t, err)
		assert.True(t, account.MFAEnabled)
	})

	t.Run("wrong code does not enable mfa", func(t *testing.T) {
		f := newMFAFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		_, err := f.mfa.SetupMFA(ctx, out.Account.ID)
		require.NoError(t, err)

		err = f.mfa.ConfirmSetup(ctx, &usecase.ConfirmMFASetupInput{
			AccountID: out.Account.ID,
			Code:      "000000",
		})
		assert.ErrorIs(t, err, domainerrors.ErrMFACodeInvalid)

		account, err := f.accounts.FindByID(ctx, out.Account.ID)
		require.NoError(t, err)
		assert.False(t, account.MFAEnabled)
	})

	t.Run("qr failure leaves no orphaned secret behind", func(t *testing.T) {
		f := newMFAFixtureWithQR(t, failingQRCodeService{})
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		_, err := f.mfa.SetupMFA(ctx, out.Account.ID)
		assert.ErrorIs(t, err, domainerrors.ErrMFASetupFailed)

		account, err := f.accounts.FindByID(ctx, out.Account.ID)
		require.NoError(t, err)
		assert.False(t, account.MFAEnabled)
		assert.Empty(t, account.MFASecret)
	})

	t.Run("confirm without setup is rejected", func(t *testing.T) {
		f := newMFAFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		err := f.mfa.ConfirmSetup(ctx, &usecase.ConfirmMFASetupInput{
			AccountID: out.Account.ID,
			Code:      fakeValidTOTPCode,
		})
		assert.ErrorIs(t, err, domainerrors.ErrMFANotEnabled)
	})

	t.Run("setup on an already enabled account is rejected", func(t *testing.T) {
		f := newMFAFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		_, err := f.mfa.SetupMFA(ctx, out.Account.ID)
		require.NoError(t, err)
		require.NoError(t, f.mfa.ConfirmSetup(ctx, &usecase.ConfirmMFASetupInput{
			AccountID: out.Account.ID,
			Code:      fakeValidTOTPCode,
		}))

		_, err = f.mfa.SetupMFA(ctx, out.Account.ID)
		assert.ErrorIs(t, err, domainerrors.ErrMFAAlreadyEnabled)
	})
}

func TestMFAService_VerifyLogin(t *testing.T) {
	ctx := context.Background()

	setupEnabled := func(t *testing.T) (*mfaFixture, string) {
		t.Helper()

		f := newMFAFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		f.verify(t, "citizen@example.com")

		_, err := f.mfa.SetupMFA(ctx, out.Account.ID)
		require.NoError(t, err)
		require.NoError(t, f.mfa.ConfirmSetup(ctx, &usecase.ConfirmMFASetupInput{
			AccountID: out.Account.ID,
			Code:      fakeValidTOTPCode,
		}))

		return f, "citizen@example.com"
	}

	t.Run("password plus code yields session credentials", func(t *testing.T) {
		f, email := setupEnabled(t)

		// The plain login only issues the challenge.
		loginOut, err := f.svc.Login(ctx, &usecase.LoginInput{Email: email, Password: "Sup3rSecret"})
		require.NoError(t, err)
		require.True(t, loginOut.MFARequired)

		out, err := f.mfa.VerifyLogin(ctx, &usecase.VerifyMFALoginInput{
			Email:    email,
			Password: "Sup3rSecret",
			Code:     fakeValidTOTPCode,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, out.AccessToken)
		assert.NotEmpty(t, out.RefreshToken)
		assert.False(t, out.MFARequired)
	})

	t.Run("wrong code is rejected and counts toward lockout", func(t *testing.T) {
		f, email := setupEnabled(t)

		for i := 0; i < 5; i++ {
			_, err := f.mfa.VerifyLogin(ctx, &usecase.VerifyMFALoginInput{
				Email:    email,
				Password: "Sup3rSecret",
				Code:     "000000",
			})
			assert.ErrorIs(t, err, domainerrors.ErrMFACodeInvalid)
		}

		_, err := f.mfa.VerifyLogin(ctx, &usecase.VerifyMFALoginInput{
			Email:    email,
			Password: "Sup3rSecret",
			Code:     fakeValidTOTPCode,
		})
		assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		f, email := setupEnabled(t)

		_, err := f.mfa.VerifyLogin(ctx, &usecase.VerifyMFALoginInput{
			Email:    email,
			Password: "WrongPass1",
			Code:     fakeValidTOTPCode,
		})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("account without mfa cannot use the challenge endpoint", func(t *testing.T) {
		f := newMFAFixture(t)
		f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		f.verify(t, "citizen@example.com")

		_, err := f.mfa.VerifyLogin(ctx, &usecase.VerifyMFALoginInput{
			Email:    "citizen@example.com",
			Password: "Sup3rSecret",
			Code:     fakeValidTOTPCode,
		})
		assert.ErrorIs(t, err, domainerrors.ErrMFANotEnabled)
	})
}

func TestMFAService_Disable(t *testing.T) {
	ctx := context.Background()

	enable := func(t *testing.T) (*mfaFixture, *usecase.RegisterOutput) {
		t.Helper()

		f := newMFAFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")
		_, err := f.mfa.SetupMFA(ctx, out.Account.ID)
		require.NoError(t, err)
		require.NoError(t, f.mfa.ConfirmSetup(ctx, &usecase.ConfirmMFASetupInput{
			AccountID: out.Account.ID,
			Code:      fakeValidTOTPCode,
		}))

		return f, out
	}

	t.Run("password plus code disables mfa and clears the secret", func(t *testing.T) {
		f, out := enable(t)

		require.NoError(t, f.mfa.DisableMFA(ctx, &usecase.DisableMFAInput{
			AccountID: out.Account.ID,
			Password:  "Sup3rSecret",
			Code:      fakeValidTOTPCode,
		}))

		account, err := f.accounts.FindByID(ctx, out.Account.ID)
		require.NoError(t, err)
		assert.False(t, account.MFAEnabled)
		assert.Empty(t, account.MFASecret)
	})

	t.Run("wrong password keeps mfa enabled", func(t *testing.T) {
		f, out := enable(t)

		err := f.mfa.DisableMFA(ctx, &usecase.DisableMFAInput{
			AccountID: out.Account.ID,
			Password:  "WrongPass1",
			Code:      fakeValidTOTPCode,
		})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("disable without mfa enabled is rejected", func(t *testing.T) {
		f := newMFAFixture(t)
		out := f.register(t, "citizen@example.com", entity.RoleCitizen, "")

		err := f.mfa.DisableMFA(ctx, &usecase.DisableMFAInput{
			AccountID: out.Account.ID,
			Password:  "Sup3rSecret",
			Code:      fakeValidTOTPCode,
		})
		assert.ErrorIs(t, err, domainerrors.ErrMFANotEnabled)
	})
}
