package services

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darsly/internal/apperrors"
	"darsly/internal/models"
)

func TestTwoFactorLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("setup stores an inert secret", func(t *testing.T) {
		user := verifiedUser(t, models.RoleAdmin)
		service := NewTwoFactorService(testConfig(), newFakeUserRepo(user))

		setup, err := service.Setup(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, setup.Secret)
		assert.Contains(t, setup.QRCode, "otpauth://totp/")

		assert.Equal(t, setup.Secret, user.TwoFactorSecret)
		assert.False(t, user.TwoFactorEnabled)

		enabled, err := service.Status(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("enable requires a valid code", func(t *testing.T) {
		user := verifiedUser(t, models.RoleAdmin)
		service := NewTwoFactorService(testConfig(), newFakeUserRepo(user))

		setup, err := service.Setup(ctx, user.ID)
		require.NoError(t, err)

		err = service.Enable(ctx, user.ID, "123456")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
		assert.False(t, user.TwoFactorEnabled)

		code, err := totp.GenerateCode(setup.Secret, time.Now())
		require.NoError(t, err)

		err = service.Enable(ctx, user.ID, code)
		require.NoError(t, err)
		assert.True(t, user.TwoFactorEnabled)
		assert.NotZero(t, user.TwoFactorLastStep)
	})

	t.Run("enable without setup", func(t *testing.T) {
		user := verifiedUser(t, models.RoleAdmin)
		service := NewTwoFactorService(testConfig(), newFakeUserRepo(user))

		err := service.Enable(ctx, user.ID, "123456")
		assert.Error(t, err)
	})

	t.Run("disable needs password and code", func(t *testing.T) {
		user := verifiedUser(t, models.RoleAdmin)
		service := NewTwoFactorService(testConfig(), newFakeUserRepo(user))

		setup, err := service.Setup(ctx, user.ID)
		require.NoError(t, err)
		code, err := totp.GenerateCode(setup.Secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, service.Enable(ctx, user.ID, code))

		laterCode, err := totp.GenerateCode(setup.Secret, time.Now().Add(30*time.Second))
		require.NoError(t, err)

		err = service.Disable(ctx, user.ID, "wrong password", laterCode)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		assert.True(t, user.TwoFactorEnabled)

		err = service.Disable(ctx, user.ID, testPassword, "000000")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
		assert.True(t, user.TwoFactorEnabled)

		err = service.Disable(ctx, user.ID, testPassword, laterCode)
		require.NoError(t, err)
		assert.False(t, user.TwoFactorEnabled)
		assert.Empty(t, user.TwoFactorSecret)
	})

	t.Run("setup rejected while enabled", func(t *testing.T) {
		user := verifiedUser(t, models.RoleAdmin)
		withTOTP(t, user)
		service := NewTwoFactorService(testConfig(), newFakeUserRepo(user))

		_, err := service.Setup(ctx, user.ID)
		assert.Error(t, err)
	})
}
