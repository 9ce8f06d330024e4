package services

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"darsly/internal/apperrors"
	"darsly/internal/config"
	"darsly/internal/models"
)

type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	for _, u := range f.users {
		if (user.Email != "" && u.Email == user.Email) || (user.PhoneNumber != "" && u.PhoneNumber == user.PhoneNumber) {
			return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
		}
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == identifier || u.PhoneNumber == identifier {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return u, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	u, ok := f.users[userID]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	for key, value := range updateFields {
		switch key {
		case "two_factor_enabled":
			u.TwoFactorEnabled = value.(bool)
		case "two_factor_secret":
			u.TwoFactorSecret = value.(string)
		case "two_factor_last_step":
			u.TwoFactorLastStep = value.(int64)
		case "is_verified":
			u.IsVerified = value.(bool)
		case "full_name":
			u.FullName = value.(string)
		case "email":
			u.Email = value.(string)
		case "password":
			u.Password = value.(string)
		}
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeUserRepo) ClaimTOTPStep(ctx context.Context, userID primitive.ObjectID, step int64) (bool, error) {
	u, ok := f.users[userID]
	if !ok || u.TwoFactorLastStep >= step {
		return false, nil
	}
	u.TwoFactorLastStep = step
	return true, nil
}

func (f *fakeUserRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return int64(len(f.users)), nil
}

type fakeTempTokenRepo struct {
	tokens map[string]*models.TempToken
}

func newFakeTempTokenRepo() *fakeTempTokenRepo {
	return &fakeTempTokenRepo{tokens: make(map[string]*models.TempToken)}
}

func (f *fakeTempTokenRepo) Create(ctx context.Context, token *models.TempToken) error {
	f.tokens[token.JTI] = token
	return nil
}

func (f *fakeTempTokenRepo) Consume(ctx context.Context, jti string) (bool, error) {
	token, ok := f.tokens[jti]
	if !ok || token.Consumed || time.Now().After(token.ExpiresAt) {
		return false, nil
	}
	token.Consumed = true
	return true, nil
}

const testPassword = "correct horse"

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), config.BcryptCost)
	require.NoError(t, err)
	return string(hash)
}

func verifiedUser(t *testing.T, role models.Role) *models.User {
	return &models.User{
		ID:          primitive.NewObjectID(),
		FullName:    "Test User",
		Email:       "user@example.com",
		PhoneNumber: "+201000000001",
		Password:    mustHash(t, testPassword),
		Role:        role,
		IsVerified:  true,
	}
}

func withTOTP(t *testing.T, user *models.User) string {
	t.Helper()
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "test", AccountName: user.Email})
	require.NoError(t, err)
	user.TwoFactorSecret = key.Secret()
	user.TwoFactorEnabled = true
	return key.Secret()
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown identifier", func(t *testing.T) {
		service := NewAuthService(testConfig(), newFakeUserRepo(), newFakeTempTokenRepo())

		_, err := service.Login(ctx, "nobody@example.com", testPassword)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		user := verifiedUser(t, models.RoleStudent)
		service := NewAuthService(testConfig(), newFakeUserRepo(user), newFakeTempTokenRepo())

		_, err := service.Login(ctx, user.Email, "wrong")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unverified account", func(t *testing.T) {
		user := verifiedUser(t, models.RoleStudent)
		user.IsVerified = false
		service := NewAuthService(testConfig(), newFakeUserRepo(user), newFakeTempTokenRepo())

		_, err := service.Login(ctx, user.Email, testPassword)
		assert.ErrorIs(t, err, apperrors.ErrUnverifiedAccount)
	})

	t.Run("without 2FA issues a session", func(t *testing.T) {
		user := verifiedUser(t, models.RoleStudent)
		service := NewAuthService(testConfig(), newFakeUserRepo(user), newFakeTempTokenRepo())

		result, err := service.Login(ctx, user.Email, testPassword)
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.Empty(t, result.TempToken)
		assert.False(t, result.RequiresTwoFactor)
		assert.NotNil(t, result.User)
		assert.Empty(t, result.User.Password)
	})

	t.Run("with 2FA issues only a temp token", func(t *testing.T) {
		user := verifiedUser(t, models.RoleAdmin)
		withTOTP(t, user)
		service := NewAuthService(testConfig(), newFakeUserRepo(user), newFakeTempTokenRepo())

		result, err := service.Login(ctx, user.Email, testPassword)
		require.NoError(t, err)
		assert.True(t, result.RequiresTwoFactor)
		assert.NotEmpty(t, result.TempToken)
		assert.Empty(t, result.AccessToken)
		assert.Nil(t, result.User)
	})

	t.Run("admin login rejects students without revealing why", func(t *testing.T) {
		user := verifiedUser(t, models.RoleStudent)
		service := NewAuthService(testConfig(), newFakeUserRepo(user), newFakeTempTokenRepo())

		_, err := service.AdminLogin(ctx, user.PhoneNumber, testPassword)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}

func TestVerifyTwoFactor(t *testing.T) {
	ctx := context.Background()

	newLoggedInFixture := func(t *testing.T) (AuthService, *models.User, string, string) {
		user := verifiedUser(t, models.RoleAdmin)
		secret := withTOTP(t, user)
		service := NewAuthService(testConfig(), newFakeUserRepo(user), newFakeTempTokenRepo())

		result, err := service.Login(ctx, user.Email, testPassword)
		require.NoError(t, err)
		require.True(t, result.RequiresTwoFactor)
		return service, user, result.TempToken, secret
	}

	t.Run("valid code completes the login", func(t *testing.T) {
		service, _, tempToken, secret := newLoggedInFixture(t)

		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		result, err := service.VerifyTwoFactor(ctx, tempToken, code)
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.False(t, result.RequiresTwoFactor)
		assert.NotNil(t, result.User)
	})

	t.Run("malformed temp token", func(t *testing.T) {
		service, _, _, secret := newLoggedInFixture(t)

		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		_, err = service.VerifyTwoFactor(ctx, "not-a-token", code)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("wrong code", func(t *testing.T) {
		service, _, tempToken, _ := newLoggedInFixture(t)

		_, err := service.VerifyTwoFactor(ctx, tempToken, "000000")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
	})

	t.Run("temp token is single use", func(t *testing.T) {
		service, _, tempToken, secret := newLoggedInFixture(t)

		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		_, err = service.VerifyTwoFactor(ctx, tempToken, code)
		require.NoError(t, err)

		// A newer code from inside the skew window validates and claims a
		// fresh step, but the consumed token still blocks the login.
		laterCode, err := totp.GenerateCode(secret, time.Now().Add(60*time.Second))
		require.NoError(t, err)

		_, err = service.VerifyTwoFactor(ctx, tempToken, laterCode)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("code replay is rejected", func(t *testing.T) {
		user := verifiedUser(t, models.RoleAdmin)
		secret := withTOTP(t, user)
		service := NewAuthService(testConfig(), newFakeUserRepo(user), newFakeTempTokenRepo())

		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		first, err := service.Login(ctx, user.Email, testPassword)
		require.NoError(t, err)
		_, err = service.VerifyTwoFactor(ctx, first.TempToken, code)
		require.NoError(t, err)

		// New login, same code: the step is already claimed.
		second, err := service.Login(ctx, user.Email, testPassword)
		require.NoError(t, err)
		_, err = service.VerifyTwoFactor(ctx, second.TempToken, code)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
	})

	t.Run("rejects when 2FA was disabled in the meantime", func(t *testing.T) {
		service, user, tempToken, secret := newLoggedInFixture(t)

		user.TwoFactorEnabled = false
		user.TwoFactorSecret = ""

		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		_, err = service.VerifyTwoFactor(ctx, tempToken, code)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}
