package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"darsly/internal/apperrors"
	"darsly/internal/config"
	"darsly/internal/models"
	"darsly/internal/repositories"
)

const totpPeriod = 30 // seconds per TOTP time step

// TwoFactorService manages the TOTP second factor on admin accounts:
// secret provisioning, proof-of-possession enablement, and teardown.
type TwoFactorService interface {
	Setup(ctx context.Context, userID primitive.ObjectID) (*models.TwoFactorSetup, error)
	Enable(ctx context.Context, userID primitive.ObjectID, code string) error
	Disable(ctx context.Context, userID primitive.ObjectID, password, code string) error
	Status(ctx context.Context, userID primitive.ObjectID) (bool, error)
}

type twoFactorService struct {
	cfg      *config.Config
	userRepo repositories.UserRepository
}

func NewTwoFactorService(cfg *config.Config, userRepo repositories.UserRepository) TwoFactorService {
	return &twoFactorService{cfg: cfg, userRepo: userRepo}
}

// verifyTOTPCode checks the code against the secret within ±skew time steps
// and returns the step the code matched, so the caller can persist it and
// reject replays of the same code.
func verifyTOTPCode(secret, code string, at time.Time, skew uint) (int64, bool) {
	opts := totp.ValidateOpts{
		Period:    totpPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
	for offset := -int64(skew); offset <= int64(skew); offset++ {
		ts := at.Add(time.Duration(offset*totpPeriod) * time.Second)
		expected, err := totp.GenerateCodeCustom(secret, ts, opts)
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return ts.Unix() / totpPeriod, true
		}
	}
	return 0, false
}

func (s *twoFactorService) loadUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

func (s *twoFactorService) Setup(ctx context.Context, userID primitive.ObjectID) (*models.TwoFactorSetup, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, apperrors.BadRequest("two-factor authentication is already enabled")
	}

	accountName := user.Email
	if accountName == "" {
		accountName = user.PhoneNumber
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      config.TOTPIssuer,
		AccountName: accountName,
		SecretSize:  32,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	// Stored but not honored until Enable proves possession.
	update := bson.M{
		"two_factor_secret":  key.Secret(),
		"two_factor_enabled": false,
	}
	if _, err := s.userRepo.Update(ctx, userID, update); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.Hex()).Msg("Two-factor setup initiated")
	return &models.TwoFactorSetup{Secret: key.Secret(), QRCode: key.URL()}, nil
}

func (s *twoFactorService) Enable(ctx context.Context, userID primitive.ObjectID, code string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorEnabled {
		return apperrors.BadRequest("two-factor authentication is already enabled")
	}
	if user.TwoFactorSecret == "" {
		return apperrors.BadRequest("two-factor setup must be completed first")
	}

	step, ok := verifyTOTPCode(user.TwoFactorSecret, code, time.Now(), s.cfg.TOTPSkewSteps)
	if !ok {
		log.Warn().Str("user_id", userID.Hex()).Msg("Invalid TOTP code during enable")
		return apperrors.ErrInvalidCode
	}

	update := bson.M{
		"two_factor_enabled":   true,
		"two_factor_last_step": step,
	}
	if _, err := s.userRepo.Update(ctx, userID, update); err != nil {
		return err
	}

	log.Info().Str("user_id", userID.Hex()).Msg("Two-factor authentication enabled")
	return nil
}

// Disable requires both the account password and a live TOTP code; one
// factor alone cannot switch the second factor off.
func (s *twoFactorService) Disable(ctx context.Context, userID primitive.ObjectID, password, code string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return apperrors.BadRequest("two-factor authentication is not enabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Warn().Str("user_id", userID.Hex()).Msg("Password mismatch during two-factor disable")
		return apperrors.ErrInvalidCredentials
	}
	if _, ok := verifyTOTPCode(user.TwoFactorSecret, code, time.Now(), s.cfg.TOTPSkewSteps); !ok {
		log.Warn().Str("user_id", userID.Hex()).Msg("Invalid TOTP code during two-factor disable")
		return apperrors.ErrInvalidCode
	}

	update := bson.M{
		"two_factor_enabled":   false,
		"two_factor_secret":    "",
		"two_factor_last_step": int64(0),
	}
	if _, err := s.userRepo.Update(ctx, userID, update); err != nil {
		return err
	}

	log.Info().Str("user_id", userID.Hex()).Msg("Two-factor authentication disabled")
	return nil
}

func (s *twoFactorService) Status(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.TwoFactorEnabled, nil
}
