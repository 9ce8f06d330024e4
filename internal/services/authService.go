package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"darsly/internal/apperrors"
	"darsly/internal/config"
	"darsly/internal/metrics"
	"darsly/internal/models"
	"darsly/internal/repositories"
	"darsly/internal/utils"
)

// AuthService runs the login state machine: password check, then either a
// session token or a temp token pending the second factor.
type AuthService interface {
	Login(ctx context.Context, identifier, password string) (*models.LoginResult, error)
	AdminLogin(ctx context.Context, phoneNumber, password string) (*models.LoginResult, error)
	VerifyTwoFactor(ctx context.Context, tempToken, totpCode string) (*models.LoginResult, error)
}

type authService struct {
	cfg           *config.Config
	userRepo      repositories.UserRepository
	tempTokenRepo repositories.TempTokenRepository
}

func NewAuthService(cfg *config.Config, userRepo repositories.UserRepository, tempTokenRepo repositories.TempTokenRepository) AuthService {
	return &authService{cfg: cfg, userRepo: userRepo, tempTokenRepo: tempTokenRepo}
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*models.LoginResult, error) {
	return s.login(ctx, identifier, password, "")
}

// AdminLogin is Login restricted to admin accounts. A student hitting the
// admin endpoint gets the same invalid-credentials answer as a wrong
// password, so the endpoint does not leak which accounts are admins.
func (s *authService) AdminLogin(ctx context.Context, phoneNumber, password string) (*models.LoginResult, error) {
	return s.login(ctx, phoneNumber, password, models.RoleAdmin)
}

func (s *authService) login(ctx context.Context, identifier, password string, requiredRole models.Role) (*models.LoginResult, error) {
	user, err := s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
			log.Warn().Msg("Login attempt for unknown identifier")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("user_id", user.ID.Hex()).Msg("Password mismatch during login")
		return nil, apperrors.ErrInvalidCredentials
	}

	if requiredRole != "" && user.Role != requiredRole {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsVerified {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.ErrUnverifiedAccount
	}

	if user.TwoFactorEnabled {
		tempToken, jti, err := utils.GenerateTempToken(s.cfg.JWTSecret, user.ID, s.cfg.TempTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to generate temp token: %w", err)
		}
		record := &models.TempToken{
			JTI:       jti,
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(s.cfg.TempTokenTTL),
		}
		if err := s.tempTokenRepo.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist temp token: %w", err)
		}

		metrics.LoginAttemptsTotal.WithLabelValues("2fa_pending").Inc()
		log.Info().Str("user_id", user.ID.Hex()).Msg("Password accepted, awaiting second factor")
		return &models.LoginResult{TempToken: tempToken, RequiresTwoFactor: true}, nil
	}

	return s.issueSession(user)
}

func (s *authService) VerifyTwoFactor(ctx context.Context, tempToken, totpCode string) (*models.LoginResult, error) {
	claims, err := utils.ParseToken(s.cfg.JWTSecret, tempToken, utils.TokenPurposeTwoFactor)
	if err != nil {
		metrics.TwoFactorVerificationsTotal.WithLabelValues("failed").Inc()
		log.Warn().Msg("Malformed or expired temp token")
		return nil, apperrors.ErrInvalidToken
	}

	userID, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		metrics.TwoFactorVerificationsTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			metrics.TwoFactorVerificationsTotal.WithLabelValues("failed").Inc()
			return nil, apperrors.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		metrics.TwoFactorVerificationsTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.ErrInvalidToken
	}

	step, ok := verifyTOTPCode(user.TwoFactorSecret, totpCode, time.Now(), s.cfg.TOTPSkewSteps)
	if !ok {
		metrics.TwoFactorVerificationsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("user_id", user.ID.Hex()).Msg("Invalid TOTP code during login verification")
		return nil, apperrors.ErrInvalidCode
	}

	// A code is good for exactly one login, even inside the skew window.
	claimed, err := s.userRepo.ClaimTOTPStep(ctx, user.ID, step)
	if err != nil {
		return nil, err
	}
	if !claimed {
		metrics.TwoFactorVerificationsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("user_id", user.ID.Hex()).Msg("Replayed TOTP code rejected")
		return nil, apperrors.ErrInvalidCode
	}

	// Consume the temp token only after the code checks out, and exactly
	// once: a second verification with the same token fails here.
	consumed, err := s.tempTokenRepo.Consume(ctx, claims.RegisteredClaims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume temp token: %w", err)
	}
	if !consumed {
		metrics.TwoFactorVerificationsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("user_id", user.ID.Hex()).Msg("Temp token already consumed")
		return nil, apperrors.ErrInvalidToken
	}

	metrics.TwoFactorVerificationsTotal.WithLabelValues("success").Inc()
	return s.issueSession(user)
}

func (s *authService) issueSession(user *models.User) (*models.LoginResult, error) {
	accessToken, err := utils.GenerateAccessToken(s.cfg.JWTSecret, user.ID, user.Role, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", user.ID.Hex()).Msg("User logged in successfully")

	user.Password = ""
	return &models.LoginResult{AccessToken: accessToken, User: user}, nil
}
