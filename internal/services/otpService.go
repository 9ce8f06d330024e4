package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"darsly/internal/apperrors"
	"darsly/internal/config"
	"darsly/internal/models"
	"darsly/internal/repositories"
	"darsly/internal/utils"
)

// OTPService issues and checks the one-time codes used for account
// verification. Codes expire after the configured window and are single use;
// issuing a new code invalidates earlier live ones.
type OTPService interface {
	IssueCode(ctx context.Context, user *models.User, purpose string) error
	VerifyCode(ctx context.Context, user *models.User, code, purpose string) error
}

type otpService struct {
	cfg          *config.Config
	otpRepo      repositories.OTPRepository
	emailService EmailService
}

func NewOTPService(cfg *config.Config, otpRepo repositories.OTPRepository, emailService EmailService) OTPService {
	return &otpService{cfg: cfg, otpRepo: otpRepo, emailService: emailService}
}

func (s *otpService) IssueCode(ctx context.Context, user *models.User, purpose string) error {
	code, err := utils.GenerateSecureOTP(config.OTPCodeLength)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	otp := &models.OTP{
		UserID:    user.ID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(s.cfg.OTPExpiration),
		IsUsed:    false,
	}
	if _, err := s.otpRepo.Create(ctx, otp); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	subject := "Your Darsly verification code"
	body := fmt.Sprintf("Your verification code is: %s<br>It expires in %d minutes.", code, int(s.cfg.OTPExpiration.Minutes()))
	if err := s.emailService.SendEmail(user.Email, subject, body); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to send verification code email")
		return fmt.Errorf("failed to send code: %w", err)
	}

	log.Info().Str("user_id", user.ID.Hex()).Str("purpose", purpose).Msg("One-time code issued")
	return nil
}

func (s *otpService) VerifyCode(ctx context.Context, user *models.User, code, purpose string) error {
	otp, err := s.otpRepo.FindValid(ctx, user.ID, code, purpose)
	if err != nil {
		return fmt.Errorf("failed to look up code: %w", err)
	}
	if otp == nil {
		log.Warn().Str("user_id", user.ID.Hex()).Str("purpose", purpose).Msg("Invalid or expired one-time code")
		return apperrors.ErrInvalidCode
	}

	if err := s.otpRepo.MarkAsUsed(ctx, otp.ID); err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}
	return nil
}
