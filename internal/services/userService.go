package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"darsly/internal/apperrors"
	"darsly/internal/config"
	"darsly/internal/metrics"
	"darsly/internal/models"
	"darsly/internal/repositories"
)

// UserService owns the account lifecycle: registration, one-time-code
// verification and profile access.
type UserService interface {
	Register(ctx context.Context, user *models.User) (*models.User, error)
	VerifyAccount(ctx context.Context, identifier, code string) error
	ResendCode(ctx context.Context, identifier string) error
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, updatePayload *models.UserProfileUpdate) (*models.User, error)
	GetTotalUsers(ctx context.Context) (int64, error)
}

type userService struct {
	userRepo   repositories.UserRepository
	otpService OTPService
}

func NewUserService(userRepo repositories.UserRepository, otpService OTPService) UserService {
	s := &userService{
		userRepo:   userRepo,
		otpService: otpService,
	}
	go s.updateTotalUsersPeriodically()
	return s
}

func (s *userService) GetTotalUsers(ctx context.Context) (int64, error) {
	return s.userRepo.CountAll(ctx)
}

func (s *userService) updateTotalUsersPeriodically() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		count, err := s.GetTotalUsers(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Error updating total users gauge")
		} else {
			metrics.TotalUsers.Set(float64(count))
		}
		cancel()
	}
}

func (s *userService) Register(ctx context.Context, user *models.User) (*models.User, error) {
	log.Debug().Str("email", user.Email).Msg("Attempting to register user")
	if user.Email == "" || user.PhoneNumber == "" || user.Password == "" {
		return nil, apperrors.BadRequest("email, phone number, and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), config.BcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password during registration")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user.ID = primitive.NewObjectID()
	user.Password = string(hashedPassword)
	user.Role = models.RoleStudent
	user.IsVerified = false
	user.TwoFactorEnabled = false
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	createdUser, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn().Str("email", user.Email).Msg("Identifier already registered")
			return nil, apperrors.Conflict("an account with this email or phone number already exists")
		}
		return nil, err
	}

	if err := s.otpService.IssueCode(ctx, createdUser, models.OTPPurposeVerifyAccount); err != nil {
		// The account exists; the code can be re-sent.
		log.Error().Err(err).Str("user_id", createdUser.ID.Hex()).Msg("Failed to send verification code after registration")
	}

	metrics.NewUsersTotal.Inc()
	createdUser.Password = ""
	log.Info().Str("user_id", createdUser.ID.Hex()).Str("email", createdUser.Email).Msg("User registered successfully")
	return createdUser, nil
}

func (s *userService) VerifyAccount(ctx context.Context, identifier, code string) error {
	user, err := s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apperrors.ErrInvalidCode
		}
		return fmt.Errorf("failed to resolve user: %w", err)
	}
	if user.IsVerified {
		return nil
	}

	if err := s.otpService.VerifyCode(ctx, user, code, models.OTPPurposeVerifyAccount); err != nil {
		return err
	}

	if _, err := s.userRepo.Update(ctx, user.ID, bson.M{"is_verified": true}); err != nil {
		return fmt.Errorf("failed to mark account verified: %w", err)
	}

	log.Info().Str("user_id", user.ID.Hex()).Msg("Account verified")
	return nil
}

func (s *userService) ResendCode(ctx context.Context, identifier string) error {
	user, err := s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Do not reveal whether the identifier exists.
			log.Warn().Msg("Resend requested for unknown identifier")
			return nil
		}
		return fmt.Errorf("failed to resolve user: %w", err)
	}
	if user.IsVerified {
		return nil
	}
	return s.otpService.IssueCode(ctx, user, models.OTPPurposeVerifyAccount)
}

func (s *userService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	user.Password = ""
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, updatePayload *models.UserProfileUpdate) (*models.User, error) {
	updateFields := bson.M{}
	if updatePayload.FullName != "" {
		updateFields["full_name"] = updatePayload.FullName
	}
	if updatePayload.Email != nil {
		currentUser, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify current user data: %w", err)
		}
		if currentUser.Email != *updatePayload.Email {
			existingUser, err := s.userRepo.FindByEmail(ctx, *updatePayload.Email)
			if err == nil && existingUser != nil {
				return nil, apperrors.Conflict("email already in use by another account")
			} else if err != nil && err != mongo.ErrNoDocuments {
				return nil, fmt.Errorf("failed to check email availability: %w", err)
			}
		}
		updateFields["email"] = *updatePayload.Email
	}
	if updatePayload.Password != nil && *updatePayload.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*updatePayload.Password), config.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash new password: %w", err)
		}
		updateFields["password"] = string(hashedPassword)
	}

	if len(updateFields) == 0 {
		return nil, apperrors.BadRequest("no valid fields provided for update")
	}

	result, err := s.userRepo.Update(ctx, userID, updateFields)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, apperrors.ErrNotFound
	}

	updatedUser, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve updated user profile: %w", err)
	}
	updatedUser.Password = ""

	log.Info().Str("user_id", userID.Hex()).Msg("User profile updated successfully")
	return updatedUser, nil
}
