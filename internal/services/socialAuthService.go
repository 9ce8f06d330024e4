package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"darsly/internal/config"
	"darsly/internal/metrics"
	"darsly/internal/models"
	"darsly/internal/repositories"
	"darsly/internal/utils"
)

const sessionMaxAge = 86400 * 30

// SocialAuthService signs students in through an OAuth provider. Provider
// accounts arrive with a verified email, so the created user skips the
// one-time-code step.
type SocialAuthService interface {
	HandleProviderLogin(ctx context.Context, u goth.User) (string, error)
}

type socialAuthService struct {
	cfg      *config.Config
	userRepo repositories.UserRepository
}

func NewSocialAuthService(cfg *config.Config, userRepo repositories.UserRepository) SocialAuthService {
	return &socialAuthService{cfg: cfg, userRepo: userRepo}
}

// InitializeGoth wires the OAuth providers once at startup.
func InitializeGoth(baseURL string) {
	store := sessions.NewCookieStore([]byte(os.Getenv("SESSION_KEY")))
	store.MaxAge(sessionMaxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	gothic.Store = store

	goth.UseProviders(
		google.New(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), baseURL+"/auth/google/callback"),
		facebook.New(os.Getenv("FACEBOOK_CLIENT_ID"), os.Getenv("FACEBOOK_CLIENT_SECRET"), baseURL+"/auth/facebook/callback"),
	)
	log.Info().Msg("Goth providers initialized")
}

func (s *socialAuthService) HandleProviderLogin(ctx context.Context, u goth.User) (string, error) {
	if u.Email == "" {
		return "", fmt.Errorf("provider returned no email")
	}

	user, err := s.userRepo.FindByEmail(ctx, u.Email)
	if err != nil && err != mongo.ErrNoDocuments {
		return "", fmt.Errorf("failed to find user by email: %w", err)
	}

	if user == nil || err == mongo.ErrNoDocuments {
		newUser := &models.User{
			ID:         primitive.NewObjectID(),
			FullName:   u.Name,
			Email:      u.Email,
			Role:       models.RoleStudent,
			IsVerified: true,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if _, err := s.userRepo.Create(ctx, newUser); err != nil {
			return "", fmt.Errorf("failed to create user: %w", err)
		}
		user = newUser
		metrics.NewUsersTotal.Inc()
		log.Info().Str("email", u.Email).Str("user_id", user.ID.Hex()).Msg("New user created from provider login")
	}

	token, err := utils.GenerateAccessToken(s.cfg.JWTSecret, user.ID, user.Role, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return token, nil
}
