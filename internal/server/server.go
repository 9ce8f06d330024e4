package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/joho/godotenv/autoload"

	"darsly/internal/config"
	"darsly/internal/database"
	"darsly/internal/middlewares"
	"darsly/internal/repositories"
	"darsly/internal/services"
)

type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	db         database.Service

	userService       services.UserService
	authService       services.AuthService
	twoFactorService  services.TwoFactorService
	socialAuthService services.SocialAuthService
	curriculumService services.CurriculumService
	enrollmentService services.EnrollmentService
	progressService   services.ProgressService
	analyticsService  services.AnalyticsService
}

func NewServer() *Server {
	cfg := config.Load()
	if len(cfg.JWTSecret) == 0 {
		log.Fatal().Msg("JWT_SECRET environment variable not set")
	}

	db := database.New()

	userRepo := repositories.NewUserRepository(db)
	otpRepo := repositories.NewOTPRepository(db)
	tempTokenRepo := repositories.NewTempTokenRepository(db)
	gradeRepo := repositories.NewGradeRepository(db)
	subjectRepo := repositories.NewSubjectRepository(db)
	lessonRepo := repositories.NewLessonRepository(db)
	videoRepo := repositories.NewVideoRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	progressRepo := repositories.NewProgressRepository(db)

	emailService := services.NewEmailService()
	otpService := services.NewOTPService(cfg, otpRepo, emailService)

	s := &Server{
		cfg:               cfg,
		db:                db,
		userService:       services.NewUserService(userRepo, otpService),
		authService:       services.NewAuthService(cfg, userRepo, tempTokenRepo),
		twoFactorService:  services.NewTwoFactorService(cfg, userRepo),
		socialAuthService: services.NewSocialAuthService(cfg, userRepo),
		curriculumService: services.NewCurriculumService(gradeRepo, subjectRepo, lessonRepo, videoRepo),
		enrollmentService: services.NewEnrollmentService(enrollmentRepo, lessonRepo),
		progressService:   services.NewProgressService(cfg, progressRepo, videoRepo, lessonRepo, enrollmentRepo),
		analyticsService:  services.NewAnalyticsService(userRepo, enrollmentRepo, lessonRepo),
	}

	services.InitializeGoth(os.Getenv("BASE_URL"))
	go middlewares.CleanupVisitors()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	log.Info().Int("port", s.cfg.Port).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}

	if err := s.db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	}

	log.Info().Msg("Server exiting")
	done <- true
}
