package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"darsly/internal/handlers"
	"darsly/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.CorsMiddleware(s.cfg))
	r.Use(middlewares.PrometheusMiddleware)
	r.Use(middlewares.RateLimit)

	ch := handlers.NewCommonHandler(s.db)
	r.HandleFunc("/", ch.Hello)
	r.HandleFunc("/health", ch.Health)
	r.Handle("/metrics", promhttp.Handler())

	s.registerAuthRoutes(r)
	s.registerUserRoutes(r)
	s.registerCurriculumRoutes(r)
	s.registerEnrollmentRoutes(r)
	s.registerProgressRoutes(r)
	s.registerAnalyticsRoutes(r)

	return r
}

func (s *Server) registerAuthRoutes(r *mux.Router) {
	uh := handlers.NewUserHandler(s.userService)
	ah := handlers.NewAuthHandler(s.authService, s.socialAuthService)
	tfh := handlers.NewTwoFactorHandler(s.twoFactorService)

	auth := middlewares.AuthMiddleware(s.cfg)
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return auth(middlewares.RequireAdmin(h))
	}
	loginLimiter := middlewares.NewLoginRateLimiter(s.cfg.AdminLoginAttempts, s.cfg.AdminLoginWindow)

	r.HandleFunc("/auth/register", uh.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/verify-otp", uh.VerifyOTP).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/resend-otp", uh.ResendOTP).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", ah.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/verify-2fa", ah.VerifyTwoFactor).Methods("POST", "OPTIONS")

	// Admin login carries a tight per-IP budget against credential and
	// TOTP guessing.
	r.Handle("/auth/admin/login", loginLimiter.Limit(http.HandlerFunc(ah.AdminLogin))).Methods("POST", "OPTIONS")
	r.Handle("/auth/admin/verify-2fa", loginLimiter.Limit(http.HandlerFunc(ah.VerifyTwoFactor))).Methods("POST", "OPTIONS")

	r.Handle("/auth/admin/setup-2fa", adminOnly(tfh.Setup)).Methods("POST", "OPTIONS")
	r.Handle("/auth/admin/enable-2fa", adminOnly(tfh.Enable)).Methods("POST", "OPTIONS")
	r.Handle("/auth/admin/disable-2fa", adminOnly(tfh.Disable)).Methods("POST", "OPTIONS")
	r.Handle("/auth/admin/2fa-status", adminOnly(tfh.Status)).Methods("GET", "OPTIONS")

	r.HandleFunc("/auth/success", ah.AuthSuccess).Methods("GET")
	r.HandleFunc("/auth/error", ah.AuthError).Methods("GET")
	r.HandleFunc("/auth/{provider}", ah.BeginProviderAuth).Methods("GET")
	r.HandleFunc("/auth/{provider}/callback", ah.ProviderCallback).Methods("GET")
}

func (s *Server) registerUserRoutes(r *mux.Router) {
	uh := handlers.NewUserHandler(s.userService)
	auth := middlewares.AuthMiddleware(s.cfg)

	r.Handle("/api/me", auth(http.HandlerFunc(uh.GetMyProfile))).Methods("GET", "OPTIONS")
	r.Handle("/api/me", auth(http.HandlerFunc(uh.UpdateMyProfile))).Methods("PATCH", "PUT", "OPTIONS")
}

func (s *Server) registerCurriculumRoutes(r *mux.Router) {
	ch := handlers.NewCurriculumHandler(s.curriculumService)
	auth := middlewares.AuthMiddleware(s.cfg)
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return auth(middlewares.RequireAdmin(h))
	}

	// Student-facing catalog reads.
	r.Handle("/api/grades", auth(http.HandlerFunc(ch.GetGrades))).Methods("GET", "OPTIONS")
	r.Handle("/api/grades/{gradeId}/subjects", auth(http.HandlerFunc(ch.GetSubjectsByGrade))).Methods("GET", "OPTIONS")
	r.Handle("/api/subjects/{subjectId}/lessons", auth(http.HandlerFunc(ch.GetLessonsBySubject))).Methods("GET", "OPTIONS")
	r.Handle("/api/lessons/{lessonId}/videos", auth(http.HandlerFunc(ch.GetVideosByLesson))).Methods("GET", "OPTIONS")

	// Admin content management.
	r.Handle("/api/admin/grades", adminOnly(ch.AddGrade)).Methods("POST", "OPTIONS")
	r.Handle("/api/admin/grades/{gradeId}", adminOnly(ch.UpdateGrade)).Methods("PUT", "OPTIONS")
	r.Handle("/api/admin/grades/{gradeId}", adminOnly(ch.DeleteGrade)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/admin/subjects", adminOnly(ch.AddSubject)).Methods("POST", "OPTIONS")
	r.Handle("/api/admin/subjects/{subjectId}", adminOnly(ch.UpdateSubject)).Methods("PUT", "OPTIONS")
	r.Handle("/api/admin/subjects/{subjectId}", adminOnly(ch.DeleteSubject)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/admin/lessons", adminOnly(ch.AddLesson)).Methods("POST", "OPTIONS")
	r.Handle("/api/admin/lessons/{lessonId}", adminOnly(ch.UpdateLesson)).Methods("PUT", "OPTIONS")
	r.Handle("/api/admin/lessons/{lessonId}", adminOnly(ch.DeleteLesson)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/admin/videos", adminOnly(ch.AddVideo)).Methods("POST", "OPTIONS")
	r.Handle("/api/admin/videos/{videoId}", adminOnly(ch.UpdateVideo)).Methods("PUT", "OPTIONS")
	r.Handle("/api/admin/videos/{videoId}", adminOnly(ch.DeleteVideo)).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerEnrollmentRoutes(r *mux.Router) {
	eh := handlers.NewEnrollmentHandler(s.enrollmentService)
	auth := middlewares.AuthMiddleware(s.cfg)

	r.Handle("/enrollments", auth(http.HandlerFunc(eh.ListMyEnrollments))).Methods("GET", "OPTIONS")
	r.Handle("/enrollments/purchase", auth(http.HandlerFunc(eh.Purchase))).Methods("POST", "OPTIONS")
	r.Handle("/enrollments/check/{lessonId}", auth(http.HandlerFunc(eh.CheckEnrollment))).Methods("GET", "OPTIONS")
}

func (s *Server) registerProgressRoutes(r *mux.Router) {
	ph := handlers.NewProgressHandler(s.progressService)
	auth := middlewares.AuthMiddleware(s.cfg)

	r.Handle("/progress/track", auth(http.HandlerFunc(ph.TrackView))).Methods("POST", "OPTIONS")
	r.Handle("/progress/video/{videoId}", auth(http.HandlerFunc(ph.GetVideoProgress))).Methods("GET", "OPTIONS")
	r.Handle("/progress/lesson/{lessonId}", auth(http.HandlerFunc(ph.GetLessonProgress))).Methods("GET", "OPTIONS")
}

func (s *Server) registerAnalyticsRoutes(r *mux.Router) {
	ah := handlers.NewAnalyticsHandler(s.analyticsService)
	auth := middlewares.AuthMiddleware(s.cfg)
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return auth(middlewares.RequireAdmin(h))
	}

	r.Handle("/api/admin/analytics/overview", adminOnly(ah.GetOverview)).Methods("GET", "OPTIONS")
	r.Handle("/api/admin/analytics/lessons/{lessonId}", adminOnly(ah.GetLessonStats)).Methods("GET", "OPTIONS")
}
