package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NewUsersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_new_users_total",
		Help: "Total number of new user registrations.",
	})
	TotalUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "app_total_users",
		Help: "Total number of registered users in the application.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts.",
	}, []string{"status"}) // status: "success", "failed" or "2fa_pending"
	TwoFactorVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_two_factor_verifications_total",
		Help: "Total number of 2FA verification attempts.",
	}, []string{"status"})

	EnrollmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_enrollments_total",
		Help: "Total number of lesson enrollments created.",
	})
	RevenueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_revenue_total",
		Help: "Cumulative revenue from lesson purchases, in the smallest currency unit.",
	})

	VideoViewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_video_views_total",
		Help: "Total number of recorded video views.",
	})
	ViewLimitRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_view_limit_rejections_total",
		Help: "Total number of playback attempts rejected by the view cap.",
	})
)
