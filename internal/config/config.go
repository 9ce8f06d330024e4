package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Business constants. Values come from the environment where tuning makes
// sense, with the documented defaults; tests override through the setters on
// the Config value they build.
const (
	DefaultMaxVideoViews      = 2
	DefaultOTPExpiration      = 10 * time.Minute
	DefaultAccessTokenTTL     = 24 * time.Hour
	DefaultTempTokenTTL       = 5 * time.Minute
	DefaultTOTPSkewSteps      = 2
	DefaultAdminLoginAttempts = 5
	DefaultAdminLoginWindow   = 15 * time.Minute
	BcryptCost                = 8
	OTPCodeLength             = 6
	TOTPIssuer                = "Darsly"
)

type Config struct {
	Port           int
	JWTSecret      []byte
	MaxVideoViews  int
	OTPExpiration  time.Duration
	AccessTokenTTL time.Duration
	TempTokenTTL   time.Duration
	TOTPSkewSteps  uint

	AdminLoginAttempts int
	AdminLoginWindow   time.Duration

	AllowedOrigins []string
}

// Load reads the environment once at startup. A missing JWT_SECRET is left
// for the consumer to reject; everything else defaults.
func Load() *Config {
	return &Config{
		Port:               envInt("PORT", 8080),
		JWTSecret:          []byte(os.Getenv("JWT_SECRET")),
		MaxVideoViews:      envInt("MAX_VIDEO_VIEWS", DefaultMaxVideoViews),
		OTPExpiration:      envDuration("OTP_EXPIRATION", DefaultOTPExpiration),
		AccessTokenTTL:     envDuration("ACCESS_TOKEN_TTL", DefaultAccessTokenTTL),
		TempTokenTTL:       envDuration("TEMP_TOKEN_TTL", DefaultTempTokenTTL),
		TOTPSkewSteps:      DefaultTOTPSkewSteps,
		AdminLoginAttempts: envInt("ADMIN_LOGIN_ATTEMPTS", DefaultAdminLoginAttempts),
		AdminLoginWindow:   envDuration("ADMIN_LOGIN_WINDOW", DefaultAdminLoginWindow),
		AllowedOrigins:     envList("ALLOWED_ORIGINS"),
	}
}

// envList parses a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
