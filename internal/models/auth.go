package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Login struct {
	// Identifier is a phone number or an email address.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type AdminLogin struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// LoginResult is the single outcome type of the login state machine: either
// a full session or a pending second factor, never both.
type LoginResult struct {
	AccessToken       string `json:"accessToken,omitempty"`
	TempToken         string `json:"tempToken,omitempty"`
	RequiresTwoFactor bool   `json:"requiresTwoFactor,omitempty"`
	User              *User  `json:"user,omitempty"`
}

type VerifyTwoFactorRequest struct {
	TempToken string `json:"tempToken"`
	TOTPCode  string `json:"totpCode"`
}

type EnableTwoFactorRequest struct {
	Token string `json:"token"`
}

type DisableTwoFactorRequest struct {
	Password string `json:"password"`
	TOTPCode string `json:"totpCode"`
}

type TwoFactorSetup struct {
	Secret string `json:"secret"`
	QRCode string `json:"qrCode"`
}

type VerifyOTPRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

type ResendOTPRequest struct {
	Identifier string `json:"identifier"`
}

// TempToken is the persisted half of an issued 2FA temp token: the jti lives
// here so the token can be consumed server-side exactly once.
type TempToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	JTI       string             `bson:"jti"`
	UserID    primitive.ObjectID `bson:"user_id"`
	ExpiresAt time.Time          `bson:"expires_at"`
	Consumed  bool               `bson:"consumed"`
	CreatedAt time.Time          `bson:"created_at"`
}
