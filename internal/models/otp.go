package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OTPPurposeVerifyAccount = "verify_account"
	OTPPurposeResetPassword = "reset_password"
)

// OTP is a short-lived one-time code delivered by email. Only one unconsumed,
// unexpired code per (user, purpose) is honored; issuing a new one marks the
// rest used.
type OTP struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Code      string             `bson:"code" json:"-"`
	Purpose   string             `bson:"purpose" json:"purpose"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	IsUsed    bool               `bson:"is_used" json:"is_used"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
