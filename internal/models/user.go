package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a closed set; anything outside it is rejected at the boundary.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

type User struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FullName    string             `json:"full_name" bson:"full_name"`
	// Email and phone are omitted when empty so the sparse unique indexes
	// skip accounts that only carry one identifier.
	Email       string             `json:"email" bson:"email,omitempty"`
	PhoneNumber string             `json:"phone_number" bson:"phone_number,omitempty"`
	Password    string             `json:"password,omitempty" bson:"password"`
	Role        Role               `json:"role" bson:"role"`
	IsVerified  bool               `json:"is_verified" bson:"is_verified"`

	// TOTP state. The secret is stored on setup but only honored once
	// two_factor_enabled is set by a successful enable. LastStep holds the
	// time step of the last accepted code so a code cannot be replayed
	// within the validity window.
	TwoFactorSecret   string `json:"-" bson:"two_factor_secret,omitempty"`
	TwoFactorEnabled  bool   `json:"two_factor_enabled" bson:"two_factor_enabled"`
	TwoFactorLastStep int64  `json:"-" bson:"two_factor_last_step,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type UserProfileUpdate struct {
	FullName string  `json:"full_name,omitempty" bson:"full_name,omitempty"`
	Email    *string `json:"email,omitempty" bson:"email,omitempty"`
	Password *string `json:"password,omitempty" bson:"password,omitempty"`
}
