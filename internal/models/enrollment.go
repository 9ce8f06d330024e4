package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment records a purchased lesson. Immutable once created; at most one
// per (user, lesson), enforced by a unique index.
type Enrollment struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID     primitive.ObjectID `json:"user_id" bson:"user_id"`
	LessonID   primitive.ObjectID `json:"lesson_id" bson:"lesson_id"`
	PaymentID  string             `json:"payment_id,omitempty" bson:"payment_id,omitempty"`
	PricePaid  int64              `json:"price_paid" bson:"price_paid"`
	EnrolledAt time.Time          `json:"enrolled_at" bson:"enrolled_at"`
}

type EnrollmentStatus struct {
	IsEnrolled   bool                `json:"isEnrolled"`
	EnrollmentID *primitive.ObjectID `json:"enrollmentId,omitempty"`
	EnrolledAt   *time.Time          `json:"enrolledAt,omitempty"`
}

type PurchaseRequest struct {
	LessonID  string `json:"lessonId"`
	PaymentID string `json:"paymentId,omitempty"`
}
