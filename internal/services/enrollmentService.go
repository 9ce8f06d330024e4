package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"darsly/internal/apperrors"
	"darsly/internal/metrics"
	"darsly/internal/models"
	"darsly/internal/repositories"
)

// EnrollmentService grants and reports lesson access. Payment itself happens
// at the gateway; this service records the outcome.
type EnrollmentService interface {
	// PurchaseLesson is idempotent: buying an already-owned lesson returns
	// the existing enrollment instead of creating a second one.
	PurchaseLesson(ctx context.Context, userID, lessonID primitive.ObjectID, paymentID string) (*models.Enrollment, error)
	CheckEnrollment(ctx context.Context, userID, lessonID primitive.ObjectID) (*models.EnrollmentStatus, error)
	ListEnrollments(ctx context.Context, userID primitive.ObjectID) ([]models.Enrollment, error)
}

type enrollmentService struct {
	enrollmentRepo repositories.EnrollmentRepository
	lessonRepo     repositories.LessonRepository
}

func NewEnrollmentService(enrollmentRepo repositories.EnrollmentRepository, lessonRepo repositories.LessonRepository) EnrollmentService {
	return &enrollmentService{enrollmentRepo: enrollmentRepo, lessonRepo: lessonRepo}
}

func (s *enrollmentService) PurchaseLesson(ctx context.Context, userID, lessonID primitive.ObjectID, paymentID string) (*models.Enrollment, error) {
	lesson, err := s.lessonRepo.FindByID(ctx, lessonID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch lesson: %w", err)
	}

	enrollment := &models.Enrollment{
		UserID:    userID,
		LessonID:  lessonID,
		PaymentID: paymentID,
		PricePaid: lesson.Price,
	}
	created, err := s.enrollmentRepo.Create(ctx, enrollment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			existing, findErr := s.enrollmentRepo.FindByUserAndLesson(ctx, userID, lessonID)
			if findErr != nil {
				return nil, findErr
			}
			if existing == nil {
				return nil, fmt.Errorf("duplicate enrollment vanished: %w", err)
			}
			log.Info().Str("user_id", userID.Hex()).Str("lesson_id", lessonID.Hex()).Msg("Duplicate purchase, returning existing enrollment")
			return existing, nil
		}
		return nil, err
	}

	metrics.EnrollmentsTotal.Inc()
	metrics.RevenueTotal.Add(float64(lesson.Price))
	log.Info().Str("user_id", userID.Hex()).Str("lesson_id", lessonID.Hex()).Str("enrollment_id", created.ID.Hex()).Msg("Lesson purchased")
	return created, nil
}

func (s *enrollmentService) CheckEnrollment(ctx context.Context, userID, lessonID primitive.ObjectID) (*models.EnrollmentStatus, error) {
	enrollment, err := s.enrollmentRepo.FindByUserAndLesson(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return &models.EnrollmentStatus{IsEnrolled: false}, nil
	}
	return &models.EnrollmentStatus{
		IsEnrolled:   true,
		EnrollmentID: &enrollment.ID,
		EnrolledAt:   &enrollment.EnrolledAt,
	}, nil
}

func (s *enrollmentService) ListEnrollments(ctx context.Context, userID primitive.ObjectID) ([]models.Enrollment, error) {
	return s.enrollmentRepo.FindByUser(ctx, userID)
}
