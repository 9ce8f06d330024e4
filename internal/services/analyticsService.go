package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"darsly/internal/apperrors"
	"darsly/internal/models"
	"darsly/internal/repositories"
)

// AnalyticsService aggregates the admin dashboard numbers.
type AnalyticsService interface {
	GetOverview(ctx context.Context, since, until time.Time) (*models.AnalyticsOverview, error)
	GetLessonStats(ctx context.Context, lessonID primitive.ObjectID) (*models.LessonStats, error)
}

type analyticsService struct {
	userRepo       repositories.UserRepository
	enrollmentRepo repositories.EnrollmentRepository
	lessonRepo     repositories.LessonRepository
}

func NewAnalyticsService(
	userRepo repositories.UserRepository,
	enrollmentRepo repositories.EnrollmentRepository,
	lessonRepo repositories.LessonRepository,
) AnalyticsService {
	return &analyticsService{
		userRepo:       userRepo,
		enrollmentRepo: enrollmentRepo,
		lessonRepo:     lessonRepo,
	}
}

func (s *analyticsService) GetOverview(ctx context.Context, since, until time.Time) (*models.AnalyticsOverview, error) {
	if until.Before(since) {
		return nil, apperrors.BadRequest("until must not be before since")
	}

	totalUsers, err := s.userRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	newUsers, err := s.userRepo.CountCreatedBetween(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to count new users: %w", err)
	}
	newEnrollments, err := s.enrollmentRepo.CountCreatedBetween(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	revenue, err := s.enrollmentRepo.SumRevenueBetween(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return &models.AnalyticsOverview{
		TotalUsers:     totalUsers,
		NewUsers:       newUsers,
		NewEnrollments: newEnrollments,
		Revenue:        revenue,
		Since:          since,
		Until:          until,
	}, nil
}

func (s *analyticsService) GetLessonStats(ctx context.Context, lessonID primitive.ObjectID) (*models.LessonStats, error) {
	lesson, err := s.lessonRepo.FindByID(ctx, lessonID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch lesson: %w", err)
	}

	enrollments, err := s.enrollmentRepo.CountByLesson(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lesson enrollments: %w", err)
	}

	return &models.LessonStats{
		LessonID:    lesson.ID,
		Title:       lesson.Title,
		Enrollments: enrollments,
		Revenue:     enrollments * lesson.Price,
	}, nil
}
