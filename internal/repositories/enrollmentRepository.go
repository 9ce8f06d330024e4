package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"darsly/internal/database"
	"darsly/internal/models"
)

type EnrollmentRepository interface {
	// Create inserts the enrollment. A duplicate (user, lesson) insert
	// surfaces as a mongo duplicate-key error; the service resolves it to
	// the existing record.
	Create(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error)
	FindByUserAndLesson(ctx context.Context, userID, lessonID primitive.ObjectID) (*models.Enrollment, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Enrollment, error)
	CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountByLesson(ctx context.Context, lessonID primitive.ObjectID) (int64, error)
	SumRevenueBetween(ctx context.Context, start, end time.Time) (int64, error)
}

type enrollmentRepository struct {
	db database.Service
}

func NewEnrollmentRepository(db database.Service) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("enrollments")
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error) {
	done := instrument("create", "enrollment")
	enrollment.ID = primitive.NewObjectID()
	enrollment.EnrolledAt = time.Now()
	_, err := r.collection().InsertOne(ctx, enrollment)
	done(err != nil)
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			log.Error().Err(err).Str("user_id", enrollment.UserID.Hex()).Str("lesson_id", enrollment.LessonID.Hex()).Msg("Failed to insert enrollment")
		}
		return nil, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) FindByUserAndLesson(ctx context.Context, userID, lessonID primitive.ObjectID) (*models.Enrollment, error) {
	done := instrument("findByUserAndLesson", "enrollment")
	var enrollment models.Enrollment
	filter := bson.M{"user_id": userID, "lesson_id": lessonID}
	err := r.collection().FindOne(ctx, filter).Decode(&enrollment)
	done(err != nil && err != mongo.ErrNoDocuments)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Enrollment, error) {
	done := instrument("findByUser", "enrollment")
	cursor, err := r.collection().Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		done(true)
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	var enrollments []models.Enrollment
	err = cursor.All(ctx, &enrollments)
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decode enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *enrollmentRepository) CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	done := instrument("countCreatedBetween", "enrollment")
	filter := bson.M{"enrolled_at": bson.M{"$gte": start, "$lte": end}}
	count, err := r.collection().CountDocuments(ctx, filter)
	done(err != nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return count, nil
}

func (r *enrollmentRepository) CountByLesson(ctx context.Context, lessonID primitive.ObjectID) (int64, error) {
	done := instrument("countByLesson", "enrollment")
	count, err := r.collection().CountDocuments(ctx, bson.M{"lesson_id": lessonID})
	done(err != nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count lesson enrollments: %w", err)
	}
	return count, nil
}

func (r *enrollmentRepository) SumRevenueBetween(ctx context.Context, start, end time.Time) (int64, error) {
	done := instrument("sumRevenueBetween", "enrollment")
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"enrolled_at": bson.M{"$gte": start, "$lte": end}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$price_paid"}}}},
	}
	cursor, err := r.collection().Aggregate(ctx, pipeline)
	if err != nil {
		done(true)
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	var results []struct {
		Total int64 `bson:"total"`
	}
	err = cursor.All(ctx, &results)
	done(err != nil)
	if err != nil {
		return 0, fmt.Errorf("failed to decode revenue aggregate: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
