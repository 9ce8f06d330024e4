package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"darsly/internal/database"
	"darsly/internal/models"
)

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) (*models.Lesson, error)
	FindBySubject(ctx context.Context, subjectID primitive.ObjectID) ([]models.Lesson, error)
	FindByID(ctx context.Context, lessonID primitive.ObjectID) (*models.Lesson, error)
	Update(ctx context.Context, lessonID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, lessonID primitive.ObjectID) (*mongo.DeleteResult, error)
}

type lessonRepository struct {
	db database.Service
}

func NewLessonRepository(db database.Service) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("lessons")
}

func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) (*models.Lesson, error) {
	done := instrument("create", "lesson")
	now := time.Now()
	lesson.ID = primitive.NewObjectID()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now
	_, err := r.collection().InsertOne(ctx, lesson)
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}
	return lesson, nil
}

func (r *lessonRepository) FindBySubject(ctx context.Context, subjectID primitive.ObjectID) ([]models.Lesson, error) {
	done := instrument("findBySubject", "lesson")
	cursor, err := r.collection().Find(ctx, bson.M{"subject_id": subjectID}, options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}}))
	if err != nil {
		done(true)
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	var lessons []models.Lesson
	err = cursor.All(ctx, &lessons)
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decode lessons: %w", err)
	}
	return lessons, nil
}

func (r *lessonRepository) FindByID(ctx context.Context, lessonID primitive.ObjectID) (*models.Lesson, error) {
	done := instrument("findById", "lesson")
	var lesson models.Lesson
	err := r.collection().FindOne(ctx, bson.M{"_id": lessonID}).Decode(&lesson)
	done(err != nil && err != mongo.ErrNoDocuments)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepository) Update(ctx context.Context, lessonID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	done := instrument("update", "lesson")
	updateFields["updated_at"] = time.Now()
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": lessonID}, bson.M{"$set": updateFields})
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}
	return result, nil
}

func (r *lessonRepository) Delete(ctx context.Context, lessonID primitive.ObjectID) (*mongo.DeleteResult, error) {
	done := instrument("delete", "lesson")
	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": lessonID})
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to delete lesson: %w", err)
	}
	return result, nil
}
