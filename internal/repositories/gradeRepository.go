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

type GradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) (*models.Grade, error)
	FindAll(ctx context.Context) ([]models.Grade, error)
	FindByID(ctx context.Context, gradeID primitive.ObjectID) (*models.Grade, error)
	Update(ctx context.Context, gradeID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, gradeID primitive.ObjectID) (*mongo.DeleteResult, error)
}

type gradeRepository struct {
	db database.Service
}

func NewGradeRepository(db database.Service) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("grades")
}

func (r *gradeRepository) Create(ctx context.Context, grade *models.Grade) (*models.Grade, error) {
	done := instrument("create", "grade")
	now := time.Now()
	grade.ID = primitive.NewObjectID()
	grade.CreatedAt = now
	grade.UpdatedAt = now
	_, err := r.collection().InsertOne(ctx, grade)
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create grade: %w", err)
	}
	return grade, nil
}

func (r *gradeRepository) FindAll(ctx context.Context) ([]models.Grade, error) {
	done := instrument("findAll", "grade")
	cursor, err := r.collection().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}}))
	if err != nil {
		done(true)
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	var grades []models.Grade
	err = cursor.All(ctx, &grades)
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decode grades: %w", err)
	}
	return grades, nil
}

func (r *gradeRepository) FindByID(ctx context.Context, gradeID primitive.ObjectID) (*models.Grade, error) {
	done := instrument("findById", "grade")
	var grade models.Grade
	err := r.collection().FindOne(ctx, bson.M{"_id": gradeID}).Decode(&grade)
	done(err != nil && err != mongo.ErrNoDocuments)
	if err != nil {
		return nil, err
	}
	return &grade, nil
}

func (r *gradeRepository) Update(ctx context.Context, gradeID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	done := instrument("update", "grade")
	updateFields["updated_at"] = time.Now()
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": gradeID}, bson.M{"$set": updateFields})
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update grade: %w", err)
	}
	return result, nil
}

func (r *gradeRepository) Delete(ctx context.Context, gradeID primitive.ObjectID) (*mongo.DeleteResult, error) {
	done := instrument("delete", "grade")
	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": gradeID})
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to delete grade: %w", err)
	}
	return result, nil
}
