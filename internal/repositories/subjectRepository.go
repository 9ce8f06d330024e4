package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"darsly/internal/database"
	"darsly/internal/models"
)

type SubjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) (*models.Subject, error)
	FindByGrade(ctx context.Context, gradeID primitive.ObjectID) ([]models.Subject, error)
	FindByID(ctx context.Context, subjectID primitive.ObjectID) (*models.Subject, error)
	Update(ctx context.Context, subjectID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, subjectID primitive.ObjectID) (*mongo.DeleteResult, error)
}

type subjectRepository struct {
	db database.Service
}

func NewSubjectRepository(db database.Service) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("subjects")
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) (*models.Subject, error) {
	done := instrument("create", "subject")
	now := time.Now()
	subject.ID = primitive.NewObjectID()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	_, err := r.collection().InsertOne(ctx, subject)
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}
	return subject, nil
}

func (r *subjectRepository) FindByGrade(ctx context.Context, gradeID primitive.ObjectID) ([]models.Subject, error) {
	done := instrument("findByGrade", "subject")
	cursor, err := r.collection().Find(ctx, bson.M{"grade_id": gradeID})
	if err != nil {
		done(true)
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	var subjects []models.Subject
	err = cursor.All(ctx, &subjects)
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decode subjects: %w", err)
	}
	return subjects, nil
}

func (r *subjectRepository) FindByID(ctx context.Context, subjectID primitive.ObjectID) (*models.Subject, error) {
	done := instrument("findById", "subject")
	var subject models.Subject
	err := r.collection().FindOne(ctx, bson.M{"_id": subjectID}).Decode(&subject)
	done(err != nil && err != mongo.ErrNoDocuments)
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepository) Update(ctx context.Context, subjectID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	done := instrument("update", "subject")
	updateFields["updated_at"] = time.Now()
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": subjectID}, bson.M{"$set": updateFields})
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update subject: %w", err)
	}
	return result, nil
}

func (r *subjectRepository) Delete(ctx context.Context, subjectID primitive.ObjectID) (*mongo.DeleteResult, error) {
	done := instrument("delete", "subject")
	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": subjectID})
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to delete subject: %w", err)
	}
	return result, nil
}
