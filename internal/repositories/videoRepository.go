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

type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) (*models.Video, error)
	FindByLesson(ctx context.Context, lessonID primitive.ObjectID) ([]models.Video, error)
	FindByID(ctx context.Context, videoID primitive.ObjectID) (*models.Video, error)
	Update(ctx context.Context, videoID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, videoID primitive.ObjectID) (*mongo.DeleteResult, error)
}

type videoRepository struct {
	db database.Service
}

func NewVideoRepository(db database.Service) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("videos")
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) (*models.Video, error) {
	done := instrument("create", "video")
	now := time.Now()
	video.ID = primitive.NewObjectID()
	video.CreatedAt = now
	video.UpdatedAt = now
	_, err := r.collection().InsertOne(ctx, video)
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}
	return video, nil
}

func (r *videoRepository) FindByLesson(ctx context.Context, lessonID primitive.ObjectID) ([]models.Video, error) {
	done := instrument("findByLesson", "video")
	cursor, err := r.collection().Find(ctx, bson.M{"lesson_id": lessonID}, options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}}))
	if err != nil {
		done(true)
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	var videos []models.Video
	err = cursor.All(ctx, &videos)
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decode videos: %w", err)
	}
	return videos, nil
}

func (r *videoRepository) FindByID(ctx context.Context, videoID primitive.ObjectID) (*models.Video, error) {
	done := instrument("findById", "video")
	var video models.Video
	err := r.collection().FindOne(ctx, bson.M{"_id": videoID}).Decode(&video)
	done(err != nil && err != mongo.ErrNoDocuments)
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) Update(ctx context.Context, videoID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	done := instrument("update", "video")
	updateFields["updated_at"] = time.Now()
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": videoID}, bson.M{"$set": updateFields})
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update video: %w", err)
	}
	return result, nil
}

func (r *videoRepository) Delete(ctx context.Context, videoID primitive.ObjectID) (*mongo.DeleteResult, error) {
	done := instrument("delete", "video")
	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": videoID})
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to delete video: %w", err)
	}
	return result, nil
}
