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

type ProgressRepository interface {
	FindByUserAndVideo(ctx context.Context, userID, videoID primitive.ObjectID) (*models.Progress, error)
	// IncrementIfBelow bumps view_count by one only while it is under
	// maxViews, in a single conditional update, and returns the updated row.
	// A nil result means no row matched: either the pair has no progress yet
	// or the cap is reached; the caller disambiguates. Two racers can
	// therefore never push the count past the cap.
	IncrementIfBelow(ctx context.Context, userID, videoID primitive.ObjectID, maxViews int, fingerprint, ip string) (*models.Progress, error)
	// InsertFirstView creates the row with view_count=1. A concurrent first
	// view surfaces as a duplicate-key error via the unique (user, video)
	// index.
	InsertFirstView(ctx context.Context, progress *models.Progress) (*models.Progress, error)
	FindByUserAndVideoIDs(ctx context.Context, userID primitive.ObjectID, videoIDs []primitive.ObjectID) ([]models.Progress, error)
}

type progressRepository struct {
	db database.Service
}

func NewProgressRepository(db database.Service) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("progress")
}

func (r *progressRepository) FindByUserAndVideo(ctx context.Context, userID, videoID primitive.ObjectID) (*models.Progress, error) {
	done := instrument("findByUserAndVideo", "progress")
	var progress models.Progress
	filter := bson.M{"user_id": userID, "video_id": videoID}
	err := r.collection().FindOne(ctx, filter).Decode(&progress)
	done(err != nil && err != mongo.ErrNoDocuments)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find progress: %w", err)
	}
	return &progress, nil
}

func (r *progressRepository) IncrementIfBelow(ctx context.Context, userID, videoID primitive.ObjectID, maxViews int, fingerprint, ip string) (*models.Progress, error) {
	done := instrument("incrementIfBelow", "progress")
	now := time.Now()

	filter := bson.M{
		"user_id":    userID,
		"video_id":   videoID,
		"view_count": bson.M{"$lt": maxViews},
	}
	set := bson.M{"last_viewed_at": now, "updated_at": now}
	if fingerprint != "" {
		set["device_fingerprint"] = fingerprint
	}
	if ip != "" {
		set["ip_address"] = ip
	}
	update := bson.M{
		"$inc": bson.M{"view_count": 1},
		"$set": set,
	}

	var progress models.Progress
	err := r.collection().
		FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&progress)
	done(err != nil && err != mongo.ErrNoDocuments)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to increment view count: %w", err)
	}
	return &progress, nil
}

func (r *progressRepository) InsertFirstView(ctx context.Context, progress *models.Progress) (*models.Progress, error) {
	done := instrument("insertFirstView", "progress")
	now := time.Now()
	progress.ID = primitive.NewObjectID()
	progress.ViewCount = 1
	progress.LastViewedAt = now
	progress.CreatedAt = now
	progress.UpdatedAt = now
	_, err := r.collection().InsertOne(ctx, progress)
	done(err != nil)
	if err != nil {
		return nil, err
	}
	return progress, nil
}

func (r *progressRepository) FindByUserAndVideoIDs(ctx context.Context, userID primitive.ObjectID, videoIDs []primitive.ObjectID) ([]models.Progress, error) {
	done := instrument("findByUserAndVideoIds", "progress")
	filter := bson.M{"user_id": userID, "video_id": bson.M{"$in": videoIDs}}
	cursor, err := r.collection().Find(ctx, filter)
	if err != nil {
		done(true)
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	var rows []models.Progress
	err = cursor.All(ctx, &rows)
	done(err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decode progress rows: %w", err)
	}
	return rows, nil
}
