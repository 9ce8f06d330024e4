package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"darsly/internal/database"
	"darsly/internal/models"
)

// TempTokenRepository tracks issued 2FA temp tokens by jti so each one can
// be consumed exactly once, even under concurrent verification attempts.
type TempTokenRepository interface {
	Create(ctx context.Context, token *models.TempToken) error
	// Consume flips consumed to true for a live token and reports whether
	// this call was the one that consumed it.
	Consume(ctx context.Context, jti string) (bool, error)
}

type tempTokenRepository struct {
	db database.Service
}

func NewTempTokenRepository(db database.Service) TempTokenRepository {
	return &tempTokenRepository{db: db}
}

func (r *tempTokenRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("temp_tokens")
}

func (r *tempTokenRepository) Create(ctx context.Context, token *models.TempToken) error {
	done := instrument("create", "tempToken")
	token.ID = primitive.NewObjectID()
	token.CreatedAt = time.Now()
	_, err := r.collection().InsertOne(ctx, token)
	done(err != nil)
	return err
}

func (r *tempTokenRepository) Consume(ctx context.Context, jti string) (bool, error) {
	done := instrument("consume", "tempToken")
	filter := bson.M{
		"jti":        jti,
		"consumed":   false,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	result, err := r.collection().UpdateOne(ctx, filter, bson.M{"$set": bson.M{"consumed": true}})
	done(err != nil)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}
