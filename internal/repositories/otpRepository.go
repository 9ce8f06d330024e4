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

type OTPRepository interface {
	// Create stores a fresh code after invalidating every live code for the
	// same (user, purpose), so only the newest code is ever valid.
	Create(ctx context.Context, otp *models.OTP) (*models.OTP, error)
	FindValid(ctx context.Context, userID primitive.ObjectID, code, purpose string) (*models.OTP, error)
	MarkAsUsed(ctx context.Context, otpID primitive.ObjectID) error
	DeleteExpired(ctx context.Context) error
}

type otpRepository struct {
	db database.Service
}

func NewOTPRepository(db database.Service) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("otps")
}

func (r *otpRepository) Create(ctx context.Context, otp *models.OTP) (*models.OTP, error) {
	done := instrument("create", "otp")
	now := time.Now()

	invalidate := bson.M{"user_id": otp.UserID, "purpose": otp.Purpose, "is_used": false}
	_, err := r.collection().UpdateMany(ctx, invalidate, bson.M{"$set": bson.M{"is_used": true, "updated_at": now}})
	if err != nil {
		done(true)
		return nil, err
	}

	otp.ID = primitive.NewObjectID()
	otp.CreatedAt = now
	otp.UpdatedAt = now
	_, err = r.collection().InsertOne(ctx, otp)
	done(err != nil)
	if err != nil {
		return nil, err
	}
	return otp, nil
}

func (r *otpRepository) FindValid(ctx context.Context, userID primitive.ObjectID, code, purpose string) (*models.OTP, error) {
	done := instrument("findValid", "otp")
	var otp models.OTP
	filter := bson.M{
		"user_id":    userID,
		"code":       code,
		"purpose":    purpose,
		"is_used":    false,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	err := r.collection().FindOne(ctx, filter).Decode(&otp)
	done(err != nil && err != mongo.ErrNoDocuments)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &otp, nil
}

func (r *otpRepository) MarkAsUsed(ctx context.Context, otpID primitive.ObjectID) error {
	done := instrument("markAsUsed", "otp")
	update := bson.M{"$set": bson.M{"is_used": true, "updated_at": time.Now()}}
	_, err := r.collection().UpdateOne(ctx, bson.M{"_id": otpID}, update)
	done(err != nil)
	return err
}

func (r *otpRepository) DeleteExpired(ctx context.Context) error {
	done := instrument("deleteExpired", "otp")
	_, err := r.collection().DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now()}})
	done(err != nil)
	return err
}
