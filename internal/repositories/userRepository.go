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

type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	Update(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error)
	// ClaimTOTPStep records the given time step as used iff it is newer than
	// the stored one. Returns false when the step was already claimed, which
	// is how TOTP replay inside the skew window is rejected.
	ClaimTOTPStep(ctx context.Context, userID primitive.ObjectID, step int64) (bool, error)
	CountAll(ctx context.Context) (int64, error)
	CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error)
}

type userRepository struct {
	db database.Service
}

func NewUserRepository(db database.Service) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("users")
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	done := instrument("create", "user")
	_, err := r.collection().InsertOne(ctx, user)
	done(err != nil)
	if err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("Failed to insert user into database")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// FindByIdentifier resolves a user by phone number or email address.
func (r *userRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	done := instrument("findByIdentifier", "user")
	var user models.User
	filter := bson.M{"$or": bson.A{
		bson.M{"email": identifier},
		bson.M{"phone_number": identifier},
	}}
	err := r.collection().FindOne(ctx, filter).Decode(&user)
	done(err != nil)
	if err != nil {
		return nil, err // can be mongo.ErrNoDocuments
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	done := instrument("findByEmail", "user")
	var user models.User
	err := r.collection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	done(err != nil)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	done := instrument("findById", "user")
	var user models.User
	err := r.collection().FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	done(err != nil)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	done := instrument("update", "user")
	updateFields["updated_at"] = time.Now()
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": updateFields})
	done(err != nil)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error updating user")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return result, nil
}

func (r *userRepository) ClaimTOTPStep(ctx context.Context, userID primitive.ObjectID, step int64) (bool, error) {
	done := instrument("claimTotpStep", "user")
	filter := bson.M{
		"_id":                  userID,
		"two_factor_last_step": bson.M{"$lt": step},
	}
	update := bson.M{"$set": bson.M{"two_factor_last_step": step, "updated_at": time.Now()}}
	result, err := r.collection().UpdateOne(ctx, filter, update)
	done(err != nil)
	if err != nil {
		return false, fmt.Errorf("failed to claim totp step: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *userRepository) CountAll(ctx context.Context) (int64, error) {
	done := instrument("countAll", "user")
	count, err := r.collection().CountDocuments(ctx, bson.M{})
	done(err != nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count total users")
		return 0, fmt.Errorf("failed to count total users: %w", err)
	}
	return count, nil
}

func (r *userRepository) CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	done := instrument("countCreatedBetween", "user")
	filter := bson.M{"created_at": bson.M{"$gte": start, "$lte": end}}
	count, err := r.collection().CountDocuments(ctx, filter)
	done(err != nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count users created between dates")
		return 0, fmt.Errorf("failed to count users created between dates: %w", err)
	}
	return count, nil
}
