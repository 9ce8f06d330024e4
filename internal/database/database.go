package database

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/joho/godotenv/autoload"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Name = "darsly"

type Service interface {
	Health() map[string]string
	Client() *mongo.Client
	Database() *mongo.Database
	Close() error
}

type service struct {
	db *mongo.Client
}

func New() Service {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal().Msg("MONGO_URI environment variable not set")
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}

	s := &service{db: client}
	if err := s.EnsureIndexes(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database indexes")
	}
	return s
}

// EnsureIndexes creates the uniqueness and expiry indexes the domain
// invariants depend on: one enrollment per (user, lesson), one progress row
// per (user, video), unique account identifiers, and TTL cleanup for
// one-time codes and temp tokens.
func (s *service) EnsureIndexes(ctx context.Context) error {
	db := s.Database()

	unique := options.Index().SetUnique(true)
	sparseUnique := options.Index().SetUnique(true).SetSparse(true)
	expireNow := options.Index().SetExpireAfterSeconds(0)

	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: sparseUnique},
			{Keys: bson.D{{Key: "phone_number", Value: 1}}, Options: sparseUnique},
		},
		"enrollments": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "lesson_id", Value: 1}}, Options: unique},
		},
		"progress": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "video_id", Value: 1}}, Options: unique},
		},
		"otps": {
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: expireNow},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "purpose", Value: 1}}},
		},
		"temp_tokens": {
			{Keys: bson.D{{Key: "jti", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: expireNow},
		},
		"videos": {
			{Keys: bson.D{{Key: "lesson_id", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx, nil); err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		return map[string]string{
			"message": "db down",
			"error":   err.Error(),
		}
	}

	return map[string]string{
		"message": "It's healthy",
	}
}

func (s *service) Client() *mongo.Client {
	return s.db
}

func (s *service) Database() *mongo.Database {
	return s.db.Database(Name)
}

func (s *service) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.db.Disconnect(ctx)
}
