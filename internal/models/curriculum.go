package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Grade struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	SortOrder int                `json:"sort_order" bson:"sort_order"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

type GradeUpdate struct {
	Name      *string `json:"name,omitempty" bson:"name,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty" bson:"sort_order,omitempty"`
}

type Subject struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	GradeID   primitive.ObjectID `json:"grade_id" bson:"grade_id"`
	Name      string             `json:"name" bson:"name"`
	IconURL   string             `json:"icon_url,omitempty" bson:"icon_url,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

type SubjectUpdate struct {
	Name    *string `json:"name,omitempty" bson:"name,omitempty"`
	IconURL *string `json:"icon_url,omitempty" bson:"icon_url,omitempty"`
}

type Lesson struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	SubjectID   primitive.ObjectID `json:"subject_id" bson:"subject_id"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	// Price in the smallest currency unit.
	Price     int64     `json:"price" bson:"price"`
	SortOrder int       `json:"sort_order" bson:"sort_order"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type LessonUpdate struct {
	Title       *string `json:"title,omitempty" bson:"title,omitempty"`
	Description *string `json:"description,omitempty" bson:"description,omitempty"`
	Price       *int64  `json:"price,omitempty" bson:"price,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty" bson:"sort_order,omitempty"`
}

type Video struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	LessonID        primitive.ObjectID `json:"lesson_id" bson:"lesson_id"`
	Title           string             `json:"title" bson:"title"`
	URL             string             `json:"url" bson:"url"`
	DurationSeconds int                `json:"duration_seconds" bson:"duration_seconds"`
	SortOrder       int                `json:"sort_order" bson:"sort_order"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

type VideoUpdate struct {
	Title           *string `json:"title,omitempty" bson:"title,omitempty"`
	URL             *string `json:"url,omitempty" bson:"url,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty" bson:"duration_seconds,omitempty"`
	SortOrder       *int    `json:"sort_order,omitempty" bson:"sort_order,omitempty"`
}
