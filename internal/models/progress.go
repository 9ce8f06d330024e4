package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Progress counts how many times a user has started a specific video.
// view_count only ever moves up and is capped at the configured maximum by a
// conditional update in the repository.
type Progress struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID            primitive.ObjectID `json:"user_id" bson:"user_id"`
	VideoID           primitive.ObjectID `json:"video_id" bson:"video_id"`
	ViewCount         int                `json:"view_count" bson:"view_count"`
	LastViewedAt      time.Time          `json:"last_viewed_at" bson:"last_viewed_at"`
	DeviceFingerprint string             `json:"device_fingerprint,omitempty" bson:"device_fingerprint,omitempty"`
	IPAddress         string             `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

type VideoProgress struct {
	ViewCount    int        `json:"viewCount"`
	MaxViews     int        `json:"maxViews"`
	CanWatch     bool       `json:"canWatch"`
	LastViewedAt *time.Time `json:"lastViewedAt,omitempty"`
}

type LessonProgress struct {
	TotalVideos        int     `json:"totalVideos"`
	WatchedVideos      int     `json:"watchedVideos"`
	CompletedVideos    int     `json:"completedVideos"`
	ProgressPercentage float64 `json:"progressPercentage"`
}

type TrackProgressRequest struct {
	VideoID           string `json:"videoId"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
}
