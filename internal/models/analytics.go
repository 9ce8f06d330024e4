package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AnalyticsOverview struct {
	TotalUsers     int64     `json:"total_users"`
	NewUsers       int64     `json:"new_users"`
	NewEnrollments int64     `json:"new_enrollments"`
	Revenue        int64     `json:"revenue"`
	Since          time.Time `json:"since"`
	Until          time.Time `json:"until"`
}

type LessonStats struct {
	LessonID    primitive.ObjectID `json:"lesson_id"`
	Title       string             `json:"title"`
	Enrollments int64              `json:"enrollments"`
	Revenue     int64              `json:"revenue"`
}
