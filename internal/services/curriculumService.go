package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"darsly/internal/apperrors"
	"darsly/internal/models"
	"darsly/internal/repositories"
)

// CurriculumService is the admin-facing content management over the
// grade → subject → lesson → video hierarchy, plus the student-facing
// read paths.
type CurriculumService interface {
	AddGrade(ctx context.Context, grade models.Grade) (*models.Grade, error)
	GetGrades(ctx context.Context) ([]models.Grade, error)
	UpdateGrade(ctx context.Context, gradeID primitive.ObjectID, payload models.GradeUpdate) (*models.Grade, error)
	DeleteGrade(ctx context.Context, gradeID primitive.ObjectID) error

	AddSubject(ctx context.Context, subject models.Subject) (*models.Subject, error)
	GetSubjectsByGrade(ctx context.Context, gradeID primitive.ObjectID) ([]models.Subject, error)
	UpdateSubject(ctx context.Context, subjectID primitive.ObjectID, payload models.SubjectUpdate) (*models.Subject, error)
	DeleteSubject(ctx context.Context, subjectID primitive.ObjectID) error

	AddLesson(ctx context.Context, lesson models.Lesson) (*models.Lesson, error)
	GetLessonsBySubject(ctx context.Context, subjectID primitive.ObjectID) ([]models.Lesson, error)
	UpdateLesson(ctx context.Context, lessonID primitive.ObjectID, payload models.LessonUpdate) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, lessonID primitive.ObjectID) error

	AddVideo(ctx context.Context, video models.Video) (*models.Video, error)
	GetVideosByLesson(ctx context.Context, lessonID primitive.ObjectID) ([]models.Video, error)
	UpdateVideo(ctx context.Context, videoID primitive.ObjectID, payload models.VideoUpdate) (*models.Video, error)
	DeleteVideo(ctx context.Context, videoID primitive.ObjectID) error
}

type curriculumService struct {
	gradeRepo   repositories.GradeRepository
	subjectRepo repositories.SubjectRepository
	lessonRepo  repositories.LessonRepository
	videoRepo   repositories.VideoRepository
}

func NewCurriculumService(
	gradeRepo repositories.GradeRepository,
	subjectRepo repositories.SubjectRepository,
	lessonRepo repositories.LessonRepository,
	videoRepo repositories.VideoRepository,
) CurriculumService {
	return &curriculumService{
		gradeRepo:   gradeRepo,
		subjectRepo: subjectRepo,
		lessonRepo:  lessonRepo,
		videoRepo:   videoRepo,
	}
}

func (s *curriculumService) AddGrade(ctx context.Context, grade models.Grade) (*models.Grade, error) {
	if grade.Name == "" {
		return nil, apperrors.BadRequest("grade name is required")
	}
	created, err := s.gradeRepo.Create(ctx, &grade)
	if err != nil {
		return nil, err
	}
	log.Info().Str("grade_id", created.ID.Hex()).Str("name", created.Name).Msg("Grade added")
	return created, nil
}

func (s *curriculumService) GetGrades(ctx context.Context) ([]models.Grade, error) {
	return s.gradeRepo.FindAll(ctx)
}

func (s *curriculumService) UpdateGrade(ctx context.Context, gradeID primitive.ObjectID, payload models.GradeUpdate) (*models.Grade, error) {
	updateFields := bson.M{}
	if payload.Name != nil {
		updateFields["name"] = *payload.Name
	}
	if payload.SortOrder != nil {
		updateFields["sort_order"] = *payload.SortOrder
	}
	if len(updateFields) == 0 {
		return nil, apperrors.BadRequest("no fields to update")
	}

	result, err := s.gradeRepo.Update(ctx, gradeID, updateFields)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, apperrors.ErrNotFound
	}
	return s.findGrade(ctx, gradeID)
}

func (s *curriculumService) DeleteGrade(ctx context.Context, gradeID primitive.ObjectID) error {
	result, err := s.gradeRepo.Delete(ctx, gradeID)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	log.Info().Str("grade_id", gradeID.Hex()).Msg("Grade deleted")
	return nil
}

func (s *curriculumService) findGrade(ctx context.Context, gradeID primitive.ObjectID) (*models.Grade, error) {
	grade, err := s.gradeRepo.FindByID(ctx, gradeID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch grade: %w", err)
	}
	return grade, nil
}

func (s *curriculumService) AddSubject(ctx context.Context, subject models.Subject) (*models.Subject, error) {
	if subject.Name == "" {
		return nil, apperrors.BadRequest("subject name is required")
	}
	if _, err := s.findGrade(ctx, subject.GradeID); err != nil {
		return nil, err
	}
	created, err := s.subjectRepo.Create(ctx, &subject)
	if err != nil {
		return nil, err
	}
	log.Info().Str("subject_id", created.ID.Hex()).Str("grade_id", subject.GradeID.Hex()).Msg("Subject added")
	return created, nil
}

func (s *curriculumService) GetSubjectsByGrade(ctx context.Context, gradeID primitive.ObjectID) ([]models.Subject, error) {
	if _, err := s.findGrade(ctx, gradeID); err != nil {
		return nil, err
	}
	return s.subjectRepo.FindByGrade(ctx, gradeID)
}

func (s *curriculumService) UpdateSubject(ctx context.Context, subjectID primitive.ObjectID, payload models.SubjectUpdate) (*models.Subject, error) {
	updateFields := bson.M{}
	if payload.Name != nil {
		updateFields["name"] = *payload.Name
	}
	if payload.IconURL != nil {
		updateFields["icon_url"] = *payload.IconURL
	}
	if len(updateFields) == 0 {
		return nil, apperrors.BadRequest("no fields to update")
	}

	result, err := s.subjectRepo.Update(ctx, subjectID, updateFields)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, apperrors.ErrNotFound
	}
	subject, err := s.subjectRepo.FindByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated subject: %w", err)
	}
	return subject, nil
}

func (s *curriculumService) DeleteSubject(ctx context.Context, subjectID primitive.ObjectID) error {
	result, err := s.subjectRepo.Delete(ctx, subjectID)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	log.Info().Str("subject_id", subjectID.Hex()).Msg("Subject deleted")
	return nil
}

func (s *curriculumService) AddLesson(ctx context.Context, lesson models.Lesson) (*models.Lesson, error) {
	if lesson.Title == "" {
		return nil, apperrors.BadRequest("lesson title is required")
	}
	if lesson.Price < 0 {
		return nil, apperrors.BadRequest("lesson price cannot be negative")
	}
	if _, err := s.subjectRepo.FindByID(ctx, lesson.SubjectID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch subject: %w", err)
	}
	created, err := s.lessonRepo.Create(ctx, &lesson)
	if err != nil {
		return nil, err
	}
	log.Info().Str("lesson_id", created.ID.Hex()).Str("subject_id", lesson.SubjectID.Hex()).Msg("Lesson added")
	return created, nil
}

func (s *curriculumService) GetLessonsBySubject(ctx context.Context, subjectID primitive.ObjectID) ([]models.Lesson, error) {
	if _, err := s.subjectRepo.FindByID(ctx, subjectID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch subject: %w", err)
	}
	return s.lessonRepo.FindBySubject(ctx, subjectID)
}

func (s *curriculumService) UpdateLesson(ctx context.Context, lessonID primitive.ObjectID, payload models.LessonUpdate) (*models.Lesson, error) {
	updateFields := bson.M{}
	if payload.Title != nil {
		updateFields["title"] = *payload.Title
	}
	if payload.Description != nil {
		updateFields["description"] = *payload.Description
	}
	if payload.Price != nil {
		if *payload.Price < 0 {
			return nil, apperrors.BadRequest("lesson price cannot be negative")
		}
		updateFields["price"] = *payload.Price
	}
	if payload.SortOrder != nil {
		updateFields["sort_order"] = *payload.SortOrder
	}
	if len(updateFields) == 0 {
		return nil, apperrors.BadRequest("no fields to update")
	}

	result, err := s.lessonRepo.Update(ctx, lessonID, updateFields)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, apperrors.ErrNotFound
	}
	lesson, err := s.lessonRepo.FindByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated lesson: %w", err)
	}
	return lesson, nil
}

func (s *curriculumService) DeleteLesson(ctx context.Context, lessonID primitive.ObjectID) error {
	result, err := s.lessonRepo.Delete(ctx, lessonID)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	log.Info().Str("lesson_id", lessonID.Hex()).Msg("Lesson deleted")
	return nil
}

func (s *curriculumService) AddVideo(ctx context.Context, video models.Video) (*models.Video, error) {
	if video.Title == "" || video.URL == "" {
		return nil, apperrors.BadRequest("video title and url are required")
	}
	if _, err := s.lessonRepo.FindByID(ctx, video.LessonID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch lesson: %w", err)
	}
	created, err := s.videoRepo.Create(ctx, &video)
	if err != nil {
		return nil, err
	}
	log.Info().Str("video_id", created.ID.Hex()).Str("lesson_id", video.LessonID.Hex()).Msg("Video added")
	return created, nil
}

func (s *curriculumService) GetVideosByLesson(ctx context.Context, lessonID primitive.ObjectID) ([]models.Video, error) {
	if _, err := s.lessonRepo.FindByID(ctx, lessonID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch lesson: %w", err)
	}
	return s.videoRepo.FindByLesson(ctx, lessonID)
}

func (s *curriculumService) UpdateVideo(ctx context.Context, videoID primitive.ObjectID, payload models.VideoUpdate) (*models.Video, error) {
	updateFields := bson.M{}
	if payload.Title != nil {
		updateFields["title"] = *payload.Title
	}
	if payload.URL != nil {
		updateFields["url"] = *payload.URL
	}
	if payload.DurationSeconds != nil {
		updateFields["duration_seconds"] = *payload.DurationSeconds
	}
	if payload.SortOrder != nil {
		updateFields["sort_order"] = *payload.SortOrder
	}
	if len(updateFields) == 0 {
		return nil, apperrors.BadRequest("no fields to update")
	}

	result, err := s.videoRepo.Update(ctx, videoID, updateFields)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, apperrors.ErrNotFound
	}
	video, err := s.videoRepo.FindByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated video: %w", err)
	}
	return video, nil
}

func (s *curriculumService) DeleteVideo(ctx context.Context, videoID primitive.ObjectID) error {
	result, err := s.videoRepo.Delete(ctx, videoID)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	log.Info().Str("video_id", videoID.Hex()).Msg("Video deleted")
	return nil
}
