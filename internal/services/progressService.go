package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"darsly/internal/apperrors"
	"darsly/internal/config"
	"darsly/internal/metrics"
	"darsly/internal/models"
	"darsly/internal/repositories"
)

// ProgressService is the view gate: it authorizes playback for enrolled
// students and enforces the per-video view cap.
type ProgressService interface {
	RecordView(ctx context.Context, userID, videoID primitive.ObjectID, deviceFingerprint, ipAddress string) (*models.Progress, error)
	GetVideoProgress(ctx context.Context, userID, videoID primitive.ObjectID) (*models.VideoProgress, error)
	GetLessonProgress(ctx context.Context, userID, lessonID primitive.ObjectID) (*models.LessonProgress, error)
}

type progressService struct {
	cfg            *config.Config
	progressRepo   repositories.ProgressRepository
	videoRepo      repositories.VideoRepository
	lessonRepo     repositories.LessonRepository
	enrollmentRepo repositories.EnrollmentRepository
}

func NewProgressService(
	cfg *config.Config,
	progressRepo repositories.ProgressRepository,
	videoRepo repositories.VideoRepository,
	lessonRepo repositories.LessonRepository,
	enrollmentRepo repositories.EnrollmentRepository,
) ProgressService {
	return &progressService{
		cfg:            cfg,
		progressRepo:   progressRepo,
		videoRepo:      videoRepo,
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

// RecordView resolves the video's lesson, requires an enrollment, then bumps
// the view counter through the repository's conditional update. The counter
// can reach the cap but never pass it, even when two requests race.
func (s *progressService) RecordView(ctx context.Context, userID, videoID primitive.ObjectID, deviceFingerprint, ipAddress string) (*models.Progress, error) {
	video, err := s.videoRepo.FindByID(ctx, videoID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch video: %w", err)
	}

	enrollment, err := s.enrollmentRepo.FindByUserAndLesson(ctx, userID, video.LessonID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		log.Warn().Str("user_id", userID.Hex()).Str("video_id", videoID.Hex()).Msg("View rejected: not enrolled")
		return nil, apperrors.ErrNotEnrolled
	}

	progress, err := s.progressRepo.IncrementIfBelow(ctx, userID, videoID, s.cfg.MaxVideoViews, deviceFingerprint, ipAddress)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		// Either no row yet or the cap is reached.
		existing, err := s.progressRepo.FindByUserAndVideo(ctx, userID, videoID)
		if err != nil {
			return nil, err
		}
		switch {
		case existing != nil && existing.ViewCount >= s.cfg.MaxVideoViews:
			metrics.ViewLimitRejectionsTotal.Inc()
			log.Warn().Str("user_id", userID.Hex()).Str("video_id", videoID.Hex()).Int("view_count", existing.ViewCount).Msg("View rejected: limit reached")
			return nil, apperrors.ErrViewLimitExceeded

		case existing != nil:
			// A below-cap row appeared between the failed conditional
			// increment and the read (a concurrent first view); take the
			// guarded increment again now that it exists.
			progress, err = s.progressRepo.IncrementIfBelow(ctx, userID, videoID, s.cfg.MaxVideoViews, deviceFingerprint, ipAddress)
			if err != nil {
				return nil, err
			}
			if progress == nil {
				metrics.ViewLimitRejectionsTotal.Inc()
				return nil, apperrors.ErrViewLimitExceeded
			}

		default:
			progress, err = s.progressRepo.InsertFirstView(ctx, &models.Progress{
				UserID:            userID,
				VideoID:           videoID,
				DeviceFingerprint: deviceFingerprint,
				IPAddress:         ipAddress,
			})
			if err != nil {
				if !mongo.IsDuplicateKeyError(err) {
					return nil, err
				}
				// Lost the first-view race; go through the guarded
				// increment once more.
				progress, err = s.progressRepo.IncrementIfBelow(ctx, userID, videoID, s.cfg.MaxVideoViews, deviceFingerprint, ipAddress)
				if err != nil {
					return nil, err
				}
				if progress == nil {
					metrics.ViewLimitRejectionsTotal.Inc()
					return nil, apperrors.ErrViewLimitExceeded
				}
			}
		}
	}

	metrics.VideoViewsTotal.Inc()
	log.Info().Str("user_id", userID.Hex()).Str("video_id", videoID.Hex()).Int("view_count", progress.ViewCount).Msg("View recorded")
	return progress, nil
}

func (s *progressService) GetVideoProgress(ctx context.Context, userID, videoID primitive.ObjectID) (*models.VideoProgress, error) {
	if _, err := s.videoRepo.FindByID(ctx, videoID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch video: %w", err)
	}

	progress, err := s.progressRepo.FindByUserAndVideo(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}

	result := &models.VideoProgress{MaxViews: s.cfg.MaxVideoViews, CanWatch: true}
	if progress != nil {
		result.ViewCount = progress.ViewCount
		result.CanWatch = progress.ViewCount < s.cfg.MaxVideoViews
		lastViewed := progress.LastViewedAt
		result.LastViewedAt = &lastViewed
	}
	return result, nil
}

func (s *progressService) GetLessonProgress(ctx context.Context, userID, lessonID primitive.ObjectID) (*models.LessonProgress, error) {
	if _, err := s.lessonRepo.FindByID(ctx, lessonID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch lesson: %w", err)
	}

	videos, err := s.videoRepo.FindByLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	result := &models.LessonProgress{TotalVideos: len(videos)}
	if len(videos) == 0 {
		return result, nil
	}

	videoIDs := make([]primitive.ObjectID, len(videos))
	for i, v := range videos {
		videoIDs[i] = v.ID
	}
	rows, err := s.progressRepo.FindByUserAndVideoIDs(ctx, userID, videoIDs)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row.ViewCount > 0 {
			result.WatchedVideos++
		}
		if row.ViewCount >= s.cfg.MaxVideoViews {
			result.CompletedVideos++
		}
	}
	result.ProgressPercentage = float64(result.WatchedVideos) / float64(result.TotalVideos) * 100
	return result, nil
}
