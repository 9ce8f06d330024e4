package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"darsly/internal/apperrors"
	"darsly/internal/config"
	"darsly/internal/models"
)

type fakeProgressRepo struct {
	rows map[string]*models.Progress
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{rows: make(map[string]*models.Progress)}
}

func progressKey(userID, videoID primitive.ObjectID) string {
	return userID.Hex() + ":" + videoID.Hex()
}

func (f *fakeProgressRepo) FindByUserAndVideo(ctx context.Context, userID, videoID primitive.ObjectID) (*models.Progress, error) {
	row, ok := f.rows[progressKey(userID, videoID)]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (f *fakeProgressRepo) IncrementIfBelow(ctx context.Context, userID, videoID primitive.ObjectID, maxViews int, fingerprint, ip string) (*models.Progress, error) {
	row, ok := f.rows[progressKey(userID, videoID)]
	if !ok || row.ViewCount >= maxViews {
		return nil, nil
	}
	row.ViewCount++
	row.LastViewedAt = time.Now()
	copied := *row
	return &copied, nil
}

func (f *fakeProgressRepo) InsertFirstView(ctx context.Context, progress *models.Progress) (*models.Progress, error) {
	key := progressKey(progress.UserID, progress.VideoID)
	if _, exists := f.rows[key]; exists {
		return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	}
	progress.ViewCount = 1
	progress.LastViewedAt = time.Now()
	f.rows[key] = progress
	copied := *progress
	return &copied, nil
}

func (f *fakeProgressRepo) FindByUserAndVideoIDs(ctx context.Context, userID primitive.ObjectID, videoIDs []primitive.ObjectID) ([]models.Progress, error) {
	var out []models.Progress
	for _, videoID := range videoIDs {
		if row, ok := f.rows[progressKey(userID, videoID)]; ok {
			out = append(out, *row)
		}
	}
	return out, nil
}

// racingProgressRepo fails the first conditional increment even though a row
// exists, mimicking an increment that ran just before a concurrent first view
// created the row.
type racingProgressRepo struct {
	*fakeProgressRepo
	calls int
}

func (r *racingProgressRepo) IncrementIfBelow(ctx context.Context, userID, videoID primitive.ObjectID, maxViews int, fingerprint, ip string) (*models.Progress, error) {
	r.calls++
	if r.calls == 1 {
		return nil, nil
	}
	return r.fakeProgressRepo.IncrementIfBelow(ctx, userID, videoID, maxViews, fingerprint, ip)
}

type fakeVideoRepo struct {
	videos map[primitive.ObjectID]*models.Video
}

func (f *fakeVideoRepo) Create(ctx context.Context, video *models.Video) (*models.Video, error) {
	f.videos[video.ID] = video
	return video, nil
}

func (f *fakeVideoRepo) FindByID(ctx context.Context, videoID primitive.ObjectID) (*models.Video, error) {
	video, ok := f.videos[videoID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return video, nil
}

func (f *fakeVideoRepo) FindByLesson(ctx context.Context, lessonID primitive.ObjectID) ([]models.Video, error) {
	var out []models.Video
	for _, v := range f.videos {
		if v.LessonID == lessonID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVideoRepo) Update(ctx context.Context, videoID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (f *fakeVideoRepo) Delete(ctx context.Context, videoID primitive.ObjectID) (*mongo.DeleteResult, error) {
	delete(f.videos, videoID)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

type fakeLessonRepo struct {
	lessons map[primitive.ObjectID]*models.Lesson
}

func (f *fakeLessonRepo) Create(ctx context.Context, lesson *models.Lesson) (*models.Lesson, error) {
	f.lessons[lesson.ID] = lesson
	return lesson, nil
}

func (f *fakeLessonRepo) FindByID(ctx context.Context, lessonID primitive.ObjectID) (*models.Lesson, error) {
	lesson, ok := f.lessons[lessonID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return lesson, nil
}

func (f *fakeLessonRepo) FindBySubject(ctx context.Context, subjectID primitive.ObjectID) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, l := range f.lessons {
		if l.SubjectID == subjectID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLessonRepo) Update(ctx context.Context, lessonID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (f *fakeLessonRepo) Delete(ctx context.Context, lessonID primitive.ObjectID) (*mongo.DeleteResult, error) {
	delete(f.lessons, lessonID)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

type fakeEnrollmentRepo struct {
	enrollments map[string]*models.Enrollment
	created     []*models.Enrollment
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: make(map[string]*models.Enrollment)}
}

func enrollKey(userID, lessonID primitive.ObjectID) string {
	return userID.Hex() + ":" + lessonID.Hex()
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, error) {
	key := enrollKey(enrollment.UserID, enrollment.LessonID)
	if _, exists := f.enrollments[key]; exists {
		return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	}
	enrollment.ID = primitive.NewObjectID()
	enrollment.EnrolledAt = time.Now()
	f.enrollments[key] = enrollment
	f.created = append(f.created, enrollment)
	return enrollment, nil
}

func (f *fakeEnrollmentRepo) FindByUserAndLesson(ctx context.Context, userID, lessonID primitive.ObjectID) (*models.Enrollment, error) {
	enrollment, ok := f.enrollments[enrollKey(userID, lessonID)]
	if !ok {
		return nil, nil
	}
	return enrollment, nil
}

func (f *fakeEnrollmentRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range f.enrollments {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return int64(len(f.enrollments)), nil
}

func (f *fakeEnrollmentRepo) CountByLesson(ctx context.Context, lessonID primitive.ObjectID) (int64, error) {
	var n int64
	for _, e := range f.enrollments {
		if e.LessonID == lessonID {
			n++
		}
	}
	return n, nil
}

func (f *fakeEnrollmentRepo) SumRevenueBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var sum int64
	for _, e := range f.enrollments {
		sum += e.PricePaid
	}
	return sum, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      []byte("test-secret"),
		MaxVideoViews:  2,
		OTPExpiration:  10 * time.Minute,
		AccessTokenTTL: time.Hour,
		TempTokenTTL:   5 * time.Minute,
		TOTPSkewSteps:  2,
	}
}

type progressFixture struct {
	service  ProgressService
	progress *fakeProgressRepo
	enrolls  *fakeEnrollmentRepo
	userID   primitive.ObjectID
	lessonID primitive.ObjectID
	videoID  primitive.ObjectID
}

func newProgressFixture(enrolled bool) *progressFixture {
	userID := primitive.NewObjectID()
	lessonID := primitive.NewObjectID()
	videoID := primitive.NewObjectID()

	videoRepo := &fakeVideoRepo{videos: map[primitive.ObjectID]*models.Video{
		videoID: {ID: videoID, LessonID: lessonID, Title: "Intro", URL: "https://cdn/intro.mp4"},
	}}
	lessonRepo := &fakeLessonRepo{lessons: map[primitive.ObjectID]*models.Lesson{
		lessonID: {ID: lessonID, Title: "Algebra", Price: 5000},
	}}
	progressRepo := newFakeProgressRepo()
	enrollmentRepo := newFakeEnrollmentRepo()
	if enrolled {
		enrollmentRepo.enrollments[enrollKey(userID, lessonID)] = &models.Enrollment{
			ID: primitive.NewObjectID(), UserID: userID, LessonID: lessonID, EnrolledAt: time.Now(),
		}
	}

	return &progressFixture{
		service:  NewProgressService(testConfig(), progressRepo, videoRepo, lessonRepo, enrollmentRepo),
		progress: progressRepo,
		enrolls:  enrollmentRepo,
		userID:   userID,
		lessonID: lessonID,
		videoID:  videoID,
	}
}

func TestRecordView(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects when not enrolled", func(t *testing.T) {
		f := newProgressFixture(false)

		_, err := f.service.RecordView(ctx, f.userID, f.videoID, "", "")
		assert.ErrorIs(t, err, apperrors.ErrNotEnrolled)
	})

	t.Run("rejects unknown video", func(t *testing.T) {
		f := newProgressFixture(true)

		_, err := f.service.RecordView(ctx, f.userID, primitive.NewObjectID(), "", "")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("counts up to the cap then rejects", func(t *testing.T) {
		f := newProgressFixture(true)

		first, err := f.service.RecordView(ctx, f.userID, f.videoID, "fp-1", "10.0.0.1")
		assert.NoError(t, err)
		assert.Equal(t, 1, first.ViewCount)

		second, err := f.service.RecordView(ctx, f.userID, f.videoID, "fp-1", "10.0.0.1")
		assert.NoError(t, err)
		assert.Equal(t, 2, second.ViewCount)

		_, err = f.service.RecordView(ctx, f.userID, f.videoID, "fp-1", "10.0.0.1")
		assert.ErrorIs(t, err, apperrors.ErrViewLimitExceeded)

		// The counter never moves past the cap.
		row, err := f.progress.FindByUserAndVideo(ctx, f.userID, f.videoID)
		assert.NoError(t, err)
		assert.Equal(t, 2, row.ViewCount)
	})

	t.Run("below-cap row appearing mid-flight is incremented, not rejected", func(t *testing.T) {
		f := newProgressFixture(true)

		// A concurrent first view lands between the conditional increment
		// and the follow-up read: the increment matched nothing, yet the
		// row exists with one view left.
		raced := &racingProgressRepo{fakeProgressRepo: f.progress}
		f.progress.rows[progressKey(f.userID, f.videoID)] = &models.Progress{
			UserID: f.userID, VideoID: f.videoID, ViewCount: 1,
		}
		service := NewProgressService(testConfig(), raced, &fakeVideoRepo{videos: map[primitive.ObjectID]*models.Video{
			f.videoID: {ID: f.videoID, LessonID: f.lessonID},
		}}, &fakeLessonRepo{lessons: map[primitive.ObjectID]*models.Lesson{}}, f.enrolls)

		progress, err := service.RecordView(ctx, f.userID, f.videoID, "", "")
		assert.NoError(t, err)
		assert.Equal(t, 2, progress.ViewCount)
	})

	t.Run("retries increment after losing the first-view race", func(t *testing.T) {
		f := newProgressFixture(true)

		// A concurrent request created the row between the failed
		// conditional increment and the insert.
		f.progress.rows[progressKey(f.userID, f.videoID)] = &models.Progress{
			UserID: f.userID, VideoID: f.videoID, ViewCount: 0,
		}

		progress, err := f.service.RecordView(ctx, f.userID, f.videoID, "", "")
		assert.NoError(t, err)
		assert.Equal(t, 1, progress.ViewCount)
	})
}

func TestGetVideoProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("unwatched video is watchable", func(t *testing.T) {
		f := newProgressFixture(true)

		vp, err := f.service.GetVideoProgress(ctx, f.userID, f.videoID)
		assert.NoError(t, err)
		assert.Equal(t, 0, vp.ViewCount)
		assert.Equal(t, 2, vp.MaxViews)
		assert.True(t, vp.CanWatch)
		assert.Nil(t, vp.LastViewedAt)
	})

	t.Run("capped video is not watchable", func(t *testing.T) {
		f := newProgressFixture(true)

		_, _ = f.service.RecordView(ctx, f.userID, f.videoID, "", "")
		_, _ = f.service.RecordView(ctx, f.userID, f.videoID, "", "")

		vp, err := f.service.GetVideoProgress(ctx, f.userID, f.videoID)
		assert.NoError(t, err)
		assert.Equal(t, 2, vp.ViewCount)
		assert.False(t, vp.CanWatch)
		assert.NotNil(t, vp.LastViewedAt)
	})

	t.Run("unknown video is a 404", func(t *testing.T) {
		f := newProgressFixture(true)

		_, err := f.service.GetVideoProgress(ctx, f.userID, primitive.NewObjectID())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestGetLessonProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("lesson without videos reports zeros", func(t *testing.T) {
		f := newProgressFixture(true)
		emptyLesson := primitive.NewObjectID()
		lessonRepo := &fakeLessonRepo{lessons: map[primitive.ObjectID]*models.Lesson{
			emptyLesson: {ID: emptyLesson, Title: "Empty"},
		}}
		service := NewProgressService(testConfig(), f.progress, &fakeVideoRepo{videos: map[primitive.ObjectID]*models.Video{}}, lessonRepo, f.enrolls)

		lp, err := service.GetLessonProgress(ctx, f.userID, emptyLesson)
		assert.NoError(t, err)
		assert.Equal(t, 0, lp.TotalVideos)
		assert.Equal(t, float64(0), lp.ProgressPercentage)
	})

	t.Run("watched and completed are counted separately", func(t *testing.T) {
		f := newProgressFixture(true)

		// One of one videos watched once: watched but not completed.
		_, err := f.service.RecordView(ctx, f.userID, f.videoID, "", "")
		assert.NoError(t, err)

		lp, err := f.service.GetLessonProgress(ctx, f.userID, f.lessonID)
		assert.NoError(t, err)
		assert.Equal(t, 1, lp.TotalVideos)
		assert.Equal(t, 1, lp.WatchedVideos)
		assert.Equal(t, 0, lp.CompletedVideos)
		assert.Equal(t, float64(100), lp.ProgressPercentage)

		_, err = f.service.RecordView(ctx, f.userID, f.videoID, "", "")
		assert.NoError(t, err)

		lp, err = f.service.GetLessonProgress(ctx, f.userID, f.lessonID)
		assert.NoError(t, err)
		assert.Equal(t, 1, lp.CompletedVideos)
	})
}
